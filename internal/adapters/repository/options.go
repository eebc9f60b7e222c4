package repository

import (
	"github.com/bulldogs/rpetracker/pkg/logger"
)

// Option applies a configuration option to a store.
type Option func(*options)

type options struct {
	log logger.Logger
}

func newOptions(opts []Option) options {
	o := options{log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger used for store diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}
