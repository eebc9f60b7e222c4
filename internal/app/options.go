package service

import (
	"time"

	"github.com/bulldogs/rpetracker/internal/adapters/notify"
	"github.com/bulldogs/rpetracker/internal/adapters/repository"
	"github.com/bulldogs/rpetracker/internal/domain/workload"
	"github.com/bulldogs/rpetracker/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the table store submissions are written to.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithSource sets where reports read the table from. Defaults to the store.
func WithSource(src repository.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithDispatcher sets the notification dispatcher.
func WithDispatcher(d notify.Dispatcher) Option {
	return func(s *Service) {
		s.dispatcher = d
	}
}

// WithWriterCount sets the number of store writers.
func WithWriterCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.writerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending writes.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the reminder deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLocation sets the zone a submission's date is taken in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithCoaches sets the default coach report recipients.
func WithCoaches(emails []string) Option {
	return func(s *Service) {
		s.coaches = append([]string(nil), emails...)
	}
}

// WithWorkloadOptions configures the workload calculator.
func WithWorkloadOptions(opts ...workload.Option) Option {
	return func(s *Service) {
		s.calc = workload.NewCalculator(opts...)
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
