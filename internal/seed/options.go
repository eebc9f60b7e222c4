package seed

import (
	"time"

	"github.com/bulldogs/rpetracker/pkg/logger"
)

// Option configures a Generator.
type Option func(*Generator)

// WithDomain sets the email domain of generated athletes.
func WithDomain(domain string) Option {
	return func(g *Generator) {
		if domain != "" {
			g.domain = domain
		}
	}
}

// WithLogger sets the logger used while seeding.
func WithLogger(l logger.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithWorkers sets how many submissions SubmitAll sends concurrently.
func WithWorkers(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.workers = n
		}
	}
}
