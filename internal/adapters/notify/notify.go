// Package notify hands reminders and coach reports to whatever delivers
// them. Rendering and mail transport live outside this service.
package notify

import (
	"context"

	"github.com/bulldogs/rpetracker/internal/domain/model"
	"github.com/bulldogs/rpetracker/pkg/logger"
)

// Dispatcher accepts notification jobs.
type Dispatcher interface {
	SendReminder(ctx context.Context, r model.Reminder) error
	SendCoachReport(ctx context.Context, r model.CoachReport) error
	Close() error
}

// LogDispatcher only logs jobs. It is the default when no mailer is wired.
type LogDispatcher struct {
	log logger.Logger
}

// NewLogDispatcher creates a dispatcher writing to log.
func NewLogDispatcher(log logger.Logger) *LogDispatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) SendReminder(ctx context.Context, r model.Reminder) error {
	d.log.Info(ctx, "reminder",
		logger.String("id", r.ID),
		logger.String("email", r.Email),
		logger.String("day", r.Day.String()),
	)
	return nil
}

func (d *LogDispatcher) SendCoachReport(ctx context.Context, r model.CoachReport) error {
	d.log.Info(ctx, "coach report",
		logger.String("id", r.ID),
		logger.String("coach", r.Coach),
		logger.String("day", r.Day.String()),
		logger.Int("athletes", r.Summary.Athletes),
		logger.Int("flagged", len(r.Flagged)),
	)
	return nil
}

func (d *LogDispatcher) Close() error { return nil }
