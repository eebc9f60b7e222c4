// Package service wires the store, write queue, calculators and notification
// dispatch behind the operations the HTTP API and CLI call.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/bulldogs/rpetracker/internal/adapters/mq/queue"
	"github.com/bulldogs/rpetracker/internal/adapters/mq/worker"
	"github.com/bulldogs/rpetracker/internal/adapters/notify"
	"github.com/bulldogs/rpetracker/internal/adapters/repository"
	"github.com/bulldogs/rpetracker/internal/domain/dedupe"
	"github.com/bulldogs/rpetracker/internal/domain/model"
	"github.com/bulldogs/rpetracker/internal/domain/reshape"
	"github.com/bulldogs/rpetracker/internal/domain/sheet"
	"github.com/bulldogs/rpetracker/internal/domain/workload"
	"github.com/bulldogs/rpetracker/pkg/logger"
	"github.com/bulldogs/rpetracker/pkg/metrics"
)

// Receipt acknowledges a stored submission.
type Receipt struct {
	ID          string     `json:"id"`
	Day         civil.Date `json:"day"`
	RowInserted bool       `json:"rowInserted"`
	Overwrote   bool       `json:"overwrote"`
}

// Service implements the API dependencies for the RPE tracker.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	source     repository.Source
	dispatcher notify.Dispatcher
	deduper    dedupe.Deduper
	queue      queue.Queue
	pool       *worker.Pool
	calc       *workload.Calculator

	// Configuration
	writerCount int
	queueSize   int
	dedupeSize  int
	location    *time.Location
	coaches     []string
	now         func() time.Time

	started bool
	logger  logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		calc:        workload.NewCalculator(),
		writerCount: 1,
		queueSize:   1_024,
		dedupeSize:  10_000,
		location:    time.UTC,
		now:         time.Now,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.store == nil {
		return ErrNoStore
	}
	if s.source == nil {
		s.source = s.store
	}
	if s.dispatcher == nil {
		s.dispatcher = notify.NewLogDispatcher(s.logger.Named("notify"))
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.writerCount, s.queue, s.store, s.logger)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "rpe service started",
		logger.Int("writers", s.writerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("timezone", s.location.String()),
	)
	return nil
}

// Stop drains pending writes and closes the store and dispatcher.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping rpe service...")

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	if err := s.dispatcher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
	}

	s.started = false
	s.logger.Info(ctx, "rpe service stopped")
	return errors.Join(errs...)
}

// Today returns the current calendar date in the configured zone.
func (s *Service) Today() civil.Date {
	return sheet.Today(s.now(), s.location)
}

// Submit validates a submission, queues it for the writer and waits for the
// write to complete. A full queue returns ErrBusy.
func (s *Service) Submit(ctx context.Context, sub model.Submission) (Receipt, error) {
	s.mu.RLock()
	started, q := s.started, s.queue
	s.mu.RUnlock()
	if !started {
		return Receipt{}, ErrNotStarted
	}

	sub = sub.Trimmed()
	if err := sub.Validate(); err != nil {
		metrics.RecordSubmission("invalid")
		return Receipt{}, fmt.Errorf("%w: %w", ErrInvalidSubmission, err)
	}

	job := queue.NewJob(uuid.NewString(), sub, s.Today())
	if err := q.Enqueue(ctx, job); err != nil {
		metrics.RecordSubmission("rejected")
		if errors.Is(err, queue.ErrFull) {
			return Receipt{}, ErrBusy
		}
		return Receipt{}, err
	}

	select {
	case out := <-job.Reply:
		if out.Err != nil {
			metrics.RecordSubmission("failed")
			return Receipt{}, out.Err
		}
		metrics.RecordSubmission("accepted")
		s.logger.Debug(ctx, "submission stored",
			logger.String("id", job.ID),
			logger.String("day", job.Day.String()),
			logger.Bool("row_inserted", out.Result.RowInserted),
		)
		return Receipt{
			ID:          job.ID,
			Day:         job.Day,
			RowInserted: out.Result.RowInserted,
			Overwrote:   out.Result.Overwrote,
		}, nil
	case <-ctx.Done():
		// The job stays queued and is still written.
		return Receipt{}, ctx.Err()
	}
}

// Table fetches the current table from the report source.
func (s *Service) Table(ctx context.Context) (*sheet.Table, error) {
	s.mu.RLock()
	src := s.source
	s.mu.RUnlock()
	if src == nil {
		return nil, ErrNotStarted
	}
	t, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch table: %w", err)
	}
	return t, nil
}

// Wide returns every athlete row with numeric values and its average.
func (s *Service) Wide(ctx context.Context) ([]model.WideRow, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	return reshape.Wide(t), nil
}

// Long returns one observation per athlete and date.
func (s *Service) Long(ctx context.Context, includeMissing bool) ([]model.Observation, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	return reshape.Melt(t, includeMissing), nil
}

// PositionDaily returns per-position averages for each date.
func (s *Service) PositionDaily(ctx context.Context) ([]model.PositionDailyAverage, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	return reshape.PositionDaily(reshape.Melt(t, true)), nil
}

// Positions returns the overall average of each position.
func (s *Service) Positions(ctx context.Context) ([]model.PositionAverage, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	return reshape.PositionAverages(reshape.Wide(t)), nil
}

// Summary returns the team summary.
func (s *Service) Summary(ctx context.Context) (model.TeamSummary, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return model.TeamSummary{}, err
	}
	return reshape.Summarize(t), nil
}

// Workload returns the samples at or above minState.
func (s *Service) Workload(ctx context.Context, minState model.RiskState) ([]model.WorkloadSample, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	samples, err := s.calc.Calculate(ctx, t)
	if err != nil {
		return nil, err
	}
	metrics.UpdateWorkloadStates(workload.CountStates(samples))
	return workload.Flagged(samples, minState), nil
}

// Emails returns the deduplicated athlete emails.
func (s *Service) Emails(ctx context.Context) ([]string, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	return reshape.Emails(t), nil
}

// SendReminders hands one reminder per athlete to the dispatcher, skipping
// athletes already reminded today.
func (s *Service) SendReminders(ctx context.Context) (model.DispatchResult, error) {
	var res model.DispatchResult
	s.mu.RLock()
	started, d, dispatcher := s.started, s.deduper, s.dispatcher
	s.mu.RUnlock()
	if !started {
		return res, ErrNotStarted
	}

	emails, err := s.Emails(ctx)
	if err != nil {
		return res, err
	}

	today := s.Today()
	for _, email := range emails {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		key := dedupe.ReminderKey(email, today)
		if d.SeenAndRecord(ctx, key) {
			res.Skipped++
			metrics.RecordReminder("skipped")
			continue
		}
		r := model.Reminder{ID: uuid.NewString(), Email: email, Day: today}
		if err := dispatcher.SendReminder(ctx, r); err != nil {
			d.Unrecord(ctx, key)
			res.Failed++
			metrics.RecordReminder("failed")
			s.logger.Warn(ctx, "reminder dispatch failed", logger.String("email", email), logger.Error(err))
			continue
		}
		res.Sent++
		metrics.RecordReminder("sent")
	}
	metrics.UpdateReminderDedupeSize(d.Size())

	s.logger.Info(ctx, "reminders dispatched",
		logger.Int("sent", res.Sent),
		logger.Int("failed", res.Failed),
		logger.Int("skipped", res.Skipped),
	)
	return res, nil
}

// SendCoachReports hands one report per coach to the dispatcher. An empty
// list falls back to the configured coaches.
func (s *Service) SendCoachReports(ctx context.Context, coaches []string) (model.DispatchResult, error) {
	var res model.DispatchResult
	s.mu.RLock()
	started, dispatcher := s.started, s.dispatcher
	if len(coaches) == 0 {
		coaches = s.coaches
	}
	s.mu.RUnlock()
	if !started {
		return res, ErrNotStarted
	}

	t, err := s.Table(ctx)
	if err != nil {
		return res, err
	}
	samples, err := s.calc.Calculate(ctx, t)
	if err != nil {
		return res, err
	}
	summary := reshape.Summarize(t)
	flagged := workload.Flagged(samples, model.Elevated)
	today := s.Today()

	for _, coach := range coaches {
		report := model.CoachReport{
			ID:      uuid.NewString(),
			Coach:   coach,
			Day:     today,
			Summary: summary,
			Flagged: flagged,
		}
		if err := dispatcher.SendCoachReport(ctx, report); err != nil {
			res.Failed++
			metrics.RecordCoachReport("failed")
			s.logger.Warn(ctx, "coach report dispatch failed", logger.String("coach", coach), logger.Error(err))
			continue
		}
		res.Sent++
		metrics.RecordCoachReport("sent")
	}
	return res, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"writerCount": s.writerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"timezone":    s.location.String(),
		"today":       s.Today().String(),
	}
	if s.started {
		queueLen := s.queue.Len(context.Background())
		stats["queueLength"] = queueLen
		stats["remindersTracked"] = s.deduper.Size()
		metrics.UpdateReminderDedupeSize(s.deduper.Size())
	}
	return stats
}
