// Package worker applies queued submissions to the table store.
//
// The default pool has a single writer, which keeps every read-modify-write
// of the table serialized.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/civil"

	"github.com/bulldogs/rpetracker/internal/adapters/mq/queue"
	"github.com/bulldogs/rpetracker/internal/domain/model"
	"github.com/bulldogs/rpetracker/internal/domain/sheet"
	"github.com/bulldogs/rpetracker/pkg/logger"
	"github.com/bulldogs/rpetracker/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Writer stores one submission.
type Writer interface {
	Upsert(ctx context.Context, sub model.Submission, day civil.Date) (sheet.Result, error)
}

// Queue defines how workers receive jobs. The channel must close once ctx
// ends or the queue is closed and drained.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// InMemoryWorker drains jobs into a Writer.
type InMemoryWorker struct {
	queue  Queue
	writer Writer
	name   string

	done chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, writer Writer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:  q,
		writer: writer,
		name:   "writer",
		done:   make(chan struct{}),
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run processes jobs until the queue is closed and drained or ctx is canceled.
// It returns only after the queue has stopped feeding it.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	dequeueCtx, cancel := context.WithCancel(ctx)
	jobs := w.queue.Dequeue(dequeueCtx)
	defer func() {
		cancel()
		for j := range jobs {
			j.Respond(queue.Outcome{Err: fmt.Errorf("write job %s: %w", j.ID, ErrStopped)})
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, j)
		}
	}
}

func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWriterProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	res, err := w.writer.Upsert(ctx, j.Submission, j.Day)
	if err != nil {
		metrics.RecordWriterError()
		metrics.RecordErrorByComponent("writer", "upsert_failed")
		metrics.RecordErrorByType("store_error", "high")
		w.logger.Error(ctx, "upsert failed",
			logger.String("job_id", j.ID),
			logger.Error(err),
		)
		j.Respond(queue.Outcome{Err: fmt.Errorf("write job %s: %w", j.ID, err)})
		return
	}

	metrics.RecordUpsert(res.RowInserted)
	j.Respond(queue.Outcome{Result: res})
}

// Pool manages the writer workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount writers; fewer than one means one.
func NewPool(workerCount int, q Queue, writer Writer, log logger.Logger) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	if log == nil {
		log = logger.Nop()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  log.Named("writer-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, writer,
			WithName("writer-"+strconv.Itoa(i)),
			WithLogger(log),
		)
	}

	metrics.UpdateWriterCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for the writers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "writer shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("writer pool shutdown: %w", shutdownCtx.Err())
		}
	}
	return nil
}
