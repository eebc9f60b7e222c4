// Package queue holds submissions waiting for the table writer.
//
// The queue is a bounded buffered channel: Enqueue never blocks, so a full
// queue is reported to the caller as backpressure.
package queue

import (
	"context"
	"sync"
	"time"

	"cloud.google.com/go/civil"

	"github.com/bulldogs/rpetracker/internal/domain/model"
	"github.com/bulldogs/rpetracker/internal/domain/sheet"
	"github.com/bulldogs/rpetracker/pkg/metrics"
)

const defaultQueueCapacity = 1_024

// Job is one submission to be written for Day. The writer sends exactly one
// Outcome on Reply, which must be buffered.
type Job struct {
	ID         string
	Submission model.Submission
	Day        civil.Date
	EnqueuedAt time.Time
	Reply      chan Outcome
}

// Outcome is the writer's answer to a Job.
type Outcome struct {
	Result sheet.Result
	Err    error
}

// NewJob builds a job with a reply channel ready to receive.
func NewJob(id string, sub model.Submission, day civil.Date) Job {
	return Job{
		ID:         id,
		Submission: sub,
		Day:        day,
		EnqueuedAt: time.Now(),
		Reply:      make(chan Outcome, 1),
	}
}

// Respond delivers the outcome without blocking; a job answers at most once.
func (j Job) Respond(o Outcome) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	if j.Reply == nil {
		return
	}
	select {
	case j.Reply <- o:
	default:
	}
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job. Returns ErrFull or ErrClosed when it was not added.
	Enqueue(ctx context.Context, j Job) error

	// Dequeue returns a channel receiving jobs; it is closed once the queue
	// is closed and drained.
	Dequeue(ctx context.Context) <-chan Job

	Len(ctx context.Context) int
	Cap() int

	// Close stops accepting jobs. Already queued jobs are still delivered.
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)
	return q
}

// Enqueue adds a job to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}

	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		q.updateGauges()
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue returns a channel that will receive jobs as they become available.
// The channel closes once the queue is closed and drained, or when ctx ends;
// a job taken off the queue but not delivered is answered with ctx's error.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for {
			var j Job
			select {
			case <-ctx.Done():
				return
			case next, ok := <-q.jobs:
				if !ok {
					return
				}
				j = next
			}

			select {
			case out <- j:
				metrics.RecordQueueDequeue()
				metrics.RecordQueueProcessingLatency(float64(time.Since(j.EnqueuedAt).Milliseconds()))
				q.updateGauges()
			case <-ctx.Done():
				// Not delivered; answer so the submitter is not left waiting.
				j.Respond(Outcome{Err: ctx.Err()})
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len(_ context.Context) int {
	q.updateGauges()
	return len(q.jobs)
}

// Cap returns the queue capacity.
func (q *InMemoryQueue) Cap() int { return q.capacity }

func (q *InMemoryQueue) updateGauges() {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
