package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"

	"github.com/bulldogs/rpetracker/internal/adapters/mq/queue"
	"github.com/bulldogs/rpetracker/internal/adapters/mq/worker"
	"github.com/bulldogs/rpetracker/internal/domain/model"
	"github.com/bulldogs/rpetracker/internal/domain/sheet"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testDay = civil.Date{Year: 2025, Month: time.June, Day: 1}

// fakeWriter records calls and tracks how many run at once.
type fakeWriter struct {
	mu       sync.Mutex
	emails   []string
	fail     map[string]error
	block    chan struct{}
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeWriter) Upsert(_ context.Context, sub model.Submission, day civil.Date) (sheet.Result, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	if f.block != nil {
		<-f.block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[sub.Email]; err != nil {
		return sheet.Result{}, err
	}
	f.emails = append(f.emails, sub.Email)
	return sheet.Result{Day: day, RowInserted: true}, nil
}

func newJob(i int) queue.Job {
	email := fmt.Sprintf("p%d@school.edu", i)
	return queue.NewJob(email, model.Submission{Identity: model.Identity{Email: email}, Intensity: "5"}, testDay)
}

func TestPool(t *testing.T) {
	Convey("Given a single-writer pool over an in-memory queue", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		w := &fakeWriter{fail: map[string]error{}}
		pool := worker.NewPool(1, q, w, nil)
		pool.Start(ctx)

		Convey("When jobs are enqueued", func() {
			jobs := make([]queue.Job, 50)
			for i := range jobs {
				jobs[i] = newJob(i)
				So(q.Enqueue(ctx, jobs[i]), ShouldBeNil)
			}

			Convey("Then every job is answered and writes never overlap", func() {
				for _, j := range jobs {
					out := <-j.Reply
					So(out.Err, ShouldBeNil)
					So(out.Result.RowInserted, ShouldBeTrue)
				}
				So(w.maxSeen.Load(), ShouldEqual, 1)
				So(pool.Shutdown(ctx), ShouldBeNil)
				So(w.emails, ShouldHaveLength, 50)
				So(w.emails[0], ShouldEqual, "p0@school.edu")
				So(w.emails[49], ShouldEqual, "p49@school.edu")
			})
		})

		Convey("When the writer fails", func() {
			w.fail["p1@school.edu"] = errors.New("disk full")
			j := newJob(1)
			So(q.Enqueue(ctx, j), ShouldBeNil)

			Convey("Then the failure is returned to the submitter", func() {
				out := <-j.Reply
				So(out.Err, ShouldNotBeNil)
				So(out.Err.Error(), ShouldContainSubstring, "disk full")
				So(pool.Shutdown(ctx), ShouldBeNil)
			})
		})

		Convey("When shutting down with queued jobs", func() {
			jobs := []queue.Job{newJob(1), newJob(2), newJob(3)}
			for _, j := range jobs {
				So(q.Enqueue(ctx, j), ShouldBeNil)
			}
			So(pool.Shutdown(ctx), ShouldBeNil)

			Convey("Then queued jobs are drained first", func() {
				for _, j := range jobs {
					So((<-j.Reply).Err, ShouldBeNil)
				}
				So(errors.Is(q.Enqueue(ctx, newJob(4)), queue.ErrClosed), ShouldBeTrue)
			})
		})
	})
}

func TestPoolShutdownTimeout(t *testing.T) {
	Convey("Given a writer stuck on a job", t, func() {
		q := queue.NewInMemoryQueue()
		w := &fakeWriter{fail: map[string]error{}, block: make(chan struct{})}
		pool := worker.NewPool(1, q, w, nil)
		pool.Start(context.Background())
		j := newJob(1)
		So(q.Enqueue(context.Background(), j), ShouldBeNil)

		Convey("Then shutdown gives up at the deadline", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			err := pool.Shutdown(ctx)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)

			close(w.block)
			So((<-j.Reply).Err, ShouldBeNil)
			So(pool.Shutdown(context.Background()), ShouldBeNil)
		})
	})
}

func TestWorkerStopsWithContext(t *testing.T) {
	Convey("Given a worker on an in-memory queue that stays open", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		w := &fakeWriter{fail: map[string]error{}}
		solo := worker.NewInMemoryWorker(q, w, worker.WithName("solo"))

		ctx, cancel := context.WithCancel(context.Background())
		stopped := make(chan struct{})
		go func() {
			solo.Run(ctx)
			close(stopped)
		}()

		Convey("When its context is cancelled", func() {
			cancel()
			select {
			case <-stopped:
			case <-time.After(time.Second):
				t.Fatal("worker did not stop")
			}

			Convey("Then a later job stays queued for the next writer", func() {
				j := newJob(7)
				So(q.Enqueue(context.Background(), j), ShouldBeNil)
				So(q.Len(context.Background()), ShouldEqual, 1)

				pool := worker.NewPool(1, q, w, nil)
				pool.Start(context.Background())
				So((<-j.Reply).Err, ShouldBeNil)
				So(pool.Shutdown(context.Background()), ShouldBeNil)
				So(w.emails, ShouldResemble, []string{"p7@school.edu"})
			})
		})
	})
}
