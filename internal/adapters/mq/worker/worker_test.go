package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/heatcheck/internal/adapters/mq/queue"
	worker "github.com/okian/heatcheck/internal/adapters/mq/worker"
	model "github.com/okian/heatcheck/internal/domain/model"
	logging "github.com/okian/heatcheck/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// mockWriter records saved batches and fails the first failures[id] saves.
type mockWriter struct {
	mu       sync.Mutex
	saved    map[string]model.Batch
	calls    map[string]int
	failures map[string]int
}

func newMockWriter() *mockWriter {
	return &mockWriter{
		saved:    make(map[string]model.Batch),
		calls:    make(map[string]int),
		failures: make(map[string]int),
	}
}

func (m *mockWriter) Save(_ context.Context, b model.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[b.ID]++
	if m.failures[b.ID] > 0 {
		m.failures[b.ID]--
		return errors.New("database unavailable")
	}
	m.saved[b.ID] = b
	return nil
}

func (m *mockWriter) failTimes(id string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[id] = n
}

func (m *mockWriter) savedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

func (m *mockWriter) callCount(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[id]
}

// stallingWriter blocks every Save until its context ends.
type stallingWriter struct{}

func (stallingWriter) Save(ctx context.Context, _ model.Batch) error {
	<-ctx.Done()
	return ctx.Err()
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func batch(id string) model.Batch {
	return model.Batch{ID: id, Input: model.EnvironmentInput{Club: "Cowboys"}}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		writer := newMockWriter()

		convey.Convey("When a batch is queued", func() {
			w := worker.NewInMemoryWorker(q, writer, worker.WithName("test-worker"))
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)

			convey.So(q.Enqueue(ctx, batch("b-1")), convey.ShouldBeNil)

			convey.Convey("Then it should be written to the store", func() {
				convey.So(eventually(func() bool { return writer.savedCount() == 1 }), convey.ShouldBeTrue)
				convey.So(eventually(func() bool { return w.Written() == 1 }), convey.ShouldBeTrue)
				convey.So(w.Failed(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the store fails transiently", func() {
			w := worker.NewInMemoryWorker(q, writer,
				worker.WithRetries(2),
				worker.WithRetryDelay(time.Millisecond),
			)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)

			writer.failTimes("b-2", 2)
			convey.So(q.Enqueue(ctx, batch("b-2")), convey.ShouldBeNil)

			convey.Convey("Then the save should be retried until it succeeds", func() {
				convey.So(eventually(func() bool { return w.Written() == 1 }), convey.ShouldBeTrue)
				convey.So(writer.callCount("b-2"), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When the store keeps failing", func() {
			var (
				mu     sync.Mutex
				failed []string
			)
			w := worker.NewInMemoryWorker(q, writer,
				worker.WithRetries(1),
				worker.WithRetryDelay(time.Millisecond),
				worker.WithFailureHandler(func(_ context.Context, b model.Batch, err error) {
					mu.Lock()
					defer mu.Unlock()
					failed = append(failed, fmt.Sprintf("%s: %v", b.ID, err))
				}),
			)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)

			writer.failTimes("b-3", 10)
			convey.So(q.Enqueue(ctx, batch("b-3")), convey.ShouldBeNil)

			convey.Convey("Then the failure handler should be called once", func() {
				convey.So(eventually(func() bool { return w.Failed() == 1 }), convey.ShouldBeTrue)
				convey.So(writer.callCount("b-3"), convey.ShouldEqual, 2)
				mu.Lock()
				defer mu.Unlock()
				convey.So(failed, convey.ShouldHaveLength, 1)
				convey.So(failed[0], convey.ShouldContainSubstring, "database unavailable")
			})
		})

		convey.Convey("When shut down", func() {
			w := worker.NewInMemoryWorker(q, writer)
			go w.Run(context.Background())

			convey.Convey("Then Run should return", func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		writer := newMockWriter()
		pool := worker.NewPool(4, q, writer, worker.WithRetryDelay(time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.So(pool.Size(), convey.ShouldEqual, 4)

		convey.Convey("When batches are queued and the pool shuts down", func() {
			for i := 0; i < 50; i++ {
				convey.So(q.Enqueue(ctx, batch(fmt.Sprintf("b-%d", i))), convey.ShouldBeNil)
			}
			err := pool.Shutdown(context.Background())

			convey.Convey("Then every queued batch should be drained first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(writer.savedCount(), convey.ShouldEqual, 50)
				convey.So(pool.Written(), convey.ShouldEqual, 50)
				convey.So(pool.Failed(), convey.ShouldEqual, 0)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool started on a context that is cancelled", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		writer := newMockWriter()
		pool := worker.NewPool(2, q, writer)
		ctx, cancel := context.WithCancel(context.Background())
		pool.Start(ctx)

		convey.Convey("When batches are queued after the cancel", func() {
			cancel()
			for i := 0; i < 30; i++ {
				convey.So(q.Enqueue(context.Background(), batch(fmt.Sprintf("c-%d", i))), convey.ShouldBeNil)
			}
			err := pool.Shutdown(context.Background())

			convey.Convey("Then the workers should still drain them", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(writer.savedCount(), convey.ShouldEqual, 30)
			})
		})
	})

	convey.Convey("Given a pool whose writer never finishes", t, func() {
		_ = logging.Init()

		var (
			mu       sync.Mutex
			failures []error
		)
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		pool := worker.NewPool(1, q, stallingWriter{},
			worker.WithFailureHandler(func(_ context.Context, _ model.Batch, err error) {
				mu.Lock()
				defer mu.Unlock()
				failures = append(failures, err)
			}),
		)
		pool.Start(context.Background())
		for i := 0; i < 10; i++ {
			convey.So(q.Enqueue(context.Background(), batch(fmt.Sprintf("s-%d", i))), convey.ShouldBeNil)
		}

		convey.Convey("When the shutdown deadline passes", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			err := pool.Shutdown(ctx)

			convey.Convey("Then every batch should be reported as failed", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(pool.Failed(), convey.ShouldEqual, 10)
				convey.So(q.Len(context.Background()), convey.ShouldEqual, 0)

				mu.Lock()
				defer mu.Unlock()
				convey.So(failures, convey.ShouldHaveLength, 10)
				abandoned := 0
				for _, f := range failures {
					if errors.Is(f, worker.ErrAbandoned) {
						abandoned++
					}
				}
				convey.So(abandoned, convey.ShouldBeGreaterThan, 0)
			})
		})
	})

	convey.Convey("Given a non-positive worker count", t, func() {
		_ = logging.Init()
		pool := worker.NewPool(0, queue.NewInMemoryQueue(), newMockWriter())

		convey.Convey("Then the default size should be used", func() {
			convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
		})
	})
}
