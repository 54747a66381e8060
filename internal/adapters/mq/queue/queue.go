// Package queue hands computed batches to persistence without blocking the
// request path.
package queue

import (
	"context"
	"sync"

	"github.com/okian/heatcheck/internal/domain/model"
	"github.com/okian/heatcheck/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a batch without blocking. It fails with ErrQueueFull or
	// ErrQueueClosed.
	Enqueue(ctx context.Context, b model.Batch) error

	// Dequeue returns a channel that receives batches as they become
	// available. The channel is closed once the queue is closed and drained,
	// or once ctx ends. A batch taken but not delivered before ctx ended
	// stays in the queue.
	Dequeue(ctx context.Context) <-chan model.Batch

	// Drain removes and returns every batch still held without blocking.
	Drain() []model.Batch

	// Len returns the current number of queued batches.
	Len(ctx context.Context) int

	// Capacity returns the maximum number of queued batches.
	Capacity() int

	// Close stops accepting batches. Already queued batches stay readable.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	batches  chan model.Batch
	capacity int
	mu       sync.RWMutex
	closed   bool
	returned []model.Batch // taken by a cancelled Dequeue, guarded by mu
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.batches = make(chan model.Batch, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)
	return q
}

// Enqueue adds a batch to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, b model.Batch) error { //nolint:gocritic // hugeParam: batch is copied into the channel anyway
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.reject("closed")
		return ErrQueueClosed
	}
	if err := ctx.Err(); err != nil {
		q.reject("context_cancelled")
		return err
	}

	select {
	case q.batches <- b:
		metrics.RecordPersistEnqueued()
		q.observe()
		return nil
	default:
		q.reject("queue_full")
		return ErrQueueFull
	}
}

func (q *InMemoryQueue) reject(reason string) {
	metrics.RecordPersistRejected(reason)
	metrics.RecordErrorByComponent("queue", reason)
}

func (q *InMemoryQueue) observe() {
	size := len(q.batches)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}

// Dequeue returns a channel that will receive batches as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan model.Batch {
	out := make(chan model.Batch)
	go func() {
		defer close(out)
		for ctx.Err() == nil {
			select {
			case <-ctx.Done():
				return
			case b, ok := <-q.batches:
				if !ok {
					return
				}
				select {
				case out <- b:
					q.observe()
				case <-ctx.Done():
					q.giveBack(b)
					return
				}
			}
		}
	}()
	return out
}

func (q *InMemoryQueue) giveBack(b model.Batch) { //nolint:gocritic // hugeParam: batch arrives by value from the channel
	q.mu.Lock()
	defer q.mu.Unlock()
	q.returned = append(q.returned, b)
}

// Drain removes and returns every batch still held without blocking.
func (q *InMemoryQueue) Drain() []model.Batch {
	q.mu.Lock()
	out := q.returned
	q.returned = nil
	q.mu.Unlock()

	for {
		select {
		case b, ok := <-q.batches:
			if !ok {
				q.observe()
				return out
			}
			out = append(out, b)
		default:
			q.observe()
			return out
		}
	}
}

// Len returns the current number of queued batches.
func (q *InMemoryQueue) Len(context.Context) int {
	q.observe()
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.batches) + len(q.returned)
}

// Capacity returns the queue bound.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.batches)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
