// Package worker drains the persistence queue into the assessment store.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/heatcheck/internal/domain/model"
	"github.com/okian/heatcheck/pkg/logger"
	"github.com/okian/heatcheck/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount    = 2
	defaultRetries        = 2
	defaultRetryDelay     = 100 * time.Millisecond
	poolShutdownTimeout   = 30 * time.Second
	forceStopGrace        = 5 * time.Second
	metricsUpdateInterval = 5 * time.Second
)

// Writer stores a batch.
type Writer interface {
	Save(ctx context.Context, b model.Batch) error
}

// Queue defines how workers receive batches.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Batch
}

// drainer is implemented by queues that can hand back what is left after a
// forced stop.
type drainer interface {
	Drain() []model.Batch
}

// FailureHandler is told about batches that could not be stored after all
// retries.
type FailureHandler func(ctx context.Context, b model.Batch, err error)

// Worker persists batches read from a queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, Shutdown is called
	// or the queue is closed and drained.
	Run(ctx context.Context)

	// Shutdown stops the worker without draining the queue.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue      Queue
	writer     Writer
	name       string
	retries    int
	retryDelay time.Duration
	onFailure  FailureHandler

	written atomic.Int64
	failed  atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, writer Writer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      queue,
		writer:     writer,
		name:       "worker",
		retries:    defaultRetries,
		retryDelay: defaultRetryDelay,
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop. Batches the worker receives after it was told
// to stop go to the failure handler as ErrAbandoned.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	ctx, stop := context.WithCancel(ctx)
	batches := w.queue.Dequeue(ctx)
	defer func() {
		stop()
		for b := range batches {
			w.logger.Warn(ctx, "batch abandoned", logger.String("batch_id", b.ID))
			_ = w.fail(ctx, b, ErrAbandoned)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case b, ok := <-batches:
			if !ok {
				return
			}
			if err := w.process(ctx, b); err != nil {
				w.logger.Error(ctx, "batch not persisted",
					logger.String("batch_id", b.ID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Written returns the number of batches this worker stored.
func (w *InMemoryWorker) Written() int64 { return w.written.Load() }

// Failed returns the number of batches this worker gave up on.
func (w *InMemoryWorker) Failed() int64 { return w.failed.Load() }

// process stores one batch, retrying transient failures.
func (w *InMemoryWorker) process(ctx context.Context, b model.Batch) error { //nolint:gocritic // hugeParam: batch arrives by value from the channel
	start := time.Now()
	defer func() {
		latency := float64(time.Since(start).Milliseconds())
		metrics.RecordWorkerProcessingLatency(latency)
		metrics.RecordPersistLatency(latency)
	}()

	err := w.writer.Save(ctx, b)
	for attempt := 1; err != nil && attempt <= w.retries && ctx.Err() == nil; attempt++ {
		select {
		case <-ctx.Done():
		case <-time.After(w.retryDelay * time.Duration(attempt)):
			w.logger.Debug(ctx, "retrying batch", logger.String("batch_id", b.ID), logger.Int("attempt", attempt))
			err = w.writer.Save(ctx, b)
		}
	}
	if err == nil {
		w.written.Add(1)
		metrics.RecordPersistWritten()
		return nil
	}

	return w.fail(ctx, b, err)
}

// fail records a batch that will not be stored.
func (w *InMemoryWorker) fail(ctx context.Context, b model.Batch, err error) error { //nolint:gocritic // hugeParam: batch arrives by value from the channel
	if w.onFailure != nil {
		w.onFailure(ctx, b, err)
	}
	w.failed.Add(1)
	metrics.RecordPersistFailure()
	metrics.RecordWorkerError()
	metrics.RecordErrorByComponent("worker", "persist_error")
	metrics.RecordErrorByType("persist_error", "medium")
	return fmt.Errorf("persist batch %s: %w", b.ID, err)
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	cancel  context.CancelFunc // ends the workers' run context

	shutdown     chan struct{}
	shutdownOnce sync.Once

	logger logger.Logger
}

// NewPool creates a new worker pool. Worker options apply to every worker.
func NewPool(workerCount int, queue Queue, writer Writer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(queue, writer, workerOpts...)
	}

	metrics.UpdateWorkerActiveCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Written returns the number of batches stored by all workers.
func (p *Pool) Written() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Written()
	}
	return n
}

// Failed returns the number of batches all workers gave up on.
func (p *Pool) Failed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Failed()
	}
	return n
}

// Start starts all workers in the pool. The workers outlive ctx: they stop
// on Shutdown, so a cancelled request or signal context cannot strand
// queued batches.
func (p *Pool) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancel = cancel
	for _, w := range p.workers {
		go w.Run(runCtx)
	}
	go p.startMetricsUpdater(runCtx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			running := 0
			for _, w := range p.workers {
				select {
				case <-w.done:
				default:
					running++
				}
			}
			metrics.UpdateWorkerActiveCount(running)
		}
	}
}

// Shutdown closes the queue, lets workers drain what is already queued and
// waits for them. When ctx or the pool timeout expires first, the workers
// are cancelled and every batch still queued goes to the failure handler as
// ErrAbandoned.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	p.shutdownOnce.Do(func() { close(p.shutdown) })
	defer p.stopRunning()

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	drained := true
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			drained = false
		}
		if !drained {
			break
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	if drained {
		return nil
	}

	p.logger.Warn(ctx, "drain timed out, stopping workers")
	p.stopRunning()
	graceCtx, graceCancel := context.WithTimeout(context.Background(), forceStopGrace)
	defer graceCancel()
	for i, w := range p.workers {
		if err := w.Shutdown(graceCtx); err != nil {
			p.logger.Warn(ctx, "worker did not stop", logger.Int("worker_id", i), logger.Error(err))
		}
	}
	if abandoned := p.abandon(ctx); abandoned > 0 {
		p.logger.Error(ctx, "batches abandoned at shutdown", logger.Int("count", abandoned))
	}
	return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
}

func (p *Pool) stopRunning() {
	if p.cancel != nil {
		p.cancel()
	}
}

// abandon fails every batch the queue still holds.
func (p *Pool) abandon(ctx context.Context) int {
	d, ok := p.queue.(drainer)
	if !ok {
		return 0
	}
	left := d.Drain()
	for i, b := range left {
		_ = p.workers[i%len(p.workers)].fail(ctx, b, ErrAbandoned)
	}
	return len(left)
}
