// Package service wires the heat-balance engine to metrics and asynchronous
// persistence and provides the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	batchqueue "github.com/okian/heatcheck/internal/adapters/mq/queue"
	workerpool "github.com/okian/heatcheck/internal/adapters/mq/worker"
	repository "github.com/okian/heatcheck/internal/adapters/repository"
	"github.com/okian/heatcheck/internal/domain/archetype"
	"github.com/okian/heatcheck/internal/domain/clock"
	"github.com/okian/heatcheck/internal/domain/dedupe"
	"github.com/okian/heatcheck/internal/domain/heat"
	"github.com/okian/heatcheck/internal/domain/model"
	"github.com/okian/heatcheck/internal/domain/types"
	"github.com/okian/heatcheck/pkg/logger"
	"github.com/okian/heatcheck/pkg/metrics"
)

// Persistence statuses reported with every assessment.
const (
	PersistQueued    = "queued"
	PersistDuplicate = "duplicate"
	PersistDisabled  = "disabled"
	PersistRejected  = "rejected"
)

const (
	defaultWorkerCount  = 2
	defaultQueueSize    = 1024
	defaultDedupeSize   = 10000
	defaultMaxListLimit = 500
	stopTimeout         = 10 * time.Second
)

// Persistence describes what happened to the batch on the way to the store.
type Persistence struct {
	Status string
	Error  string
}

// Outcome is the result of one assessment request.
type Outcome struct {
	BatchID     string // empty when persistence is disabled or rejected
	Results     []model.AssessmentResult
	Persistence Persistence
	Warnings    []string
}

// Service implements the API dependencies for heat-stress assessment.
type Service struct {
	mu sync.RWMutex

	// Core components
	engine  *heat.Engine
	store   repository.Store
	deduper dedupe.Deduper
	queue   batchqueue.Queue
	pool    *workerpool.Pool
	clock   clock.Clock

	// Configuration
	persist      bool
	storeDriver  string
	storeDSN     string
	workerCount  int
	queueSize    int
	dedupeSize   int
	maxListLimit int
	injected     bool // store supplied by WithStore, not closed on Stop

	// State
	started     bool
	assessments atomic.Int64
	degenerate  atomic.Int64
	rejected    atomic.Int64
	duplicates  atomic.Int64
	failed      atomic.Int64
	lastFailure atomic.Value // string

	logger logger.Logger
}

// New constructs a Service around engine.
func New(engine *heat.Engine, opts ...Option) *Service {
	s := &Service{
		engine:       engine,
		clock:        clock.System(),
		persist:      true,
		storeDriver:  repository.DriverMemory,
		workerCount:  defaultWorkerCount,
		queueSize:    defaultQueueSize,
		dedupeSize:   defaultDedupeSize,
		maxListLimit: defaultMaxListLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.lastFailure.Store("")
	metrics.UpdateArchetypeCount(engine.Table().Len())
	return s
}

// Start opens the store and starts the persistence workers. The workers
// keep running after ctx ends, until Stop. With persistence disabled it only
// marks the service started.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.persist {
		if s.store == nil {
			store, err := repository.Open(ctx, s.storeDriver, s.storeDSN)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			s.store = store
		}
		s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
		s.queue = batchqueue.NewInMemoryQueue(batchqueue.WithCapacity(s.queueSize))
		s.pool = workerpool.NewPool(s.workerCount, s.queue, s.store,
			workerpool.WithFailureHandler(s.persistFailureHandler(s.deduper)),
		)
		s.pool.Start(ctx)
	}

	s.started = true
	s.logger.Info(ctx, "assessment service started",
		logger.Bool("persist", s.persist),
		logger.String("store", s.storeName()),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("archetypes", s.engine.Table().Len()),
	)
	return nil
}

// Stop drains queued batches and closes the store. Batches still queued when
// ctx or the drain timeout expires are counted as persistence failures.
// Safe to call twice.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping assessment service...")

	var errs []error
	if s.pool != nil {
		stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
		errs = append(errs, s.pool.Shutdown(stopCtx))
		cancel()
	}
	if s.store != nil && !s.injected {
		errs = append(errs, s.store.Close())
		s.store = nil
	}
	s.pool, s.queue, s.deduper = nil, nil, nil

	s.started = false
	s.logger.Info(ctx, "assessment service stopped")
	return errors.Join(errs...)
}

// Assess runs the engine and hands the result set to persistence. The
// results are returned regardless of the persistence outcome.
func (s *Service) Assess(ctx context.Context, in model.EnvironmentInput, submissionID string) Outcome {
	start := time.Now()
	results := s.engine.Assess(in)
	metrics.RecordAssessment(thresholdSet(in.Gender), float64(time.Since(start).Microseconds())/1000)
	s.assessments.Add(1)

	out := Outcome{Results: results}
	for _, r := range results {
		if r.Degenerate {
			s.degenerate.Add(1)
			metrics.RecordDegenerate(r.Player)
			out.Warnings = append(out.Warnings, types.DegenerateWarning(r.Player))
			s.logger.Warn(ctx, "degenerate heat balance",
				logger.String("player", r.Player),
				logger.Float64("air_temp", in.AirTempC),
				logger.Float64("globe_temp", in.GlobeTempC),
				logger.Float64("humidity", in.HumidityPct),
				logger.Float64("air_speed", in.AirSpeedMS),
			)
			continue
		}
		metrics.RecordClassification(r.Player, string(r.Assessment))
		metrics.ObserveHSI(r.Player, r.HSI)
		metrics.ObserveSweatRate(r.Player, r.SweatRateLHr)
	}

	out.BatchID, out.Persistence = s.persistBatch(ctx, in, submissionID, results)
	if out.Persistence.Error != "" {
		out.Warnings = append(out.Warnings, "results were not saved: "+out.Persistence.Error)
	}
	return out
}

func (s *Service) persistBatch(ctx context.Context, in model.EnvironmentInput, submissionID string, results []model.AssessmentResult) (string, Persistence) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started || s.queue == nil {
		return "", Persistence{Status: PersistDisabled}
	}

	batchID := uuid.NewString()
	if submissionID != "" {
		if original, seen := s.deduper.Claim(ctx, submissionID, batchID); seen {
			s.duplicates.Add(1)
			metrics.RecordPersistDuplicate()
			s.logger.Debug(ctx, "duplicate submission, not stored again",
				logger.String("submission_id", submissionID),
				logger.String("batch_id", original),
			)
			return original, Persistence{Status: s.claimStatus(ctx, original)}
		}
	}

	b := model.Batch{
		ID:           batchID,
		SubmissionID: submissionID,
		Input:        in,
		Results:      results,
		ComputedAt:   s.clock.Now(),
	}
	if err := s.queue.Enqueue(ctx, b); err != nil {
		if submissionID != "" {
			s.deduper.Release(ctx, submissionID)
		}
		s.rejected.Add(1)
		s.logger.Warn(ctx, "batch not queued for persistence",
			logger.String("batch_id", batchID),
			logger.Error(err),
		)
		return "", Persistence{Status: PersistRejected, Error: err.Error()}
	}
	return batchID, Persistence{Status: PersistQueued}
}

// claimStatus reports duplicate only once the original batch is stored.
// Until then the original is still on its way and may yet fail, in which
// case its claim is released and a retry is stored afresh.
func (s *Service) claimStatus(ctx context.Context, batchID string) string {
	if _, err := s.store.Batch(ctx, batchID); err != nil {
		return PersistQueued
	}
	return PersistDuplicate
}

// persistFailureHandler runs on worker goroutines after a batch exhausted
// its retries. The submission id is released so a client retry can store it.
// It must not take s.mu: Stop holds it while waiting for the workers.
func (s *Service) persistFailureHandler(d dedupe.Deduper) workerpool.FailureHandler {
	return func(ctx context.Context, b model.Batch, err error) {
		s.failed.Add(1)
		s.lastFailure.Store(err.Error())
		if b.SubmissionID != "" {
			d.Release(ctx, b.SubmissionID)
		}
	}
}

// Explain returns the stage breakdown for every archetype.
func (s *Service) Explain(_ context.Context, in model.EnvironmentInput) []heat.Breakdown {
	return s.engine.Explain(in)
}

// Archetypes returns the archetype table in evaluation order.
func (s *Service) Archetypes() []archetype.PlayerArchetype {
	return s.engine.Table().All()
}

// Thresholds returns the male and female tier tables.
func (s *Service) Thresholds() map[string][]heat.Threshold {
	return map[string][]heat.Threshold{
		strings.ToLower(model.GenderMale):   heat.ThresholdsFor(model.GenderMale),
		strings.ToLower(model.GenderFemale): heat.ThresholdsFor(model.GenderFemale),
	}
}

// Batch returns a stored batch.
func (s *Service) Batch(ctx context.Context, id string) (model.Batch, error) {
	store, err := s.readStore()
	if err != nil {
		return model.Batch{}, err
	}
	return store.Batch(ctx, id)
}

// List returns stored rows. The limit is clamped to the configured maximum.
func (s *Service) List(ctx context.Context, q repository.Query) ([]repository.Record, error) {
	store, err := s.readStore()
	if err != nil {
		return nil, err
	}
	if q.Limit <= 0 || q.Limit > s.maxListLimit {
		q.Limit = s.maxListLimit
	}
	return store.List(ctx, q)
}

func (s *Service) readStore() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.persist {
		return nil, ErrPersistenceDisabled
	}
	if !s.started || s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":            s.started,
		"persist":            s.persist,
		"storeDriver":        s.storeName(),
		"archetypes":         s.engine.Table().Len(),
		"timezone":           s.engine.Location().String(),
		"assessments":        s.assessments.Load(),
		"degenerateResults":  s.degenerate.Load(),
		"persistRejected":    s.rejected.Load(),
		"persistDuplicates":  s.duplicates.Load(),
		"persistFailed":      s.failed.Load(),
		"lastPersistFailure": s.lastFailure.Load(),
		"dedupeLimit":        s.dedupeSize,
	}

	if s.started && s.persist {
		stats["workerCount"] = s.pool.Size()
		stats["queueLength"] = s.queue.Len(ctx)
		stats["queueCapacity"] = s.queue.Capacity()
		stats["dedupeSize"] = s.deduper.Size()
		stats["persistWritten"] = s.pool.Written()
		if n, err := s.store.Count(ctx); err == nil {
			stats["storedBatches"] = n
			metrics.UpdateStoredRecords(n)
		}
	}
	return stats
}

// storeName names the store for logs and stats.
func (s *Service) storeName() string {
	if s.injected {
		return fmt.Sprintf("injected(%T)", s.store)
	}
	return s.storeDriver
}

func thresholdSet(gender string) string {
	if model.IsMale(gender) {
		return "male"
	}
	return "female"
}
