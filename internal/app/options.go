package service

import (
	"github.com/okian/heatcheck/internal/adapters/repository"
	"github.com/okian/heatcheck/internal/domain/clock"
	"github.com/okian/heatcheck/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithPersistence enables or disables storing assessment batches.
func WithPersistence(enabled bool) Option {
	return func(s *Service) {
		s.persist = enabled
	}
}

// WithStoreDriver selects the store opened on Start: memory, sqlite or
// postgres.
func WithStoreDriver(driver, dsn string) Option {
	return func(s *Service) {
		if driver != "" {
			s.storeDriver = driver
		}
		s.storeDSN = dsn
	}
}

// WithStore supplies an already opened store. Stop leaves it open.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
			s.injected = true
		}
	}
}

// WithWorkerCount sets the number of persistence workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the persistence queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many submission ids are remembered. Zero keeps
// every id.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxListLimit caps the rows returned by List.
func WithMaxListLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxListLimit = limit
		}
	}
}

// WithClock sets the time source for batch ComputedAt.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
