// Package repository persists assessment batches.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/heatcheck/internal/domain/model"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Record is one stored assessment row together with its batch.
type Record struct {
	BatchID string
	model.AssessmentResult
}

// Query filters stored rows. Empty fields match everything; Limit <= 0
// means no limit.
type Query struct {
	Club   string
	Venue  string
	Player string
	Limit  int
}

// Store provides durable access to assessment batches.
type Store interface {
	// Save stores b. An empty b.ID is replaced by a generated one.
	// Failures wrap ErrPersistence; a reused ID wraps ErrDuplicateBatch.
	Save(ctx context.Context, b model.Batch) error

	// Batch returns a stored batch, or ErrNotFound.
	Batch(ctx context.Context, id string) (model.Batch, error)

	// List returns matching rows, most recently stored batch first, rows of
	// one batch in archetype order.
	List(ctx context.Context, q Query) ([]Record, error)

	// Count returns the number of stored batches.
	Count(ctx context.Context) (int, error)

	Close() error
}

// Open returns the store for driver.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (Store, error) {
	switch strings.ToLower(driver) {
	case "", DriverMemory:
		return NewMemoryStore(opts...), nil
	case DriverSQLite, DriverPostgres:
		return NewGormStore(ctx, strings.ToLower(driver), dsn, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

func (q Query) matches(r model.AssessmentResult) bool {
	return (q.Club == "" || strings.EqualFold(q.Club, r.Club)) &&
		(q.Venue == "" || strings.EqualFold(q.Venue, r.Venue)) &&
		(q.Player == "" || strings.EqualFold(q.Player, r.Player))
}
