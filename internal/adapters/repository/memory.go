package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/heatcheck/internal/domain/model"
	"github.com/okian/heatcheck/pkg/metrics"
)

// MemoryStore keeps batches in process memory, in insertion order.
type MemoryStore struct {
	mu      sync.RWMutex
	order   []string // batch ids, oldest first
	batches map[string]model.Batch
	max     int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{
		batches: make(map[string]model.Batch),
		max:     o.maxRecords,
	}
}

func (s *MemoryStore) Save(ctx context.Context, b model.Batch) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.Results = append([]model.AssessmentResult(nil), b.Results...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.batches[b.ID]; ok {
		return fmt.Errorf("%w: %w: %s", ErrPersistence, ErrDuplicateBatch, b.ID)
	}
	s.batches[b.ID] = b
	s.order = append(s.order, b.ID)
	if s.max > 0 && len(s.order) > s.max {
		delete(s.batches, s.order[0])
		s.order = s.order[1:]
	}
	metrics.UpdateStoredRecords(len(s.order))
	return nil
}

func (s *MemoryStore) Batch(_ context.Context, id string) (model.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.batches[id]
	if !ok {
		return model.Batch{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	b.Results = append([]model.AssessmentResult(nil), b.Results...)
	return b, nil
}

func (s *MemoryStore) List(_ context.Context, q Query) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for i := len(s.order) - 1; i >= 0; i-- {
		b := s.batches[s.order[i]]
		for _, r := range b.Results {
			if !q.matches(r) {
				continue
			}
			out = append(out, Record{BatchID: b.ID, AssessmentResult: r})
			if q.Limit > 0 && len(out) == q.Limit {
				return out, nil
			}
		}
	}
	return out, nil
}

func (s *MemoryStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order), nil
}

func (s *MemoryStore) Close() error { return nil }
