// Package dedupe tracks client submission ids so that a retried submission
// is persisted at most once.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 10000

// Deduper maps submission ids to the batch they were first stored as.
type Deduper interface {
	// Claim records submissionID as batchID unless it was already claimed.
	// When it was, the original batch id is returned with seen=true.
	Claim(ctx context.Context, submissionID, batchID string) (original string, seen bool)

	// Release forgets submissionID so that a later retry may claim it again.
	// Used when a claimed batch could not be handed to persistence.
	Release(ctx context.Context, submissionID string)

	Size() int64
}

type claim struct {
	submissionID string
	batchID      string
}

// inMemoryDeduper keeps claims in a map. In bounded mode a ring of ids in
// claim order evicts the oldest claim once maxSize is reached.
type inMemoryDeduper struct {
	mu      sync.Mutex
	batches map[string]string
	ring    []claim // claim order, bounded mode only
	next    int      // ring slot for the next claim
	maxSize int      // <= 0 means unbounded
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.batches = make(map[string]string)
	if d.maxSize > 0 {
		d.ring = make([]claim, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) Claim(_ context.Context, submissionID, batchID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if original, ok := d.batches[submissionID]; ok {
		return original, true
	}

	if d.maxSize > 0 {
		// The slot's claim is gone if it was released or re-claimed since.
		if old := d.ring[d.next]; old.submissionID != "" {
			if current, live := d.batches[old.submissionID]; live && current == old.batchID {
				delete(d.batches, old.submissionID)
				d.size.Add(-1)
			}
		}
		d.ring[d.next] = claim{submissionID: submissionID, batchID: batchID}
		d.next = (d.next + 1) % d.maxSize
	}
	d.batches[submissionID] = batchID
	d.size.Add(1)
	return batchID, false
}

func (d *inMemoryDeduper) Release(_ context.Context, submissionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.batches[submissionID]; ok {
		delete(d.batches, submissionID)
		d.size.Add(-1)
	}
}

// Size returns the current number of claims held.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
