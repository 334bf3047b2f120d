// Package store persists execution records: a postgres repository for
// durable history and an in-memory ring for the blotter.
package store

import (
	"context"
	"sync"

	"github.com/quotedesk/rfq-aggregator/business/execution/domain"
)

const defaultMemoryCapacity = 256

// MemoryStore keeps the most recent execution records in memory. It backs
// the blotter and serves as the store when no database is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	results  []*domain.ExecutionResult
	capacity int
}

// NewMemoryStore creates a bounded in-memory store. capacity <= 0 uses the
// default.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &MemoryStore{capacity: capacity}
}

// Record appends the result, evicting the oldest entry when full.
func (s *MemoryStore) Record(ctx context.Context, result *domain.ExecutionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = append(s.results, result)
	if len(s.results) > s.capacity {
		s.results = s.results[len(s.results)-s.capacity:]
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *MemoryStore) Recent(ctx context.Context, limit int) ([]*domain.ExecutionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.results) {
		limit = len(s.results)
	}

	out := make([]*domain.ExecutionResult, 0, limit)
	for i := len(s.results) - 1; i >= len(s.results)-limit; i-- {
		out = append(out, s.results[i])
	}
	return out, nil
}
