// Package memory provides an in-memory record.Store for testing and
// lightweight deployments. Records are lost when the process restarts.
// Optional eviction caps memory usage by dropping the oldest records.
package memory

import (
	"container/list"
	"context"
	"sync"

	"github.com/routebind/routebind/pkg/record"
)

// Store is an in-memory record store with optional size-based eviction.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*list.Element
	order   *list.List // front = most recent
	maxSize int        // 0 = unlimited
}

var _ record.Store = (*Store)(nil)

// New creates an in-memory store. If maxSize is 0, the store grows
// without limit; otherwise the oldest record is evicted when the limit
// is reached.
func New(maxSize int) *Store {
	return &Store{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		maxSize: maxSize,
	}
}

// Save persists one record.
func (s *Store) Save(ctx context.Context, rec *record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[rec.ID]; exists {
		return record.ErrConflict
	}

	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		oldest := s.order.Back()
		if oldest != nil {
			evicted := oldest.Value.(*record.Record)
			s.order.Remove(oldest)
			delete(s.entries, evicted.ID)
		}
	}

	s.entries[rec.ID] = s.order.PushFront(rec)
	return nil
}

// Get retrieves a record by request ID.
func (s *Store) Get(ctx context.Context, id string) (*record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	elem, ok := s.entries[id]
	if !ok {
		return nil, record.ErrNotFound
	}
	return elem.Value.(*record.Record), nil
}

// List returns up to limit records, most recent first.
func (s *Store) List(ctx context.Context, limit int) ([]*record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	out := make([]*record.Record, 0, limit)
	for elem := s.order.Front(); elem != nil && len(out) < limit; elem = elem.Next() {
		out = append(out, elem.Value.(*record.Record))
	}
	return out, nil
}

// HealthCheck always succeeds for the in-memory store.
func (s *Store) HealthCheck(ctx context.Context) error { return nil }

// Close releases nothing for the in-memory store.
func (s *Store) Close() error { return nil }
