package memory

import (
	"context"
	"strings"
	"sync"

	"clearance/internal/domain"
	"clearance/internal/ports"
)

// Store keeps raw records in insertion order. It backs sample mode and
// tests.
type Store struct {
	mu    sync.RWMutex
	order []string
	byKey map[string]ports.Record
}

func New(records ...ports.Record) *Store {
	s := &Store{byKey: make(map[string]ports.Record, len(records))}
	_, _ = s.Put(context.Background(), records)
	return s
}

func (s *Store) List(ctx context.Context, limit int) ([]ports.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.order)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]ports.Record, 0, n)
	for _, k := range s.order[:n] {
		out = append(out, s.byKey[k])
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, key string) (ports.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byKey[strings.TrimSpace(key)]
	if !ok {
		return ports.Record{}, domain.ErrNotFound
	}
	return rec, nil
}

// Put inserts or replaces records by key. Records without a key are
// skipped.
func (s *Store) Put(ctx context.Context, records []ports.Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range records {
		r.Key = strings.TrimSpace(r.Key)
		if r.Key == "" {
			continue
		}
		if _, exists := s.byKey[r.Key]; !exists {
			s.order = append(s.order, r.Key)
		}
		s.byKey[r.Key] = r
		n++
	}
	return n, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
