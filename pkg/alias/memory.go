package alias

import (
	"context"
	"sync"
)

// MemStore is an in-process Store. It is the default backend for the
// session scope and the store of choice in tests.
type MemStore struct {
	mu    sync.RWMutex
	table Table
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{table: Table{}}
}

func (s *MemStore) Load(_ context.Context) (Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Clone(), nil
}

func (s *MemStore) Save(_ context.Context, t Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = t.Clone()
	return nil
}

var _ Store = (*MemStore)(nil)
