package store

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps records in a map. Contents are lost on restart.
type MemoryStore struct {
	// records maps namespaced keys to values.
	records map[string][]byte
	// mu protects records.
	mu sync.RWMutex
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]byte),
	}
}

// Get returns a copy of the record.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.records[recordKey(key)]
	if !ok {
		return nil, ErrNotFound
	}

	return slices.Clone(value), nil
}

// Put stores a copy of value.
func (s *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[recordKey(key)] = append([]byte{}, value...)

	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
