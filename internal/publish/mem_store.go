package publish

import (
	"context"
	"sort"
	"sync"
)

// MemStore is an in-memory Store used by tests and dry runs. It records the
// number of writes so tests can assert no-op stability.
type MemStore struct {
	mu        sync.RWMutex
	artifacts map[string][]byte
	putCount  int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{artifacts: make(map[string][]byte)}
}

// Put stores an artifact in memory.
func (m *MemStore) Put(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	m.artifacts[name] = cp
	m.putCount++
	return nil
}

// Get retrieves an artifact by name.
func (m *MemStore) Get(_ context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.artifacts[name]
	if !ok {
		return nil, ErrNotFound{Name: name}
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// Exists checks whether an artifact is present.
func (m *MemStore) Exists(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.artifacts[name]
	return ok, nil
}

// List returns stored artifact names in lexical order.
func (m *MemStore) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.artifacts))
	for name := range m.artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// PutCount returns how many writes the store has received.
func (m *MemStore) PutCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.putCount
}
