package provider

import (
	"context"
	"sort"
	"sync"
)

// Memory is a map-backed provider for tests and examples. It lets cache tests
// control exactly what the "database" holds without standing one up.
type Memory[T any] struct {
	mu   sync.RWMutex
	data map[string]T
}

var (
	_ Provider[struct{}]    = (*Memory[struct{}])(nil)
	_ BulkFetcher[struct{}] = (*Memory[struct{}])(nil)
	_ Counter               = (*Memory[struct{}])(nil)
	_ AllFetcher[struct{}]  = (*Memory[struct{}])(nil)
)

func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{data: make(map[string]T)}
}

// Insert adds or replaces an entity under id.
func (m *Memory[T]) Insert(id string, v T) {
	m.mu.Lock()
	m.data[id] = v
	m.mu.Unlock()
}

// Remove deletes the entity under id, if any.
func (m *Memory[T]) Remove(id string) {
	m.mu.Lock()
	delete(m.data, id)
	m.mu.Unlock()
}

// Clear drops all entities. Useful for resetting state between test cases.
func (m *Memory[T]) Clear() {
	m.mu.Lock()
	m.data = make(map[string]T)
	m.mu.Unlock()
}

func (m *Memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *Memory[T]) FetchByID(_ context.Context, id string) (*T, error) {
	m.mu.RLock()
	v, ok := m.data[id]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (m *Memory[T]) FetchByIDs(_ context.Context, ids []string) ([]*T, error) {
	out := make([]*T, len(ids))
	m.mu.RLock()
	for i, id := range ids {
		if v, ok := m.data[id]; ok {
			vv := v
			out[i] = &vv
		}
	}
	m.mu.RUnlock()
	return out, nil
}

func (m *Memory[T]) Count(context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.data)), nil
}

// FetchAll returns all entities in id order for deterministic iteration.
func (m *Memory[T]) FetchAll(context.Context) ([]*T, error) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		v := m.data[id]
		out = append(out, &v)
	}
	m.mu.RUnlock()
	return out, nil
}
