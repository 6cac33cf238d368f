package syncmap

import (
	"sync"
	"sync/atomic"
)

// Map is a type-safe wrapper around sync.Map that keeps track of its size.
type Map[K comparable, V any] struct {
	m    sync.Map
	size atomic.Int64
}

// Load returns the value stored for key.
func (m *Map[K, V]) Load(key K) (value V, ok bool) {
	raw, ok := m.m.Load(key)
	if !ok {
		return value, false
	}

	return raw.(V), true
}

// LoadOrNew returns the value for key, storing the result of newFn when absent.
// newFn may be called even if another caller wins the race.
func (m *Map[K, V]) LoadOrNew(key K, newFn func() V) (value V, loaded bool) {
	if raw, ok := m.m.Load(key); ok {
		return raw.(V), true
	}

	raw, loaded := m.m.LoadOrStore(key, newFn())
	if !loaded {
		m.size.Add(1)
	}

	return raw.(V), loaded
}

// Delete removes key from the map.
func (m *Map[K, V]) Delete(key K) {
	if _, loaded := m.m.LoadAndDelete(key); loaded {
		m.size.Add(-1)
	}
}

// Range calls fn for each entry until fn returns false.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	m.m.Range(func(key, value any) bool {
		return fn(key.(K), value.(V))
	})
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	return int(m.size.Load())
}
