package gamenight

import "sync"

// Cache is a single key to value collection guarded by its own lock.
type Cache[K comparable, V any] struct {
	mu     sync.RWMutex
	values map[K]V
}

func (c *Cache[K, V]) Load(key K) (value V, ok bool) {
	c.mu.RLock()
	value, ok = c.values[key]
	c.mu.RUnlock()

	return
}

func (c *Cache[K, V]) Store(key K, value V) {
	c.mu.Lock()

	if c.values == nil {
		c.values = make(map[K]V)
	}

	c.values[key] = value

	c.mu.Unlock()
}

// Delete removes key and returns the previous value. Missing keys are ignored.
func (c *Cache[K, V]) Delete(key K) (value V, ok bool) {
	c.mu.Lock()

	value, ok = c.values[key]
	if ok {
		delete(c.values, key)
	}

	c.mu.Unlock()

	return
}

// Update runs fn on an existing value and stores the result. Nothing happens
// when key is absent.
func (c *Cache[K, V]) Update(key K, fn func(value V) V) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok = c.values[key]
	if !ok {
		return
	}

	value = fn(value)
	c.values[key] = value

	return
}

// Upsert stores the result of fn, which receives the current value if present.
func (c *Cache[K, V]) Upsert(key K, fn func(value V, ok bool) V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.values == nil {
		c.values = make(map[K]V)
	}

	value, ok := c.values[key]
	value = fn(value, ok)
	c.values[key] = value

	return value
}

// DeleteIf removes every entry fn returns true for and returns how many were removed.
func (c *Cache[K, V]) DeleteIf(fn func(key K, value V) bool) (removed int) {
	c.mu.Lock()

	for key, value := range c.values {
		if fn(key, value) {
			delete(c.values, key)
			removed++
		}
	}

	c.mu.Unlock()

	return removed
}

// Range calls fn for each entry until fn returns false. The collection is
// read locked for the duration, so fn must not write to it.
func (c *Cache[K, V]) Range(fn func(key K, value V) bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for key, value := range c.values {
		if !fn(key, value) {
			return
		}
	}
}

func (c *Cache[K, V]) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.values)
}

func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	c.values = nil
	c.mu.Unlock()
}

// DoubleCache is a two key to value collection, such as guild then user,
// guarded by a single lock.
type DoubleCache[KA comparable, KB comparable, V any] struct {
	mu     sync.RWMutex
	values map[KA]map[KB]V
}

func (c *DoubleCache[KA, KB, V]) Load(key KA, subKey KB) (value V, ok bool) {
	c.mu.RLock()
	value, ok = c.values[key][subKey]
	c.mu.RUnlock()

	return
}

func (c *DoubleCache[KA, KB, V]) Store(key KA, subKey KB, value V) {
	c.mu.Lock()
	c.inner(key)[subKey] = value
	c.mu.Unlock()
}

// inner returns the map for key, creating it. Callers must hold the write lock.
func (c *DoubleCache[KA, KB, V]) inner(key KA) map[KB]V {
	if c.values == nil {
		c.values = make(map[KA]map[KB]V)
	}

	inner, ok := c.values[key]
	if !ok {
		inner = make(map[KB]V)
		c.values[key] = inner
	}

	return inner
}

func (c *DoubleCache[KA, KB, V]) Delete(key KA, subKey KB) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inner, found := c.values[key]
	if !found {
		return
	}

	value, ok = inner[subKey]
	if ok {
		delete(inner, subKey)
	}

	return
}

// DeleteKey removes every value stored under key.
func (c *DoubleCache[KA, KB, V]) DeleteKey(key KA) {
	c.mu.Lock()
	delete(c.values, key)
	c.mu.Unlock()
}

func (c *DoubleCache[KA, KB, V]) Upsert(key KA, subKey KB, fn func(value V, ok bool) V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	inner := c.inner(key)

	value, ok := inner[subKey]
	value = fn(value, ok)
	inner[subKey] = value

	return value
}

// Range calls fn for each value under key until fn returns false.
func (c *DoubleCache[KA, KB, V]) Range(key KA, fn func(subKey KB, value V) bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for subKey, value := range c.values[key] {
		if !fn(subKey, value) {
			return
		}
	}
}

// Values returns a copy of every value under key.
func (c *DoubleCache[KA, KB, V]) Values(key KA) []V {
	c.mu.RLock()
	defer c.mu.RUnlock()

	values := make([]V, 0, len(c.values[key]))

	for _, value := range c.values[key] {
		values = append(values, value)
	}

	return values
}

// Count returns the number of values under key.
func (c *DoubleCache[KA, KB, V]) Count(key KA) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.values[key])
}

// TotalCount returns the number of values across every key.
func (c *DoubleCache[KA, KB, V]) TotalCount() (count int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, inner := range c.values {
		count += len(inner)
	}

	return count
}
