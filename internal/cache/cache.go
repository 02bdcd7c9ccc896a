package cache

import "sync"

// Cache creates each value at most once and keeps it until Drain.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]V
	order   []K
	release func(K, V)

	hits, misses uint64
}

// New creates an empty cache. release may be nil.
func New[K comparable, V any](release func(K, V)) *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]V),
		release: release,
	}
}

// GetOrCreate returns the cached value or creates it.
// create is called under the lock, so concurrent callers never create the
// same key twice. A failed create caches nothing.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.entries[key]; ok {
		c.hits++
		return v, nil
	}
	c.misses++

	value, err := create()
	if err != nil {
		var zero V
		return zero, err
	}
	c.entries[key] = value
	c.order = append(c.order, key)
	return value, nil
}

// Drain removes all entries and releases them, newest first.
func (c *Cache[K, V]) Drain() {
	c.mu.Lock()
	entries, order := c.entries, c.order
	c.entries = make(map[K]V)
	c.order = nil
	c.mu.Unlock()

	if c.release == nil {
		return
	}
	for i := len(order) - 1; i >= 0; i-- {
		c.release(order[i], entries[order[i]])
	}
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{Len: len(c.entries), Hits: c.hits, Misses: c.misses}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// Stats contains cache statistics.
type Stats struct {
	Len     int
	Hits    uint64
	Misses  uint64
	HitRate float64
}
