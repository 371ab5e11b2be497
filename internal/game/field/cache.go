package field

import "sync"

// Cache holds computed distributions keyed by board size. Readers never
// block writers for long: entries are replaced whole, so a concurrent
// reader sees either the previous or the new distribution, never a partial
// one.
type Cache struct {
	mu      sync.RWMutex
	entries map[int]*Distribution
}

// NewCache creates an empty distribution cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[int]*Distribution)}
}

// Get returns the cached distribution for the board size, if present.
func (c *Cache) Get(size int) (*Distribution, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.entries[size]
	return d, ok
}

// Set stores a freshly computed distribution.
func (c *Cache) Set(d *Distribution) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[d.Size] = d
}

// Invalidate drops every cached distribution. Called after field
// configuration edits; the next Get miss triggers a recompute.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[int]*Distribution)
}
