package app

import (
	"sync"

	"interpinfo/internal/domain"
)

// outcome is what a lookup produced: a record or the error that prevented one.
type outcome struct {
	info *domain.Info
	err  error
}

// MemoryCache maps requested executable paths to the outcome of their last
// resolution. Paths are used exactly as given; aliases get their own entries.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]outcome
}

// NewMemoryCache returns a cache pre-seeded with self, keyed by its
// Executable. self may be nil.
func NewMemoryCache(self *domain.Info) *MemoryCache {
	c := &MemoryCache{entries: make(map[string]outcome)}
	if self != nil {
		c.entries[self.Executable] = outcome{info: self}
	}
	return c
}

func (c *MemoryCache) get(exe string) (outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.entries[exe]
	return o, ok
}

func (c *MemoryCache) set(exe string, o outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[exe] = o
}

// Len returns the number of remembered outcomes.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear forgets every outcome, including the seed.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}
