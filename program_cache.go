package settings

import "sync"

// ProgramCache stores compiled expression programs keyed by expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MemoryProgramCache is an unbounded, concurrency-safe ProgramCache. Rule
// sets are small and fixed, so entries are never evicted.
type MemoryProgramCache struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewProgramCache returns an empty in-memory cache.
func NewProgramCache() *MemoryProgramCache {
	return &MemoryProgramCache{entries: make(map[string]any)}
}

// Get implements ProgramCache.
func (c *MemoryProgramCache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.entries[key]
	return value, ok
}

// Set implements ProgramCache.
func (c *MemoryProgramCache) Set(key string, value any) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]any)
	}
	c.entries[key] = value
}

// Len reports the number of cached programs.
func (c *MemoryProgramCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// WithProgramCache shares cache between the rules and the default evaluator.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *rulesConfig) {
		cfg.programCache = cache
	}
}
