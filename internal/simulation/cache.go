package simulation

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

// Cache stores engine results keyed by the full input tuple.
// Implementations must treat entries as immutable: insert or evict whole entries only.
type Cache interface {
	Get(key string) (*Results, bool)
	Add(key string, r *Results)
}

// LRUCache is a size-bounded Cache.
type LRUCache struct {
	entries *lru.Cache
}

// NewLRUCache creates a cache holding at most size results.
func NewLRUCache(size int) (*LRUCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &LRUCache{entries: c}, nil
}

// Get returns a private copy of the cached results.
func (c *LRUCache) Get(key string) (*Results, bool) {
	v, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*Results).clone(), true
}

// Add stores a private copy of r.
func (c *LRUCache) Add(key string, r *Results) {
	c.entries.Add(key, r.clone())
}

// Len returns the number of cached entries.
func (c *LRUCache) Len() int {
	return c.entries.Len()
}

// Purge drops every entry.
func (c *LRUCache) Purge() {
	c.entries.Purge()
}

var _ Cache = (*LRUCache)(nil)
