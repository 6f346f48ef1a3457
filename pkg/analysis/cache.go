package analysis

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of results NewCache keeps when given a
// non-positive size.
const DefaultCacheSize = 64

// Cache keeps recent results keyed by input fingerprint. It is safe for
// concurrent use.
type Cache struct {
	results *lru.Cache[string, *Result]
}

// NewCache creates a cache holding up to size results
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	results, err := lru.New[string, *Result](size)
	if err != nil {
		return nil, err
	}
	return &Cache{results: results}, nil
}

// Get returns the result stored under fingerprint
func (c *Cache) Get(fingerprint string) (*Result, bool) {
	return c.results.Get(fingerprint)
}

// Add stores r under its fingerprint, evicting the oldest entry when full
func (c *Cache) Add(r *Result) {
	c.results.Add(r.Fingerprint, r)
}

// Len returns the number of cached results
func (c *Cache) Len() int {
	return c.results.Len()
}

// Purge empties the cache
func (c *Cache) Purge() {
	c.results.Purge()
}
