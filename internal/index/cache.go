package index

import (
	"strconv"
	"sync"
)

// RerankCache maps a rerank key to the model scores it produced, keyed by
// candidate position. It grows for the life of the index and is emptied
// only by Clear.
type RerankCache struct {
	mu      sync.Mutex
	entries map[string]map[int]float64
}

// NewRerankCache creates an empty cache.
func NewRerankCache() *RerankCache {
	return &RerankCache{entries: make(map[string]map[int]float64)}
}

// Get returns the cached scores for key.
func (c *RerankCache) Get(key string) (map[int]float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put stores scores under key.
func (c *RerankCache) Put(key string, scores map[int]float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = scores
}

// Len reports the number of cached entries.
func (c *RerankCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry.
func (c *RerankCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

func itoa(n int) string { return strconv.Itoa(n) }
