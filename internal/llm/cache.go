package llm

import (
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/spice-forecast/internal/model"
)

// cacheEntry represents a cached categorization.
type cacheEntry struct {
	expiry time.Time
	result Categorization
}

// categoryCache provides thread-safe caching of categorizations by merchant.
type categoryCache struct {
	entries map[string]cacheEntry
	now     func() time.Time
	ttl     time.Duration
	mu      sync.RWMutex
}

// newCategoryCache creates a new cache with the specified TTL.
func newCategoryCache(ttl time.Duration) *categoryCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &categoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// cacheKey normalizes the merchant so "STARBUCKS #12 " and "starbucks #12" share an entry.
func cacheKey(merchant string, txnType model.TransactionType) string {
	return string(txnType) + "|" + strings.ToLower(strings.Join(strings.Fields(merchant), " "))
}

// get retrieves a categorization if it exists and hasn't expired.
func (c *categoryCache) get(key string) (Categorization, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return Categorization{}, false
	}
	if c.now().After(entry.expiry) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return Categorization{}, false
	}
	return entry.result, true
}

// set stores a categorization in the cache.
func (c *categoryCache) set(key string, result Categorization) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		result: result,
		expiry: c.now().Add(c.ttl),
	}
}

// size returns the number of entries in the cache.
func (c *categoryCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
