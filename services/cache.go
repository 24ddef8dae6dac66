package services

import (
	"sync"
	"time"
)

// MarketDataCache provides TTL-based caching of provider fetch results,
// keyed by symbol and data type. It belongs to the caller of the valuation
// core, never to the core functions themselves, which stay pure.
type MarketDataCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	value    any
	storedAt time.Time
}

// Data types used as cache keys alongside the symbol.
const (
	CacheTypeQuote   = "quote"
	CacheTypeSummary = "summary"
	CacheTypeHistory = "history"
)

// NewMarketDataCache creates a cache with the given TTL. A TTL of 0
// effectively disables caching.
func NewMarketDataCache(ttl time.Duration) *MarketDataCache {
	return &MarketDataCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func cacheKey(symbol, dataType string) string {
	return symbol + "\x00" + dataType
}

// Get returns the cached value for a symbol and data type, if present and
// within TTL.
func (c *MarketDataCache) Get(symbol, dataType string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[cacheKey(symbol, dataType)]
	if !ok || time.Since(entry.storedAt) >= c.ttl {
		return nil, false
	}
	return entry.value, true
}

// Set stores a value for a symbol and data type.
func (c *MarketDataCache) Set(symbol, dataType string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(symbol, dataType)] = cacheEntry{value: value, storedAt: time.Now()}
}

// Invalidate removes a single cached entry.
func (c *MarketDataCache) Invalidate(symbol, dataType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(symbol, dataType))
}

// InvalidateSymbol removes all cached entries for a symbol.
func (c *MarketDataCache) InvalidateSymbol(symbol string) {
	prefix := symbol + "\x00"
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
		}
	}
}

// CleanExpired removes entries past their TTL and returns how many were
// dropped.
func (c *MarketDataCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if time.Since(entry.storedAt) >= c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries currently held, expired or not.
func (c *MarketDataCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// TTL returns the cache's time-to-live duration.
func (c *MarketDataCache) TTL() time.Duration {
	return c.ttl
}
