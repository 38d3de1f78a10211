package marketdata

import (
	"context"
	"sync"
	"time"
)

// DefaultCacheTTL is how long a fetch outcome stays fresh
const DefaultCacheTTL = 60 * time.Second

type cacheEntry struct {
	at     time.Time
	result *Result
	err    error
}

// FreshnessCache remembers the outcome of the last fetch per symbol for
// a fixed TTL. Failures are cached too, so a provider that is down is
// not hammered by repeat requests. The cache is process-local and purely
// an optimization; a cold start always re-fetches.
type FreshnessCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

// NewFreshnessCache creates a cache with an injected clock so expiry is
// deterministic under test. A nil clock means time.Now.
func NewFreshnessCache(ttl time.Duration, now func() time.Time) *FreshnessCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &FreshnessCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

// GetOrFetch returns the cached outcome for key when its age is under
// the TTL, success or failure alike. Otherwise it calls fetch, stores
// the outcome with the current timestamp, and returns it.
//
// The lock is not held across fetch: concurrent misses for the same key
// may fetch redundantly. That stampede is accepted; downstream upserts
// are idempotent.
func (c *FreshnessCache) GetOrFetch(ctx context.Context, key string, fetch func(context.Context, string) (*Result, error)) (*Result, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Sub(e.at) < c.ttl {
		c.mu.Unlock()
		return e.result, e.err
	}
	c.mu.Unlock()

	result, err := fetch(ctx, key)

	c.mu.Lock()
	c.entries[key] = cacheEntry{at: c.now(), result: result, err: err}
	c.mu.Unlock()

	return result, err
}

// Len reports the number of cached entries, fresh or stale
func (c *FreshnessCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
