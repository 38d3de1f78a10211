package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type countingFetcher struct {
	calls  int
	result *Result
	err    error
}

func (f *countingFetcher) fetch(ctx context.Context, symbol string) (*Result, error) {
	f.calls++
	return f.result, f.err
}

func TestFreshnessCacheReturnsCachedSuccess(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewFreshnessCache(60*time.Second, clock.Now)
	fetcher := &countingFetcher{result: resultWithBars(1)}

	first, err := cache.GetOrFetch(context.Background(), "AAPL", fetcher.fetch)
	require.NoError(t, err)

	clock.Advance(30 * time.Second)
	second, err := cache.GetOrFetch(context.Background(), "AAPL", fetcher.fetch)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, fetcher.calls, "fetch within the TTL window must not re-invoke")
}

func TestFreshnessCacheCachesFailures(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewFreshnessCache(60*time.Second, clock.Now)
	fetcher := &countingFetcher{err: errors.New("all providers down")}

	_, err := cache.GetOrFetch(context.Background(), "AAPL", fetcher.fetch)
	require.Error(t, err)

	clock.Advance(59 * time.Second)
	_, err = cache.GetOrFetch(context.Background(), "AAPL", fetcher.fetch)
	require.Error(t, err)

	assert.Equal(t, 1, fetcher.calls, "cached failure must suppress repeat fetches")
}

func TestFreshnessCacheExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewFreshnessCache(60*time.Second, clock.Now)
	fetcher := &countingFetcher{result: resultWithBars(1)}

	_, err := cache.GetOrFetch(context.Background(), "AAPL", fetcher.fetch)
	require.NoError(t, err)

	clock.Advance(61 * time.Second)
	_, err = cache.GetOrFetch(context.Background(), "AAPL", fetcher.fetch)
	require.NoError(t, err)

	assert.Equal(t, 2, fetcher.calls, "entry past the TTL must be refreshed")
}

func TestFreshnessCacheKeysAreIndependent(t *testing.T) {
	cache := NewFreshnessCache(60*time.Second, nil)
	fetcher := &countingFetcher{result: resultWithBars(1)}

	_, _ = cache.GetOrFetch(context.Background(), "AAPL", fetcher.fetch)
	_, _ = cache.GetOrFetch(context.Background(), "MSFT", fetcher.fetch)

	assert.Equal(t, 2, fetcher.calls)
	assert.Equal(t, 2, cache.Len())
}

func TestFreshnessCacheDefaultsTTL(t *testing.T) {
	cache := NewFreshnessCache(0, nil)
	assert.Equal(t, DefaultCacheTTL, cache.ttl)
}
