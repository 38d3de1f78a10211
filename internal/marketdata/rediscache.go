package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/finwatch/finwatch-backend/internal/models"
)

// ResponseCache is an optional Redis-backed second-level cache for
// assembled market data responses, shared across instances. The
// in-process freshness cache stays authoritative for fetch outcomes;
// this layer only short-circuits response assembly. All errors are
// surfaced to the caller to log and ignore.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResponseCache wraps a Redis client with a TTL for cached responses
func NewResponseCache(client *redis.Client, ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResponseCache{client: client, ttl: ttl}
}

func responseKey(symbol string, rangeDays int) string {
	return fmt.Sprintf("md:%s:%d", symbol, rangeDays)
}

// Get returns the cached response for (symbol, rangeDays), or found=false
// on a miss.
func (c *ResponseCache) Get(ctx context.Context, symbol string, rangeDays int) (*models.MarketData, bool, error) {
	data, err := c.client.Get(ctx, responseKey(symbol, rangeDays)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var md models.MarketData
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached response: %w", err)
	}
	return &md, true, nil
}

// Set stores a response under (symbol, rangeDays) with the configured TTL
func (c *ResponseCache) Set(ctx context.Context, symbol string, rangeDays int, md *models.MarketData) error {
	data, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	if err := c.client.Set(ctx, responseKey(symbol, rangeDays), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
