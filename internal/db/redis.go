package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const fingerprintKeyPrefix = "jobhound:fp:"

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// FingerprintCache is a lookaside index from content fingerprint to canonical
// posting id. The catalog remains the source of truth: a hit only short-cuts
// the lookup and is re-verified inside the posting transaction, so a stale or
// unavailable cache can never corrupt resolution.
type FingerprintCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewFingerprintCache(client *redis.Client, ttl time.Duration) *FingerprintCache {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &FingerprintCache{client: client, ttl: ttl}
}

// Lookup returns the cached posting id for a fingerprint. A nil cache, a miss,
// and a Redis error all report !ok.
func (c *FingerprintCache) Lookup(ctx context.Context, fingerprint string) (int64, bool) {
	if c == nil || c.client == nil || fingerprint == "" {
		return 0, false
	}
	id, err := c.client.Get(ctx, fingerprintKeyPrefix+fingerprint).Int64()
	if err != nil {
		return 0, false
	}
	return id, true
}

// Store records a fingerprint -> posting id mapping. Errors are swallowed;
// the cache is best effort.
func (c *FingerprintCache) Store(ctx context.Context, fingerprint string, postingID int64) {
	if c == nil || c.client == nil || fingerprint == "" || postingID <= 0 {
		return
	}
	_ = c.client.Set(ctx, fingerprintKeyPrefix+fingerprint, postingID, c.ttl).Err()
}
