package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"adpilot/internal/core/port"
	"adpilot/internal/metrics"
)

// staleRetention bounds how long an expired entry stays available for
// stale fallback before Redis evicts it.
const staleRetention = 24 * time.Hour

const keyPrefix = "adpilot:cache:"

type redisEntry struct {
	Value     json.RawMessage `json:"v"`
	ExpiresAt time.Time       `json:"exp"`
}

// Redis implements the cache port on a Redis instance. TTL expiry is
// tracked inside the stored envelope rather than with Redis TTLs, so an
// expired entry survives for stale fallback until staleRetention passes.
type Redis struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedis wraps an existing Redis client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, now: time.Now}
}

// GetOrFetch mirrors Memory.GetOrFetch against Redis.
func (r *Redis) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch port.FetchFunc) ([]byte, bool, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	var cached *redisEntry
	raw, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if err == nil {
		var e redisEntry
		if jsonErr := json.Unmarshal(raw, &e); jsonErr == nil {
			cached = &e
		}
	}

	now := r.now()
	if cached != nil && now.Before(cached.ExpiresAt) {
		metrics.RecordCacheRead("hit")
		return cached.Value, false, nil
	}

	value, err := fetch(ctx)
	if err != nil {
		if cached != nil {
			metrics.RecordCacheRead("stale")
			return cached.Value, true, nil
		}
		metrics.RecordCacheRead("miss")
		return nil, false, err
	}

	payload, err := json.Marshal(redisEntry{Value: value, ExpiresAt: now.Add(ttl)})
	if err == nil {
		// Best effort: a failed store still returns the fresh value.
		r.client.Set(ctx, keyPrefix+key, payload, staleRetention)
	}
	metrics.RecordCacheRead("miss")
	return value, false, nil
}

// Invalidate removes all keys matching the glob pattern using SCAN.
func (r *Redis) Invalidate(ctx context.Context, pattern string) error {
	iter := r.client.Scan(ctx, 0, keyPrefix+pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
