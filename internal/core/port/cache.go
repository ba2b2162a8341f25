package port

import (
	"context"
	"time"
)

// FetchFunc loads the live value for a cache key. Values are JSON-encoded
// bytes so the memory and redis implementations behave identically.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Cache is a TTL key/value store with stale fallback: when the live fetch
// fails and any entry exists for the key, even one past its TTL, the entry
// is returned with stale=true instead of the error. The error propagates
// only when there is nothing cached at all.
type Cache interface {
	GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc) (value []byte, stale bool, err error)
	// Invalidate removes all keys matching the glob pattern.
	Invalidate(ctx context.Context, pattern string) error
}
