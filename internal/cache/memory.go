// Package cache provides the engine's TTL cache with stale fallback. Two
// implementations exist: an in-process map (the default) and a Redis-backed
// variant for multi-instance deployments. Both keep expired entries around
// so a failed live fetch can still be served stale.
package cache

import (
	"context"
	"path"
	"sync"
	"time"

	"adpilot/internal/core/port"
	"adpilot/internal/metrics"
)

// DefaultTTL is applied when callers pass a non-positive TTL.
const DefaultTTL = 300 * time.Second

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process cache safe for concurrent use. Writes are
// last-write-wins, which is sufficient for the engine's status keys.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemory returns an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry), now: time.Now}
}

// GetOrFetch returns the cached value when unexpired, otherwise calls fetch
// and stores the result. When fetch fails and any entry exists, even one
// past its TTL, that entry is returned with stale=true; the error
// propagates only when nothing is cached.
func (m *Memory) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch port.FetchFunc) ([]byte, bool, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	m.mu.Lock()
	e, ok := m.entries[key]
	now := m.now()
	m.mu.Unlock()

	if ok && now.Before(e.expiresAt) {
		metrics.RecordCacheRead("hit")
		return e.value, false, nil
	}

	value, err := fetch(ctx)
	if err != nil {
		if ok {
			metrics.RecordCacheRead("stale")
			return e.value, true, nil
		}
		metrics.RecordCacheRead("miss")
		return nil, false, err
	}

	m.mu.Lock()
	m.entries[key] = entry{value: value, expiresAt: now.Add(ttl)}
	m.mu.Unlock()
	metrics.RecordCacheRead("miss")
	return value, false, nil
}

// Invalidate removes every key matching the glob pattern.
func (m *Memory) Invalidate(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
		}
	}
	return nil
}
