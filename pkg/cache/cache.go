// Package cache stores JSON-encoded read models (produce listing, order
// views) behind a small Store interface with Redis and in-memory backends.
//
// A cache is an optimisation, never a source of truth: Get reports a miss on
// any backend error and callers fall through to the database.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kwanzatukule/marketplace/pkg/metrics"
)

// Store is implemented by every cache backend.
type Store interface {
	// Get unmarshals the value for key into dest and reports a hit.
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Close() error
}

// Remember returns the cached value for key or calls load, caches its result
// for ttl and returns it. A failure to write the cache is ignored.
func Remember[T any](ctx context.Context, s Store, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if s.Get(ctx, key, &cached) {
		return cached, nil
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	_ = s.Set(ctx, key, v, ttl)
	return v, nil
}

func decode(driver string, raw []byte, dest any) bool {
	if err := json.Unmarshal(raw, dest); err != nil {
		metrics.CacheMisses.WithLabelValues(driver).Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues(driver).Inc()
	return true
}
