// Package services holds the marketplace use cases. Services talk to the
// store only through app/repositories and report failures as apperr kinds.
package services

import (
	"context"
	"time"

	"github.com/kwanzatukule/marketplace/pkg/cache"
	"github.com/kwanzatukule/marketplace/pkg/logger"
)

// EventBus is the slice of *event.Dispatcher the services publish through.
type EventBus interface {
	FireAsync(ctx context.Context, event string, payload any)
}

// TokenIssuer is satisfied by *auth.Issuer.
type TokenIssuer interface {
	Issue(userID uint, role string) (string, error)
}

// Cache keys shared with the listeners that invalidate them.
const (
	ProduceListKey = "produce:all"
	orderKeyPrefix = "order:"
)

const (
	produceListTTL = time.Minute
	orderViewTTL   = 10 * time.Minute
)

type nopBus struct{}

func (nopBus) FireAsync(context.Context, string, any) {}

// remember is cache.Remember that tolerates a nil store.
func remember[T any](ctx context.Context, s cache.Store, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if s == nil {
		return load(ctx)
	}
	return cache.Remember(ctx, s, key, ttl, load)
}

// forget drops keys. A failure leaves stale entries until their TTL runs
// out, so it is logged rather than returned.
func forget(ctx context.Context, s cache.Store, keys ...string) {
	if s == nil {
		return
	}
	if err := s.Del(ctx, keys...); err != nil {
		logger.WithCtx(ctx).Warn("cache invalidation failed", "keys", keys, "error", err)
	}
}
