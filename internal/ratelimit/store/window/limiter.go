// Package window implements the fixed-window counter behind every quota.
package window

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rfcheck/internal/platform/kv"
	"rfcheck/internal/ratelimit/models"
	"rfcheck/pkg/requestcontext"
)

// Namespace keeps counters apart from cached verdicts on a shared store.
const Namespace = "ratelimit:v1:"

// Limiter counts requests per key in fixed windows. A window starts on the
// first increment and is never extended, so bursts of up to twice the limit
// are possible across a boundary.
type Limiter struct {
	store kv.Store
}

func New(store kv.Store) (*Limiter, error) {
	if store == nil {
		return nil, errors.New("counter store is required")
	}
	return &Limiter{store: kv.NewPrefixed(store, Namespace)}, nil
}

// CheckAndIncrement counts one request against key and reports whether it
// fits within limit for the current window.
func (l *Limiter) CheckAndIncrement(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %s", window)
	}
	counter, err := l.store.Incr(ctx, key, window)
	if err != nil {
		return nil, fmt.Errorf("increment %q: %w", key, err)
	}

	ttl := counter.TTL
	if ttl <= 0 {
		ttl = window
	}
	resetSeconds := int((ttl + time.Second - 1) / time.Second)

	allowed := counter.Count <= int64(limit)
	remaining := int64(limit) - counter.Count
	if remaining < 0 {
		remaining = 0
	}

	res := &models.Result{
		Allowed:      allowed,
		Limit:        limit,
		Remaining:    int(remaining),
		ResetSeconds: resetSeconds,
		ResetAt:      requestcontext.Now(ctx).Add(ttl),
	}
	if !allowed {
		res.RetryAfter = resetSeconds
	}
	return res, nil
}
