// Package kv is the key-value abstraction shared by the verdict cache and the
// rate limiter. Redis is the source of truth when configured; the in-process
// store is a per-instance degraded mode.
package kv

import (
	"context"
	"time"
)

// Counter is the post-increment state of a fixed-window counter.
type Counter struct {
	Count int64
	// TTL is the remaining lifetime of the window. Zero means the backing
	// store reported no expiry.
	TTL time.Duration
}

// Store is implemented by RedisStore, MemoryStore, FailoverStore and the
// Prefixed wrapper.
type Store interface {
	// Get returns sentinel.ErrNotFound when key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Incr atomically increments key. The first increment of a window sets
	// its expiry to window; later increments leave the expiry alone.
	Incr(ctx context.Context, key string, window time.Duration) (Counter, error)
}

// Prefixed namespaces every key of an underlying store.
type Prefixed struct {
	store  Store
	prefix string
}

// NewPrefixed returns a store that prepends prefix to every key.
func NewPrefixed(store Store, prefix string) *Prefixed {
	return &Prefixed{store: store, prefix: prefix}
}

func (p *Prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.store.Get(ctx, p.prefix+key)
}

func (p *Prefixed) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return p.store.Set(ctx, p.prefix+key, value, ttl)
}

func (p *Prefixed) Incr(ctx context.Context, key string, window time.Duration) (Counter, error) {
	return p.store.Incr(ctx, p.prefix+key, window)
}
