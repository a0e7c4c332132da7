// Package cache stores verdicts keyed by normalized RFC.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rfcheck/internal/platform/kv"
	"rfcheck/internal/validation/metrics"
	"rfcheck/internal/validation/models"
	"rfcheck/pkg/platform/sentinel"
)

// Namespace keeps cache keys apart from rate-limit counters on a shared store.
const Namespace = "cache:rfc:v1:"

type Cache struct {
	store   kv.Store
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Cache)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New wraps store in the cache namespace.
func New(store kv.Store, ttl time.Duration, opts ...Option) (*Cache, error) {
	if store == nil {
		return nil, errors.New("cache store is required")
	}
	if ttl <= 0 {
		return nil, errors.New("cache ttl must be positive")
	}
	c := &Cache{
		store:  kv.NewPrefixed(store, Namespace),
		ttl:    ttl,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get returns the cached verdict for rfc. Store failures and undecodable
// entries are reported as misses.
func (c *Cache) Get(ctx context.Context, rfc string) (*models.Verdict, bool) {
	raw, err := c.store.Get(ctx, rfc)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			c.logger.WarnContext(ctx, "verdict cache read failed", "error", err)
		}
		c.metrics.IncrementCacheMiss()
		return nil, false
	}
	var v models.Verdict
	if err := json.Unmarshal(raw, &v); err != nil {
		c.logger.WarnContext(ctx, "discarding undecodable cached verdict", "error", err)
		c.metrics.IncrementCacheMiss()
		return nil, false
	}
	c.metrics.IncrementCacheHit()
	return &v, true
}

// Set stores verdict for the configured TTL. Last write wins.
func (c *Cache) Set(ctx context.Context, rfc string, verdict *models.Verdict) error {
	raw, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("encode verdict: %w", err)
	}
	if err := c.store.Set(ctx, rfc, raw, c.ttl); err != nil {
		return fmt.Errorf("store verdict: %w", err)
	}
	return nil
}
