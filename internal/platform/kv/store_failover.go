package kv

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rfcheck/pkg/platform/circuit"
	"rfcheck/pkg/platform/sentinel"
)

// FailoverStore serves from primary while it is healthy and from fallback
// otherwise. A circuit breaker stops hammering an unreachable primary and
// tries it again after the cooldown.
//
// One FailoverStore, and therefore one fallback map, is shared process-wide
// by every namespace. Counters kept in the fallback are per instance.
type FailoverStore struct {
	primary  Store
	fallback Store
	breaker  *circuit.Breaker
	logger   *slog.Logger
	metrics  *Metrics
}

type FailoverOption func(*FailoverStore)

func WithLogger(logger *slog.Logger) FailoverOption {
	return func(s *FailoverStore) {
		s.logger = logger
	}
}

func WithMetrics(m *Metrics) FailoverOption {
	return func(s *FailoverStore) {
		s.metrics = m
	}
}

func NewFailoverStore(primary, fallback Store, breaker *circuit.Breaker, opts ...FailoverOption) (*FailoverStore, error) {
	if primary == nil {
		return nil, errors.New("primary store is required")
	}
	if fallback == nil {
		return nil, errors.New("fallback store is required")
	}
	if breaker == nil {
		return nil, errors.New("circuit breaker is required")
	}
	s := &FailoverStore{
		primary:  primary,
		fallback: fallback,
		breaker:  breaker,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics.setDegraded(false)
	return s, nil
}

// Degraded reports whether the breaker is open.
func (s *FailoverStore) Degraded() bool {
	return s.breaker.IsOpen()
}

func (s *FailoverStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.breaker.AllowPrimary() {
		val, err := s.primary.Get(ctx, key)
		if err == nil || errors.Is(err, sentinel.ErrNotFound) {
			s.onSuccess(ctx)
			return val, err
		}
		s.onFailure(ctx, "get", err)
	}
	s.metrics.recordFallback("get")
	return s.fallback.Get(ctx, key)
}

func (s *FailoverStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.breaker.AllowPrimary() {
		err := s.primary.Set(ctx, key, value, ttl)
		if err == nil {
			s.onSuccess(ctx)
			return nil
		}
		s.onFailure(ctx, "set", err)
	}
	s.metrics.recordFallback("set")
	return s.fallback.Set(ctx, key, value, ttl)
}

func (s *FailoverStore) Incr(ctx context.Context, key string, window time.Duration) (Counter, error) {
	if s.breaker.AllowPrimary() {
		c, err := s.primary.Incr(ctx, key, window)
		if err == nil {
			s.onSuccess(ctx)
			return c, nil
		}
		s.onFailure(ctx, "incr", err)
	}
	s.metrics.recordFallback("incr")
	return s.fallback.Incr(ctx, key, window)
}

func (s *FailoverStore) onSuccess(ctx context.Context) {
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.metrics.setDegraded(false)
		s.logger.InfoContext(ctx, "shared store recovered, leaving degraded mode",
			"breaker", s.breaker.Name(),
		)
	}
}

func (s *FailoverStore) onFailure(ctx context.Context, op string, err error) {
	s.metrics.recordPrimaryFailure()
	_, change := s.breaker.RecordFailure()
	if change.Opened {
		s.metrics.setDegraded(true)
		s.logger.WarnContext(ctx, "shared store unavailable, serving from in-process fallback; rate limits are not globally enforced",
			"breaker", s.breaker.Name(),
			"op", op,
			"error", err,
		)
		return
	}
	s.logger.DebugContext(ctx, "shared store operation failed", "op", op, "error", err)
}
