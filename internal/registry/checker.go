package registry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rfcheck/pkg/domain"
)

// Checker fetches and parses a registry answer in one call.
type Checker struct {
	client  Client
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

type Option func(*Checker)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Checker) {
		c.metrics = m
	}
}

func NewChecker(client Client, opts ...Option) (*Checker, error) {
	if client == nil {
		return nil, errors.New("registry client is required")
	}
	c := &Checker{client: client, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Check returns the parsed registry Result for rfc. Errors are always
// *ProviderError so callers can read the category.
func (c *Checker) Check(ctx context.Context, rfc domain.RFC) (*Result, error) {
	start := c.now()
	res, err := c.check(ctx, rfc)
	c.metrics.observe(c.now().Sub(start), res, err)
	if err != nil {
		c.logger.WarnContext(ctx, "registry check failed",
			"category", GetCategory(err),
			"retryable", IsRetryable(err),
			"error", err,
		)
	}
	return res, err
}

func (c *Checker) check(ctx context.Context, rfc domain.RFC) (*Result, error) {
	raw, err := c.client.Fetch(ctx, rfc)
	if err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) {
			return nil, err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewProviderError(ErrorTimeout, providerID, "registry request timed out", err)
		}
		return nil, NewProviderError(ErrorProviderOutage, providerID, "registry call failed", err)
	}
	return Parse(raw)
}
