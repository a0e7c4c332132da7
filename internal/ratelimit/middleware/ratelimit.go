// Package middleware enforces quotas at the HTTP boundary.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"rfcheck/internal/ratelimit/models"
	"rfcheck/pkg/domain"
	"rfcheck/pkg/platform/httputil"
	"rfcheck/pkg/requestcontext"
)

type RateLimiter interface {
	Check(ctx context.Context, caller domain.Caller, op models.Operation) (*models.Result, error)
}

type Middleware struct {
	limiter  RateLimiter
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (local development).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func New(limiter RateLimiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimit charges the request's caller against op. Limiter failures let the
// request through.
func (m *Middleware) RateLimit(op models.Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			caller := requestcontext.Caller(ctx)

			result, err := m.limiter.Check(ctx, caller, op)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"error", err,
					"caller_kind", caller.Kind,
					"operation", op,
				)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)

			if !result.Allowed {
				writeRateLimitExceeded(w, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// addRateLimitHeaders skips allowlisted results, which carry no limit.
func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	if result == nil || (result.Allowed && result.Limit == 0) {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(result.ResetSeconds))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "You have exceeded your request quota for this operation. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
