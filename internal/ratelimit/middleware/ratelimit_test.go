package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfcheck/internal/platform/config"
	"rfcheck/internal/platform/kv"
	"rfcheck/internal/ratelimit/models"
	"rfcheck/internal/ratelimit/service"
	"rfcheck/internal/ratelimit/store/window"
	"rfcheck/pkg/domain"
	"rfcheck/pkg/requestcontext"
)

type failingLimiter struct{}

func (failingLimiter) Check(context.Context, domain.Caller, models.Operation) (*models.Result, error) {
	return nil, errors.New("store down")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func newRealLimiter(t *testing.T, anonLimit int) *service.Service {
	t.Helper()
	l, err := window.New(kv.NewMemoryStore())
	require.NoError(t, err)
	svc, err := service.New(l, service.PoliciesFromConfig(config.RateLimitConfig{
		AnonymousValidate: anonLimit,
		ValidateWindow:    time.Hour,
	}), service.WithLogger(discard()))
	require.NoError(t, err)
	return svc
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func anonRequest(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/validate", nil)
	ctx := requestcontext.WithCaller(req.Context(), domain.AnonymousCaller(ip))
	return req.WithContext(ctx)
}

func TestRateLimit(t *testing.T) {
	t.Run("headers on allowed and denied requests", func(t *testing.T) {
		h := New(newRealLimiter(t, 2), discard()).RateLimit(models.OperationValidate)(okHandler())

		for want := 1; want >= 0; want-- {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, anonRequest("203.0.113.7"))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
			assert.Equal(t, strconv.Itoa(want), rec.Header().Get("X-RateLimit-Remaining"))
			assert.Equal(t, "3600", rec.Header().Get("X-RateLimit-Reset"))
			assert.Empty(t, rec.Header().Get("Retry-After"))
		}

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, anonRequest("203.0.113.7"))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, "3600", rec.Header().Get("Retry-After"))

		var body models.RateLimitExceededResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "rate_limit_exceeded", body.Error)
		assert.Equal(t, 3600, body.RetryAfter)
	})

	t.Run("separate callers have separate windows", func(t *testing.T) {
		h := New(newRealLimiter(t, 1), discard()).RateLimit(models.OperationValidate)(okHandler())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, anonRequest("203.0.113.7"))
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, anonRequest("198.51.100.1"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("limiter error fails open", func(t *testing.T) {
		h := New(failingLimiter{}, discard()).RateLimit(models.OperationValidate)(okHandler())
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, anonRequest("203.0.113.7"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	})

	t.Run("disabled skips the limiter", func(t *testing.T) {
		h := New(failingLimiter{}, discard(), WithDisabled(true)).RateLimit(models.OperationBulk)(okHandler())
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, anonRequest("203.0.113.7"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
