// Package httptransport assembles the public HTTP surface.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rfcheck/internal/apikeys"
	"rfcheck/internal/auth"
	"rfcheck/internal/bulk"
	"rfcheck/internal/history"
	"rfcheck/internal/platform/metrics"
	"rfcheck/internal/platform/middleware"
	ratelimitmw "rfcheck/internal/ratelimit/middleware"
	ratelimitModels "rfcheck/internal/ratelimit/models"
	validationhandler "rfcheck/internal/validation/handler"
	"rfcheck/pkg/platform/middleware/metadata"
	"rfcheck/pkg/platform/middleware/requesttime"
)

// APIPrefix is the versioned mount point of every business route.
const APIPrefix = "/api/v1"

// Dependencies are the handlers and middleware the router mounts. Nil
// handlers leave their routes unmounted.
type Dependencies struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	TrustProxy     bool
	RequestTimeout time.Duration
	// BulkTimeout replaces RequestTimeout on the bulk route.
	BulkTimeout time.Duration

	Identity  *auth.Middleware
	RateLimit *ratelimitmw.Middleware

	Validation *validationhandler.Handler
	Bulk       *bulk.Handler
	History    *history.Handler
	APIKeys    *apikeys.Handler

	// HealthChecks are reported by GET /health. A nil checker reports as
	// disabled.
	HealthChecks map[string]HealthChecker
}

// NewRouter wires the middleware chain and every route group.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(metadata.ClientMetadata(deps.TrustProxy))
	r.Use(requesttime.Middleware)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(deps.Metrics.Middleware)
	r.Use(chimw.Recoverer)

	requestTimeout := timeout(deps.RequestTimeout)
	r.Group(func(g chi.Router) {
		g.Use(requestTimeout)
		g.Get("/health", healthHandler(deps.HealthChecks))
		g.Handle("/metrics", promhttp.Handler())
	})

	r.Route(APIPrefix, func(api chi.Router) {
		api.Use(deps.Identity.Identify)

		if deps.Validation != nil {
			api.Group(func(g chi.Router) {
				g.Use(requestTimeout)
				g.Use(deps.RateLimit.RateLimit(ratelimitModels.OperationValidate))
				deps.Validation.Register(g)
			})
		}
		if deps.Bulk != nil {
			api.Group(func(g chi.Router) {
				g.Use(timeout(deps.BulkTimeout))
				g.Use(auth.RequireIdentified)
				g.Use(deps.RateLimit.RateLimit(ratelimitModels.OperationBulk))
				deps.Bulk.Register(g)
			})
		}
		if deps.History != nil {
			api.Group(func(g chi.Router) {
				g.Use(requestTimeout)
				g.Use(auth.RequireIdentified)
				deps.History.Register(g)
			})
		}
		if deps.APIKeys != nil {
			api.Group(func(g chi.Router) {
				g.Use(requestTimeout)
				g.Use(auth.RequireUser)
				deps.APIKeys.Register(g)
			})
		}
	})
	return r
}

// timeout bounds the request context; d <= 0 leaves it unbounded.
func timeout(d time.Duration) func(http.Handler) http.Handler {
	if d <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return chimw.Timeout(d)
}
