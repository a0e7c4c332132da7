package httptransport

import (
	"context"
	"net/http"
	"time"

	"rfcheck/pkg/platform/httputil"
)

const healthCheckTimeout = 2 * time.Second

// HealthChecker is a dependency that can report reachability.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthCheckFunc adapts a function to HealthChecker.
type HealthCheckFunc func(ctx context.Context) error

func (f HealthCheckFunc) Health(ctx context.Context) error {
	return f(ctx)
}

// HealthResponse is the body of GET /health. The service answers from its
// fallbacks when a dependency is down, so an unhealthy dependency degrades
// the status without failing the check.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		for name, check := range checks {
			if check == nil {
				resp.Checks[name] = "disabled"
				continue
			}
			if err := check.Health(ctx); err != nil {
				resp.Checks[name] = "down"
				resp.Status = "degraded"
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}
