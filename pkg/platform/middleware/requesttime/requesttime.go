// Package requesttime pins a single "now" for the lifetime of a request so
// audit events, history records and rate-limit resets agree.
package requesttime

import (
	"net/http"
	"time"

	"rfcheck/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
