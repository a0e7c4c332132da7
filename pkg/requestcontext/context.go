// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services and stores read them without pulling
// in net/http.
//
//	userID := requestcontext.UserID(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Tests inject values directly:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "rfcheck/pkg/domain"
)

type (
	userIDKey      struct{}
	apiKeyIDKey    struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
	callerKey      struct{}
)

// -----------------------------------------------------------------------------
// Caller identity
// -----------------------------------------------------------------------------

// Caller returns the resolved caller. Without one, the request is treated as
// anonymous from its client IP.
func Caller(ctx context.Context) id.Caller {
	if v, ok := ctx.Value(callerKey{}).(id.Caller); ok {
		return v
	}
	return id.AnonymousCaller(ClientIP(ctx))
}

// WithCaller stores the resolved caller.
func WithCaller(ctx context.Context, caller id.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// UserID returns the authenticated user, or the zero value for anonymous callers.
func UserID(ctx context.Context) id.UserID {
	if v, ok := ctx.Value(userIDKey{}).(id.UserID); ok {
		return v
	}
	return id.UserID{}
}

func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// APIKeyID returns the API key the request authenticated with, if any.
func APIKeyID(ctx context.Context) id.APIKeyID {
	if v, ok := ctx.Value(apiKeyIDKey{}).(id.APIKeyID); ok {
		return v
	}
	return id.APIKeyID{}
}

func WithAPIKeyID(ctx context.Context, keyID id.APIKeyID) context.Context {
	return context.WithValue(ctx, apiKeyIDKey{}, keyID)
}

// -----------------------------------------------------------------------------
// Client metadata
// -----------------------------------------------------------------------------

func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey{}).(string); ok {
		return v
	}
	return ""
}

func UserAgent(ctx context.Context) string {
	if v, ok := ctx.Value(userAgentKey{}).(string); ok {
		return v
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	return context.WithValue(ctx, userAgentKey{}, userAgent)
}

// -----------------------------------------------------------------------------
// Request tracing and time
// -----------------------------------------------------------------------------

func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now returns the request-scoped time, falling back to time.Now when the
// request time middleware has not run.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
