// Package auth resolves who is calling. It only delegates: API keys are
// resolved by the key service and bearer tokens by a verifier. A request
// without credentials proceeds as an anonymous caller.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"rfcheck/internal/apikeys"
	"rfcheck/internal/audit"
	id "rfcheck/pkg/domain"
	dErrors "rfcheck/pkg/domain-errors"
	"rfcheck/pkg/platform/httputil"
	"rfcheck/pkg/requestcontext"
)

// APIKeyHeader carries an issued API key.
const APIKeyHeader = "X-API-Key"

type KeyResolver interface {
	Resolve(ctx context.Context, plaintext string) (*apikeys.Key, error)
}

type TokenVerifier interface {
	Verify(token string) (id.UserID, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

type Middleware struct {
	keys    KeyResolver
	tokens  TokenVerifier
	logger  *slog.Logger
	auditor AuditPublisher
}

type Option func(*Middleware)

// WithTokenVerifier enables bearer tokens. Without one, any Authorization
// header is rejected.
func WithTokenVerifier(v TokenVerifier) Option {
	return func(m *Middleware) {
		m.tokens = v
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(m *Middleware) {
		m.auditor = publisher
	}
}

func New(keys KeyResolver, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{keys: keys, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Identify attaches the resolved caller to the request context. A presented
// but invalid credential is rejected with 401; it never downgrades to
// anonymous.
func (m *Middleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)

		if key := strings.TrimSpace(r.Header.Get(APIKeyHeader)); key != "" {
			resolved, err := m.resolveKey(ctx, key)
			if err != nil {
				m.reject(ctx, w, "api_key", err)
				return
			}
			ctx = requestcontext.WithUserID(ctx, resolved.OwnerID)
			ctx = requestcontext.WithAPIKeyID(ctx, resolved.ID)
			ctx = requestcontext.WithCaller(ctx, id.Caller{
				Kind:    id.CallerAPIKey,
				ID:      resolved.ID.String(),
				OwnerID: resolved.OwnerID,
				IP:      ip,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		if header := r.Header.Get("Authorization"); header != "" {
			userID, err := m.verifyBearer(header)
			if err != nil {
				m.reject(ctx, w, "bearer", err)
				return
			}
			ctx = requestcontext.WithUserID(ctx, userID)
			ctx = requestcontext.WithCaller(ctx, id.Caller{
				Kind:    id.CallerUser,
				ID:      userID.String(),
				OwnerID: userID,
				IP:      ip,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		ctx = requestcontext.WithCaller(ctx, id.AnonymousCaller(ip))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) resolveKey(ctx context.Context, key string) (*apikeys.Key, error) {
	if m.keys == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "api keys are not accepted")
	}
	return m.keys.Resolve(ctx, key)
}

func (m *Middleware) verifyBearer(header string) (id.UserID, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header")
	}
	if m.tokens == nil {
		return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "bearer tokens are not accepted")
	}
	return m.tokens.Verify(strings.TrimSpace(token))
}

func (m *Middleware) reject(ctx context.Context, w http.ResponseWriter, scheme string, err error) {
	requestID := requestcontext.RequestID(ctx)
	if !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
		m.logger.ErrorContext(ctx, "failed to resolve credential", "scheme", scheme, "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	m.logger.WarnContext(ctx, "unauthorized access - invalid credential",
		"scheme", scheme,
		"error", err,
		"request_id", requestID,
	)
	if m.auditor != nil {
		m.auditor.Emit(ctx, audit.Event{
			Action:     audit.ActionAuthFailed,
			CallerKind: id.CallerAnonymous,
			CallerID:   requestcontext.ClientIP(ctx),
			Reason:     scheme,
			Decision:   "denied",
		})
	}
	httputil.WriteError(w, err)
}

// RequireIdentified rejects anonymous callers.
func RequireIdentified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !requestcontext.Caller(r.Context()).Identified() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser admits bearer-token users only.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch requestcontext.Caller(r.Context()).Kind {
		case id.CallerUser:
			next.ServeHTTP(w, r)
		case id.CallerAPIKey:
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "this operation requires a user token"))
		default:
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		}
	})
}
