package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfcheck/internal/apikeys"
	"rfcheck/internal/audit"
	"rfcheck/internal/platform/config"
	id "rfcheck/pkg/domain"
	"rfcheck/pkg/requestcontext"
	"rfcheck/pkg/testutil"
)

type recordingAuditor struct {
	mu     sync.Mutex
	events []audit.Event
}

func (a *recordingAuditor) Emit(_ context.Context, event audit.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

type fixture struct {
	mw      *Middleware
	keys    *apikeys.Service
	tokens  *TokenService
	auditor *recordingAuditor
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	keys, err := apikeys.New(apikeys.NewInMemoryStore(), apikeys.WithLogger(logger))
	require.NoError(t, err)
	tokens, err := NewTokenService(config.AuthConfig{JWTSigningKey: "test-signing-key"})
	require.NoError(t, err)
	auditor := &recordingAuditor{}
	return fixture{
		mw:      New(keys, logger, WithTokenVerifier(tokens), WithAuditPublisher(auditor)),
		keys:    keys,
		tokens:  tokens,
		auditor: auditor,
	}
}

// captureCaller records the caller the downstream handler observed.
func captureCaller(out *id.Caller) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*out = requestcontext.Caller(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestIdentify(t *testing.T) {
	f := newFixture(t)

	t.Run("no credentials is anonymous by client IP", func(t *testing.T) {
		var caller id.Caller
		req := testutil.WithClientIP(testutil.NewRequest(t, http.MethodGet, "/"), "203.0.113.7")
		rr := testutil.DoRequest(f.mw.Identify(captureCaller(&caller)), req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Equal(t, id.AnonymousCaller("203.0.113.7"), caller)
	})

	t.Run("bearer token is a user", func(t *testing.T) {
		userID := id.UserID(uuid.New())
		token, err := f.tokens.GenerateAccessToken(userID, time.Hour)
		require.NoError(t, err)

		var caller id.Caller
		req := testutil.NewRequest(t, http.MethodGet, "/")
		req.Header.Set("Authorization", "Bearer "+token)
		rr := testutil.DoRequest(f.mw.Identify(captureCaller(&caller)), req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Equal(t, id.CallerUser, caller.Kind)
		assert.Equal(t, userID.String(), caller.ID)
		assert.Equal(t, userID, caller.OwnerID)
	})

	t.Run("api key wins over bearer", func(t *testing.T) {
		owner := id.UserID(uuid.New())
		issued, err := f.keys.Issue(context.Background(), owner, "svc")
		require.NoError(t, err)

		var caller id.Caller
		req := testutil.NewRequest(t, http.MethodGet, "/")
		req.Header.Set(APIKeyHeader, issued.Plaintext)
		req.Header.Set("Authorization", "Bearer garbage")
		rr := testutil.DoRequest(f.mw.Identify(captureCaller(&caller)), req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Equal(t, id.CallerAPIKey, caller.Kind)
		assert.Equal(t, issued.ID.String(), caller.ID)
		assert.Equal(t, owner, caller.OwnerID)
	})

	t.Run("invalid credentials are rejected and audited", func(t *testing.T) {
		before := len(f.auditor.events)
		for _, set := range []func(*http.Request){
			func(r *http.Request) { r.Header.Set(APIKeyHeader, "rfk_unknownunknownunknown") },
			func(r *http.Request) { r.Header.Set("Authorization", "Bearer not-a-jwt") },
			func(r *http.Request) { r.Header.Set("Authorization", "Basic dXNlcjpwYXNz") },
		} {
			req := testutil.NewRequest(t, http.MethodGet, "/")
			set(req)
			rr := testutil.DoRequest(f.mw.Identify(http.NotFoundHandler()), req)
			testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
		}
		require.Len(t, f.auditor.events, before+3)
		assert.Equal(t, audit.ActionAuthFailed, f.auditor.events[before].Action)
	})
}

func TestIdentify_BearerDisabled(t *testing.T) {
	mw := New(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	req := testutil.NewRequest(t, http.MethodGet, "/")
	req.Header.Set("Authorization", "Bearer anything")

	rr := testutil.DoRequest(mw.Identify(http.NotFoundHandler()), req)

	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
}

func TestRequireIdentifiedAndUser(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	userID := uuid.NewString()

	tests := []struct {
		name         string
		decorate     func(*http.Request) *http.Request
		identified   int
		userRequired int
	}{
		{"anonymous", func(r *http.Request) *http.Request { return r }, http.StatusUnauthorized, http.StatusUnauthorized},
		{"user", func(r *http.Request) *http.Request { return testutil.WithUserID(r, userID) }, http.StatusNoContent, http.StatusNoContent},
		{"api key", func(r *http.Request) *http.Request { return testutil.WithAPIKey(r, uuid.NewString(), userID) }, http.StatusNoContent, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := testutil.DoRequest(RequireIdentified(ok), tt.decorate(testutil.NewRequest(t, http.MethodGet, "/")))
			testutil.AssertStatus(t, rr, tt.identified)

			rr = testutil.DoRequest(RequireUser(ok), tt.decorate(testutil.NewRequest(t, http.MethodGet, "/")))
			testutil.AssertStatus(t, rr, tt.userRequired)
		})
	}
}
