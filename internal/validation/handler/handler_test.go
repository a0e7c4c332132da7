package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"rfcheck/internal/audit"
	"rfcheck/internal/history"
	"rfcheck/internal/platform/kv"
	"rfcheck/internal/registry"
	"rfcheck/internal/validation/cache"
	"rfcheck/internal/validation/models"
	"rfcheck/internal/validation/service"
	"rfcheck/pkg/domain"
	"rfcheck/pkg/testutil"
)

// =============================================================================
// Validation Handler Test Suite
// =============================================================================
// Justification for handler tests: the HTTP boundary decides whether a
// refresh is honored and what gets recorded. The real orchestrator runs over
// the mock registry so the verdict bodies are the ones clients see.

type countingClient struct {
	registry.Client
	calls atomic.Int32
}

func (c *countingClient) Fetch(ctx context.Context, rfc domain.RFC) (*registry.RawResponse, error) {
	c.calls.Add(1)
	return c.Client.Fetch(ctx, rfc)
}

type recordingAuditor struct {
	mu     sync.Mutex
	events []audit.Event
}

func (a *recordingAuditor) Emit(_ context.Context, event audit.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

type HandlerSuite struct {
	suite.Suite
	client  *countingClient
	history *history.InMemoryStore
	auditor *recordingAuditor
	router  http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.client = &countingClient{Client: registry.NewMockClient(0, []string{"GODE561231GR8"})}
	checker, err := registry.NewChecker(s.client, registry.WithLogger(logger))
	s.Require().NoError(err)
	verdicts, err := cache.New(kv.NewMemoryStore(), time.Hour, cache.WithLogger(logger))
	s.Require().NoError(err)
	svc, err := service.New(checker, verdicts, service.WithLogger(logger))
	s.Require().NoError(err)

	s.history = history.NewInMemoryStore(10)
	s.auditor = &recordingAuditor{}
	r := chi.NewRouter()
	New(svc, s.history, s.auditor, logger).Register(r)
	s.router = r
}

func (s *HandlerSuite) post(body any, decorate ...func(*http.Request) *http.Request) *models.Verdict {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/validate", body)
	for _, d := range decorate {
		req = d(req)
	}
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	return testutil.UnmarshalResponse[models.Verdict](s.T(), rr)
}

// =============================================================================
// POST /validate
// =============================================================================

func (s *HandlerSuite) TestValidate_LiveThenCached() {
	first := s.post(map[string]any{"rfc": " xaxx010101000 "})
	s.True(first.Success)
	s.True(first.IsValid())
	s.Equal("XAXX010101000", first.RFC)
	s.Equal(models.SourceLive, first.Source)
	s.False(first.Cached)

	second := s.post(map[string]any{"rfc": "XAXX010101000"})
	s.True(second.Cached)
	s.Equal(models.SourceCache, second.Source)
	s.EqualValues(1, s.client.calls.Load())
}

func (s *HandlerSuite) TestValidate_NotRegisteredIsAnAnswer() {
	v := s.post(map[string]any{"rfc": "GODE561231GR8"})
	s.True(v.Success)
	s.Require().NotNil(v.Valid)
	s.False(*v.Valid)
}

func (s *HandlerSuite) TestValidate_InvalidFormatSkipsRegistry() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/validate", map[string]any{"rfc": "ABC"})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.JSONEq(`{"success":false,"valid":false,"rfc":"ABC","message":"invalid format","cached":false}`, rr.Body.String())
	s.Zero(s.client.calls.Load())
}

func (s *HandlerSuite) TestValidate_BodyValidation() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/validate", map[string]any{}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")

	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/validate", map[string]any{"rfc": strings.Repeat("A", 65)}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")

	req := testutil.NewRequest(s.T(), http.MethodPost, "/validate")
	req.Body = io.NopCloser(strings.NewReader("{not json"))
	rr = testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
}

func (s *HandlerSuite) TestValidate_AnonymousForceRefreshIgnored() {
	s.post(map[string]any{"rfc": "XAXX010101000"})
	v := s.post(map[string]any{"rfc": "XAXX010101000", "forceRefresh": true})

	s.True(v.Cached)
	s.EqualValues(1, s.client.calls.Load())
}

func (s *HandlerSuite) TestValidate_IdentifiedForceRefreshHonored() {
	userID := uuid.NewString()
	asUser := func(r *http.Request) *http.Request { return testutil.WithUserID(r, userID) }

	s.post(map[string]any{"rfc": "XAXX010101000"}, asUser)
	v := s.post(map[string]any{"rfc": "XAXX010101000", "forceRefresh": true}, asUser)

	s.False(v.Cached)
	s.Equal(models.SourceLive, v.Source)
	s.EqualValues(2, s.client.calls.Load())
}

// =============================================================================
// History and audit
// =============================================================================

func (s *HandlerSuite) TestValidate_RecordsHistoryForIdentifiedOnly() {
	userID := uuid.NewString()
	s.post(map[string]any{"rfc": "XAXX010101000"})
	s.post(map[string]any{"rfc": "XEXX010101000"}, func(r *http.Request) *http.Request { return testutil.WithUserID(r, userID) })

	recs, err := s.history.ListByCaller(context.Background(), userID, 10)
	s.Require().NoError(err)
	s.Require().Len(recs, 1)
	s.Equal("XEXX010101000", recs[0].RFC)

	s.Require().Len(s.auditor.events, 2)
	s.Equal(audit.ActionRFCValidated, s.auditor.events[1].Action)
	s.Equal(domain.CallerUser, s.auditor.events[1].CallerKind)
	s.Equal("valid", s.auditor.events[1].Decision)
}

// =============================================================================
// GET /rfc/{rfc}
// =============================================================================

func (s *HandlerSuite) TestLookup_PathParam() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/rfc/xaxx010101000"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	v := testutil.UnmarshalResponse[models.Verdict](s.T(), rr)
	s.Equal("XAXX010101000", v.RFC)
	s.True(v.IsValid())
}

func (s *HandlerSuite) TestLookup_EscapedPathParam() {
	for name, path := range map[string]string{
		"escaped space":         "/rfc/XAXX%20010101000",
		"non-canonical escapes": "/rfc/%58AXX010101%30%30%30",
	} {
		s.Run(name, func() {
			rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, path))
			testutil.AssertStatus(s.T(), rr, http.StatusOK)
			v := testutil.UnmarshalResponse[models.Verdict](s.T(), rr)
			s.Equal("XAXX010101000", v.RFC)
			s.True(v.IsValid(), v.Message)
		})
	}
}

func (s *HandlerSuite) TestLookup_ForceQueryForIdentifiedCaller() {
	keyID, owner := uuid.NewString(), uuid.NewString()
	for range 2 {
		req := testutil.WithAPIKey(testutil.NewRequest(s.T(), http.MethodGet, "/rfc/XAXX010101000?force=true"), keyID, owner)
		testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req), http.StatusOK)
	}
	s.EqualValues(2, s.client.calls.Load())
}
