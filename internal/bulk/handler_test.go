package bulk

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfcheck/internal/audit"
	"rfcheck/internal/denylist"
	"rfcheck/internal/validation/models"
	"rfcheck/pkg/testutil"
)

type stubValidator struct{}

func (stubValidator) Validate(_ context.Context, req models.Request) *models.Verdict {
	return &models.Verdict{Success: true, Valid: models.Bool(true), RFC: strings.ToUpper(req.RFC)}
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

func newTestRouter(t *testing.T, maxItems int, maxFileBytes int64, auditor AuditPublisher) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner, err := NewRunner(stubValidator{}, denylist.NewInMemoryStore(denylist.SeedEntries...), maxItems, WithLogger(logger))
	require.NoError(t, err)
	h := NewHandler(runner, Extractor{MinLength: 10}, maxFileBytes, logger, auditor)
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func TestHandleBulk(t *testing.T) {
	t.Run("returns one row per candidate in order", func(t *testing.T) {
		auditor := &recordingAuditor{}
		router := newTestRouter(t, 5000, 1<<20, auditor)
		csv := "GODE561231GR8\nEFO010101AB1\nshort\nxaxx010101000\n"

		req := testutil.NewMultipartRequest(t, "/bulk", FormField, "batch.csv", []byte(csv))
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[Response](t, rr)
		assert.True(t, resp.Success)
		require.Equal(t, 3, resp.Count)
		assert.Equal(t, "GODE561231GR8", resp.Results[0].RFC)
		assert.Equal(t, denylist.StatusClean, resp.Results[0].BlacklistStatus)
		assert.Equal(t, denylist.StatusEFO, resp.Results[1].BlacklistStatus)
		assert.Equal(t, "XAXX010101000", resp.Results[2].RFC)

		require.Len(t, auditor.events, 1)
		assert.Equal(t, audit.ActionBulkValidated, auditor.events[0].Action)
		assert.Equal(t, 3, auditor.events[0].Count)
		assert.Equal(t, "batch.csv", auditor.events[0].Subject)
	})

	t.Run("oversized batch is rejected whole", func(t *testing.T) {
		router := newTestRouter(t, 2, 1<<20, nil)
		csv := "GODE561231GR8\nEFO010101AB1\nXAXX010101000\n"

		req := testutil.NewMultipartRequest(t, "/bulk", FormField, "batch.csv", []byte(csv))
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "batch_too_large")
	})

	t.Run("missing file field", func(t *testing.T) {
		router := newTestRouter(t, 10, 1<<20, nil)

		req := testutil.NewMultipartRequest(t, "/bulk", "upload", "batch.csv", []byte("GODE561231GR8\n"))
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})

	t.Run("unsupported file type", func(t *testing.T) {
		router := newTestRouter(t, 10, 1<<20, nil)

		req := testutil.NewMultipartRequest(t, "/bulk", FormField, "batch.pdf", []byte("%PDF-1.7"))
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})

	t.Run("upload over the byte limit", func(t *testing.T) {
		router := newTestRouter(t, 10, 512, nil)
		big := strings.Repeat("GODE561231GR8\n", 200)

		req := testutil.NewMultipartRequest(t, "/bulk", FormField, "batch.csv", []byte(big))
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatusAndError(t, rr, http.StatusRequestEntityTooLarge, "payload_too_large")
	})

	t.Run("not a multipart body", func(t *testing.T) {
		router := newTestRouter(t, 10, 1<<20, nil)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/bulk", map[string]string{"rfc": "GODE561231GR8"})
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})

	t.Run("run past its deadline answers timeout without an audit event", func(t *testing.T) {
		auditor := &recordingAuditor{}
		router := newTestRouter(t, 10, 1<<20, auditor)
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()

		req := testutil.NewMultipartRequest(t, "/bulk", FormField, "batch.csv", []byte("GODE561231GR8\n"))
		rr := testutil.DoRequest(router, req.WithContext(ctx))

		testutil.AssertStatusAndError(t, rr, http.StatusGatewayTimeout, "timeout")
		assert.Empty(t, auditor.events)
	})
}
