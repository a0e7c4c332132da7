package history

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfcheck/pkg/testutil"
)

func newHistoryRouter(store Store) http.Handler {
	r := chi.NewRouter()
	NewHandler(store, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func TestHandleList(t *testing.T) {
	userID := uuid.NewString()
	keyID := uuid.NewString()
	store := NewInMemoryStore(10)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(context.Background(), record(userID, "GODE561231GR8", now)))
	require.NoError(t, store.Append(context.Background(), record(userID, "XAXX010101000", now.Add(time.Second))))
	router := newHistoryRouter(store)

	t.Run("user sees own records", func(t *testing.T) {
		req := testutil.WithUserID(testutil.NewRequest(t, http.MethodGet, "/history"), userID)
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[ListResponse](t, rr)
		require.Equal(t, 2, resp.Count)
		assert.Equal(t, "XAXX010101000", resp.Records[0].RFC)
	})

	t.Run("api key sees its owner's records", func(t *testing.T) {
		req := testutil.WithAPIKey(testutil.NewRequest(t, http.MethodGet, "/history?limit=1"), keyID, userID)
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[ListResponse](t, rr)
		assert.Equal(t, 1, resp.Count)
	})

	t.Run("empty history is an empty list", func(t *testing.T) {
		req := testutil.WithUserID(testutil.NewRequest(t, http.MethodGet, "/history"), uuid.NewString())
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.JSONEq(t, `{"count":0,"records":[]}`, rr.Body.String())
	})

	t.Run("anonymous is rejected", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/history"))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("bad limit", func(t *testing.T) {
		req := testutil.WithUserID(testutil.NewRequest(t, http.MethodGet, "/history?limit=ten"), userID)
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})
}
