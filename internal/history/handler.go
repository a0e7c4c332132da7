package history

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	dErrors "rfcheck/pkg/domain-errors"
	"rfcheck/pkg/platform/httputil"
	"rfcheck/pkg/requestcontext"
)

// ListResponse is the body of GET /history.
type ListResponse struct {
	Count   int      `json:"count"`
	Records []Record `json:"records"`
}

type Handler struct {
	store  Store
	logger *slog.Logger
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts the history route. Callers must apply an identity
// requirement on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/history", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)
	if !caller.Identified() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be an integer"))
			return
		}
		limit = n
	}

	records, err := h.store.ListByCaller(ctx, OwnerKey(caller), limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list history", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list history"))
		return
	}
	if records == nil {
		records = []Record{}
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Count: len(records), Records: records})
}
