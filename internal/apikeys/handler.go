package apikeys

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "rfcheck/pkg/domain"
	dErrors "rfcheck/pkg/domain-errors"
	"rfcheck/pkg/platform/httputil"
	"rfcheck/pkg/requestcontext"
)

// IssueRequest is the body of POST /api-keys.
type IssueRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

type ListResponse struct {
	Keys []Key `json:"keys"`
}

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the key management routes. Only bearer-token users may
// manage keys; an API key cannot mint or revoke keys.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api-keys", h.handleIssue)
	r.Get("/api-keys", h.handleList)
	r.Delete("/api-keys/{id}", h.handleRevoke)
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	owner, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[IssueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	issued, err := h.service.Issue(ctx, owner, req.Name)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue api key", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, issued)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	keys, err := h.service.List(ctx, owner)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list api keys", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Keys: keys})
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	keyID, err := id.ParseAPIKeyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Revoke(ctx, owner, keyID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func requireUser(ctx context.Context, w http.ResponseWriter) (id.UserID, bool) {
	caller := requestcontext.Caller(ctx)
	switch caller.Kind {
	case id.CallerUser:
		return caller.OwnerID, true
	case id.CallerAPIKey:
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "api keys cannot manage api keys"))
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
	}
	return id.UserID{}, false
}
