// Package handler exposes single-RFC validation over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"rfcheck/internal/audit"
	"rfcheck/internal/history"
	"rfcheck/internal/validation/models"
	"rfcheck/pkg/domain"
	"rfcheck/pkg/platform/httputil"
	"rfcheck/pkg/requestcontext"
)

type Validator interface {
	Validate(ctx context.Context, req models.Request) *models.Verdict
}

type HistoryStore interface {
	Append(ctx context.Context, rec history.Record) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// ValidateRequest is the body of POST /validate.
type ValidateRequest struct {
	RFC          string `json:"rfc" validate:"required,max=64"`
	ForceRefresh bool   `json:"forceRefresh"`
	UseCache     *bool  `json:"useCache,omitempty"`
}

type Handler struct {
	validator Validator
	history   HistoryStore
	auditor   AuditPublisher
	logger    *slog.Logger
}

// New builds the handler. history and auditor may be nil.
func New(validator Validator, history HistoryStore, auditor AuditPublisher, logger *slog.Logger) *Handler {
	return &Handler{
		validator: validator,
		history:   history,
		auditor:   auditor,
		logger:    logger,
	}
}

// Register mounts the validation routes. Callers apply identity and quota
// middleware on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/validate", h.handleValidate)
	r.Get("/rfc/{rfc}", h.handleLookup)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ValidateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.respond(ctx, w, models.Request{
		RFC:          req.RFC,
		ForceRefresh: req.ForceRefresh,
		UseCache:     req.UseCache,
	})
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	h.respond(r.Context(), w, models.Request{
		RFC:          lookupParam(r),
		ForceRefresh: force,
	})
}

// lookupParam returns the decoded {rfc} segment. chi matches on RawPath when
// the client used a non-canonical escape, so the segment may still be
// escaped. Undecodable input is passed through and fails the format check.
func lookupParam(r *http.Request) string {
	raw := chi.URLParam(r, "rfc")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// respond runs the validation and always answers 200; the verdict itself
// carries success and validity.
func (h *Handler) respond(ctx context.Context, w http.ResponseWriter, req models.Request) {
	caller := requestcontext.Caller(ctx)
	if req.ForceRefresh && !caller.Identified() {
		// Anonymous callers cannot spend registry capacity on refreshes.
		req.ForceRefresh = false
	}

	verdict := h.validator.Validate(ctx, req)

	h.record(ctx, caller, verdict)
	if h.auditor != nil {
		h.auditor.Emit(ctx, audit.Event{
			Action:     audit.ActionRFCValidated,
			CallerKind: caller.Kind,
			CallerID:   caller.ID,
			Subject:    verdict.RFC,
			Decision:   verdict.Outcome(),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, verdict)
}

func (h *Handler) record(ctx context.Context, caller domain.Caller, verdict *models.Verdict) {
	if h.history == nil || !caller.Identified() {
		return
	}
	rec := history.FromVerdict(history.OwnerKey(caller), verdict, requestcontext.Now(ctx))
	if err := h.history.Append(ctx, rec); err != nil {
		h.logger.WarnContext(ctx, "failed to record validation history",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
