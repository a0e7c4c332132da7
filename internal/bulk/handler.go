package bulk

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rfcheck/internal/audit"
	dErrors "rfcheck/pkg/domain-errors"
	"rfcheck/pkg/platform/httputil"
	"rfcheck/pkg/requestcontext"
)

// FormField is the multipart field carrying the upload.
const FormField = "file"

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Response is the batch result body.
type Response struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Results []Item `json:"results"`
}

type Handler struct {
	runner       *Runner
	extractor    Extractor
	maxFileBytes int64
	logger       *slog.Logger
	auditor      AuditPublisher
}

func NewHandler(runner *Runner, extractor Extractor, maxFileBytes int64, logger *slog.Logger, auditor AuditPublisher) *Handler {
	return &Handler{
		runner:       runner,
		extractor:    extractor,
		maxFileBytes: maxFileBytes,
		logger:       logger,
		auditor:      auditor,
	}
}

// Register mounts the bulk route. Callers apply identity and quota
// middleware on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/bulk", h.handleBulk)
}

func (h *Handler) handleBulk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileBytes)
	if err := r.ParseMultipartForm(h.maxFileBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			httputil.WriteError(w, dErrors.New(dErrors.CodePayloadTooLarge, "file exceeds the upload limit"))
			return
		}
		h.logger.WarnContext(ctx, "invalid multipart upload", "error", err, "request_id", requestID)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "expected a multipart form with a file field"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(FormField)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "file is required"))
		return
	}
	defer file.Close()

	candidates, err := h.extractor.Extract(header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to extract candidates", "error", err, "request_id", requestID)
		if _, ok := dErrors.As(err); !ok {
			err = dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable file")
		}
		httputil.WriteError(w, err)
		return
	}

	results, err := h.runner.Run(ctx, candidates)
	if err != nil {
		if errors.Is(err, ErrBatchTooLarge) {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
				Error:            "batch_too_large",
				ErrorDescription: err.Error(),
			})
			return
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeTimeout, "bulk validation did not finish in time"))
			return
		}
		h.logger.ErrorContext(ctx, "bulk run failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "bulk validation failed"))
		return
	}

	caller := requestcontext.Caller(ctx)
	if h.auditor != nil {
		h.auditor.Emit(ctx, audit.Event{
			Action:     audit.ActionBulkValidated,
			CallerKind: caller.Kind,
			CallerID:   caller.ID,
			Subject:    header.Filename,
			Count:      len(results),
		})
	}

	httputil.WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Count:   len(results),
		Results: results,
	})
}
