package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"obfuscator/internal/obfuscation/models"
	"obfuscator/internal/obfuscation/service"
	"obfuscator/internal/platform/middleware"
	dErrors "obfuscator/pkg/domain-errors"
	"obfuscator/pkg/platform/audit"
	"obfuscator/pkg/platform/httputil"
)

// RowsHeader carries the record count of a streamed obfuscation result.
const RowsHeader = "X-Obfuscation-Rows"

// Service defines the obfuscation operations exposed over HTTP.
type Service interface {
	ObfuscateTo(ctx context.Context, req models.Request) (*service.Result, error)
	ObfuscateBatch(ctx context.Context, reqs []models.Request) []service.BatchResult
}

// AuditReader lists recorded audit events, most recent first.
type AuditReader interface {
	List(ctx context.Context, limit int) ([]audit.Event, error)
}

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// Handler serves the obfuscation endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	audit   AuditReader
}

type Option func(*Handler)

// WithAuditReader exposes GET /v1/audit/recent backed by r.
func WithAuditReader(r AuditReader) Option {
	return func(h *Handler) {
		h.audit = r
	}
}

// New creates a new obfuscation Handler.
func New(svc Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		logger:  logger,
		service: svc,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the obfuscation routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/obfuscate", h.handleObfuscate)
	r.Post("/v1/obfuscate/batch", h.handleObfuscateBatch)
	if h.audit != nil {
		r.Get("/v1/audit/recent", h.handleRecentAudit)
	}
}

// handleObfuscate masks one object. Without a destination the masked bytes
// are the response body; with one, a JSON summary is returned.
func (h *Handler) handleObfuscate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	req, err := models.ParseRequest(body)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid obfuscate request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, ""))
		return
	}

	res, err := h.service.ObfuscateTo(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if res.Destination != "" {
		httputil.WriteJSON(w, http.StatusCreated, toSummary(req, res))
		return
	}
	w.Header().Set("Content-Type", res.Format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Bytes)))
	w.Header().Set(RowsHeader, strconv.Itoa(res.Rows))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Bytes); err != nil {
		h.logger.WarnContext(ctx, "failed to write obfuscated body",
			"request_id", requestID,
			"error", err,
		)
	}
}

func (h *Handler) handleObfuscateBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	reqs, err := parseBatchRequest(body)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid batch request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, ""))
		return
	}

	results := h.service.ObfuscateBatch(ctx, reqs)
	resp := BatchResponse{Results: make([]BatchItem, len(results))}
	for i, br := range results {
		resp.Results[i] = toBatchItem(reqs[br.Index], br)
		if br.Err != nil {
			resp.Failed++
		} else {
			resp.Succeeded++
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRecentAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxAuditLimit {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest,
				"limit must be an integer between 1 and "+strconv.Itoa(maxAuditLimit)))
			return
		}
		limit = n
	}

	events, err := h.audit.List(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	resp := AuditResponse{Events: make([]AuditEvent, len(events))}
	for i, e := range events {
		resp.Events[i] = toAuditEvent(e)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err == nil {
		return body, true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		httputil.WriteJSON(w, http.StatusRequestEntityTooLarge, httputil.ErrorResponse{
			Error:            "request_too_large",
			ErrorDescription: "request body exceeds " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes",
		})
		return nil, false
	}
	h.logger.WarnContext(r.Context(), "failed to read request body",
		"request_id", middleware.GetRequestID(r.Context()),
		"error", err,
	)
	httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unreadable request body"))
	return nil, false
}
