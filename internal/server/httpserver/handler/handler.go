// Package handler provides HTTP request handlers for chainstate.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/yndnr/chainstate-go/internal/core/domain"
	"github.com/yndnr/chainstate-go/internal/core/service"
	"github.com/yndnr/chainstate-go/internal/telemetry/logger"
)

// maxBodyBytes bounds request bodies. Override maps for a few hundred
// chains stay well below it.
const maxBodyBytes = 4 << 20

// PhaseReporter reports the rehydration phase.
type PhaseReporter interface {
	Phase() service.Phase
}

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	store  *service.Store
	phases PhaseReporter
	logger *slog.Logger
	mux    *http.ServeMux

	// editMu serializes read-modify-write edits of single chains so two
	// concurrent requests cannot drop each other's change.
	editMu sync.Mutex
}

// New creates a new Handler serving store. phases may be nil.
func New(store *service.Store, phases PhaseReporter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		store:  store,
		phases: phases,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// registerRoutes registers all HTTP routes.
func (h *Handler) registerRoutes() {
	// Health endpoints
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	// State endpoints
	h.mux.HandleFunc("GET /v1/state", h.handleGetState)
	h.mux.HandleFunc("GET /v1/chains", h.handleListChains)
	h.mux.HandleFunc("GET /v1/chains/{chain}", h.handleGetChain)
	h.mux.HandleFunc("POST /v1/rebuild", h.handleRebuild)
	h.mux.HandleFunc("PUT /v1/banner", h.handleSetBanner)

	// Override endpoints
	h.mux.HandleFunc("GET /v1/overrides", h.handleListOverrides)
	h.mux.HandleFunc("PUT /v1/overrides", h.handleReplaceOverrides)
	h.mux.HandleFunc("PUT /v1/overrides/{chain}", h.handleSetOverride)
	h.mux.HandleFunc("DELETE /v1/overrides/{chain}", h.handleRemoveOverride)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	WriteError(w, getRequestID(r), status, code, message, details)
}

// WriteError writes an error envelope. Middlewares use it for errors
// raised before a handler runs.
func WriteError(w http.ResponseWriter, requestID string, status int, code, message string, details any) {
	response := NewErrorResponse(requestID, code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// decodeBody decodes a JSON request body into v.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrInvalidArgument.Code, "invalid request body", err.Error())
		return false
	}
	return true
}

// getRequestID extracts request ID from context or header.
func getRequestID(r *http.Request) string {
	if reqID := logger.RequestIDFromContext(r.Context()); reqID != "" {
		return reqID
	}
	return r.Header.Get("X-Request-ID")
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsDomainError(err, "") {
		code := domain.GetErrorCode(err)
		status := ErrorCodeToHTTPStatus(code)
		if status >= http.StatusInternalServerError {
			h.logger.Warn("request failed", "request_id", getRequestID(r), "error", err)
		}
		h.writeError(w, r, status, code, err.Error(), nil)
		return
	}

	// Generic internal error
	h.logger.Error("internal error", "request_id", getRequestID(r), "error", err)
	h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternal.Code, "internal server error", nil)
}

// ErrorCodeToHTTPStatus maps error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"), strings.HasSuffix(code, "-4091"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4220"):
		return http.StatusUnprocessableEntity
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-5020"):
		return http.StatusBadGateway
	case strings.HasSuffix(code, "-5030"):
		return http.StatusServiceUnavailable
	case strings.HasPrefix(code, "CS-ARG-"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
