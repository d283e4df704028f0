// Package handler provides HTTP request handlers for chainstate.
package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/chainstate-go/internal/core/domain"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready. The service is ready once the
// connectivity handle knows at least one chain.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.store.ReadyHandle()
	if !ok {
		h.writeError(w, r, http.StatusServiceUnavailable, domain.ErrHandleNotReady.Code,
			domain.ErrHandleNotReady.Message, h.phaseName())
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"status": "ready",
		"chains": handle.ChainCount(),
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) phaseName() string {
	if h.phases == nil {
		return ""
	}
	return h.phases.Phase().String()
}
