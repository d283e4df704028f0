// Package handler provides HTTP request handlers for chainstate.
package handler

import (
	"fmt"
	"net/http"

	"github.com/yndnr/chainstate-go/internal/core/domain"
)

// handleListOverrides handles GET /v1/overrides.
func (h *Handler) handleListOverrides(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, OverridesResponse{
		Overrides: h.store.Overrides(),
	})
}

// handleReplaceOverrides handles PUT /v1/overrides. The body replaces the
// whole override map.
func (h *Handler) handleReplaceOverrides(w http.ResponseWriter, r *http.Request) {
	var req ReplaceOverridesRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	for name, m := range req.Overrides {
		if err := checkOverride(name, &m); err != nil {
			h.handleServiceError(w, r, err)
			return
		}
		req.Overrides[name] = m
	}

	h.editMu.Lock()
	defer h.editMu.Unlock()
	if err := h.store.SetOverrides(r.Context(), req.Overrides); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, editResponse(h.store.Snapshot()))
}

// handleSetOverride handles PUT /v1/overrides/{chain}. The body is the
// complete metadata for the chain; it replaces any earlier override of
// that chain.
func (h *Handler) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("chain")
	var m domain.ChainMetadata
	if !h.decodeBody(w, r, &m) {
		return
	}
	if err := checkOverride(name, &m); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.editMu.Lock()
	defer h.editMu.Unlock()
	if err := h.store.SetOverrides(r.Context(), h.store.Overrides().With(name, m)); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, editResponse(h.store.Snapshot()))
}

// handleRemoveOverride handles DELETE /v1/overrides/{chain}.
func (h *Handler) handleRemoveOverride(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("chain")

	h.editMu.Lock()
	defer h.editMu.Unlock()
	current := h.store.Overrides()
	if _, ok := current[name]; !ok {
		h.writeError(w, r, http.StatusNotFound, domain.ErrChainNotFound.Code,
			fmt.Sprintf("no override for chain %q", name), nil)
		return
	}
	if err := h.store.SetOverrides(r.Context(), current.Without(name)); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, editResponse(h.store.Snapshot()))
}

// checkOverride fills an empty name from the key and rejects a name that
// disagrees with it.
func checkOverride(key string, m *domain.ChainMetadata) error {
	if err := domain.ValidateChainName(key); err != nil {
		return err
	}
	if m.Name == "" {
		m.Name = key
	}
	if m.Name != key {
		return domain.ErrInvalidArgument.WithDetails(
			fmt.Sprintf("override key %q does not match chain name %q", key, m.Name))
	}
	return nil
}
