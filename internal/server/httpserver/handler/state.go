// Package handler provides HTTP request handlers for chainstate.
package handler

import (
	"net/http"

	"github.com/yndnr/chainstate-go/internal/core/service"
)

// handleGetState handles GET /v1/state.
func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	h.writeJSON(w, r, http.StatusOK, StateResponse{
		Overrides: snap.Overrides.Names(),
		Chains:    nonNil(snap.Handle.KnownChainNames()),
		Ready:     snap.Ready(),
		Banner:    snap.Banner,
		Phase:     h.phaseName(),
		Revision:  snap.Revision,
	})
}

// handleListChains handles GET /v1/chains.
func (h *Handler) handleListChains(w http.ResponseWriter, r *http.Request) {
	names := nonNil(h.store.Handle().KnownChainNames())
	h.writeJSON(w, r, http.StatusOK, ChainsResponse{
		Chains: names,
		Total:  len(names),
	})
}

// handleGetChain handles GET /v1/chains/{chain}. It returns the merged
// metadata the connectivity handle was built from.
func (h *Handler) handleGetChain(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("chain")
	m, err := h.store.Handle().Metadata(name)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, m)
}

// handleRebuild handles POST /v1/rebuild. It is serialized with the
// override edit handlers.
func (h *Handler) handleRebuild(w http.ResponseWriter, r *http.Request) {
	h.editMu.Lock()
	defer h.editMu.Unlock()
	if err := h.store.Rebuild(r.Context()); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, editResponse(h.store.Snapshot()))
}

// handleSetBanner handles PUT /v1/banner.
func (h *Handler) handleSetBanner(w http.ResponseWriter, r *http.Request) {
	var req BannerRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	h.store.SetBanner(req.Banner)
	h.writeJSON(w, r, http.StatusOK, req)
}

func editResponse(snap service.Snapshot) EditResponse {
	return EditResponse{
		Overrides: snap.Overrides.Names(),
		Chains:    nonNil(snap.Handle.KnownChainNames()),
		Revision:  snap.Revision,
	}
}

func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
