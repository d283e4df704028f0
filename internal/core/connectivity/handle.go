// Package connectivity provides the connectivity handle: an immutable
// aggregate of chain metadata that the rest of the application uses to
// reach configured networks.
//
// A Handle is built from a merged ChainMap and never mutated afterwards.
// Whenever the configuration changes, a new Handle is built and swapped in.
package connectivity

import (
	"fmt"
	"sort"

	"github.com/yndnr/chainstate-go/internal/core/domain"
)

// Handle is an immutable view over a set of configured chains.
type Handle struct {
	chains   domain.ChainMap
	names    []string
	byChain  map[string]string // chainId -> name
	byDomain map[uint32]string // domainId -> name
}

// New builds a handle from a chain mapping.
//
// Each entry must validate and its Name must match its key. An entry with
// an empty Name takes the key as its name. Returns an error wrapping
// domain.ErrInvalidChainMetadata on the first bad entry.
func New(chains domain.ChainMap) (*Handle, error) {
	h := &Handle{
		chains:   make(domain.ChainMap, len(chains)),
		names:    make([]string, 0, len(chains)),
		byChain:  make(map[string]string, len(chains)),
		byDomain: make(map[uint32]string, len(chains)),
	}

	for key, m := range chains {
		m = m.Clone()
		if m.Name == "" {
			m.Name = key
		}
		if m.Name != key {
			return nil, domain.ErrInvalidChainMetadata.WithDetails(
				fmt.Sprintf("chain %q: name %q does not match its key", key, m.Name))
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if other, dup := h.byDomain[m.DomainID]; dup && m.DomainID != 0 {
			return nil, domain.ErrInvalidChainMetadata.WithDetails(
				fmt.Sprintf("chains %q and %q share domainId %d", other, key, m.DomainID))
		}

		h.chains[key] = m
		h.names = append(h.names, key)
		h.byChain[m.ChainID] = key
		if m.DomainID != 0 {
			h.byDomain[m.DomainID] = key
		}
	}

	sort.Strings(h.names)
	return h, nil
}

// Empty returns a handle with no chains. It is the bootstrap value before
// any configuration has been built.
func Empty() *Handle {
	h, _ := New(nil)
	return h
}

// KnownChainNames returns the names of all chains in sorted order.
func (h *Handle) KnownChainNames() []string {
	if h == nil {
		return nil
	}
	return append([]string(nil), h.names...)
}

// ChainCount returns the number of known chains.
func (h *Handle) ChainCount() int {
	if h == nil {
		return 0
	}
	return len(h.names)
}

// HasChain reports whether name is a known chain.
func (h *Handle) HasChain(name string) bool {
	if h == nil {
		return false
	}
	_, ok := h.chains[name]
	return ok
}

// Metadata returns a copy of the metadata for name.
func (h *Handle) Metadata(name string) (domain.ChainMetadata, error) {
	if h == nil {
		return domain.ChainMetadata{}, domain.ErrChainNotFound.WithDetails(name)
	}
	m, ok := h.chains[name]
	if !ok {
		return domain.ChainMetadata{}, domain.ErrChainNotFound.WithDetails(name)
	}
	return m.Clone(), nil
}

// RPCURLs returns the RPC endpoints of name in configured order.
func (h *Handle) RPCURLs(name string) ([]string, error) {
	m, err := h.Metadata(name)
	if err != nil {
		return nil, err
	}
	urls := make([]string, len(m.RPCURLs))
	for i, rpc := range m.RPCURLs {
		urls[i] = rpc.HTTP
	}
	return urls, nil
}

// ChainNameByID resolves a chain name from its chainId.
func (h *Handle) ChainNameByID(chainID string) (string, bool) {
	if h == nil {
		return "", false
	}
	name, ok := h.byChain[chainID]
	return name, ok
}

// ChainNameByDomain resolves a chain name from its domainId.
func (h *Handle) ChainNameByDomain(domainID uint32) (string, bool) {
	if h == nil || domainID == 0 {
		return "", false
	}
	name, ok := h.byDomain[domainID]
	return name, ok
}

// Chains returns a deep copy of the chain mapping the handle was built from.
func (h *Handle) Chains() domain.ChainMap {
	if h == nil {
		return domain.ChainMap{}
	}
	return h.chains.Clone()
}
