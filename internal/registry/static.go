package registry

import (
	"context"
	"sync"

	"github.com/yndnr/chainstate-go/internal/core/domain"
)

// Static serves chain metadata from memory.
type Static struct {
	mu     sync.RWMutex
	chains domain.ChainMap
}

// NewStatic creates a Static source serving chains.
func NewStatic(chains domain.ChainMap) *Static {
	return &Static{chains: normalize(chains)}
}

// GetMetadata returns a copy of the current chains.
func (s *Static) GetMetadata(ctx context.Context) (domain.ChainMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chains.Clone(), nil
}

// Set replaces the served chains.
func (s *Static) Set(chains domain.ChainMap) {
	chains = normalize(chains.Clone())
	s.mu.Lock()
	s.chains = chains
	s.mu.Unlock()
}
