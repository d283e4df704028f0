package service

import (
	"context"
	"time"

	"github.com/yndnr/chainstate-go/internal/core/connectivity"
	"github.com/yndnr/chainstate-go/internal/core/domain"
)

// MetadataSource provides a snapshot of remote chain metadata.
type MetadataSource interface {
	GetMetadata(ctx context.Context) (domain.ChainMap, error)
}

// HandleConstructor turns a merged mapping into a connectivity handle.
type HandleConstructor func(chains domain.ChainMap) (*connectivity.Handle, error)

// Observer receives rebuild and state events. Implemented by the metric
// registry; a nil Observer is ignored.
type Observer interface {
	ObserveRebuild(path string, elapsed time.Duration, err error)
	ObserveState(overrides, chains int, ready bool)
}

// Rebuild paths reported to the Observer.
const (
	PathEdit      = "edit"
	PathRehydrate = "rehydrate"
	PathRefresh   = "refresh"
)

// Builder runs the fetch, merge and construct pipeline.
//
// Builder never touches application state; callers commit its result.
type Builder struct {
	construct HandleConstructor
}

// NewBuilder creates a Builder. A nil constructor uses connectivity.New.
func NewBuilder(construct HandleConstructor) *Builder {
	if construct == nil {
		construct = connectivity.New
	}
	return &Builder{construct: construct}
}

// Build constructs a handle from an already merged mapping.
// Constructor failures are returned as domain.ErrBuild.
func (b *Builder) Build(ctx context.Context, merged domain.ChainMap) (*connectivity.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, err := b.construct(merged)
	if err != nil {
		return nil, domain.ErrBuild.WithCause(err)
	}
	return h, nil
}

// Derive fetches the current metadata snapshot from src, merges it with
// overrides and builds a handle. Fetch failures are returned as
// domain.ErrFetch, constructor failures as domain.ErrBuild.
func (b *Builder) Derive(ctx context.Context, src MetadataSource, overrides domain.OverrideMap) (*connectivity.Handle, error) {
	if src == nil {
		return nil, domain.ErrFetch.WithDetails("no metadata source configured")
	}
	remote, err := src.GetMetadata(ctx)
	if err != nil {
		return nil, domain.ErrFetch.WithCause(err)
	}
	return b.Build(ctx, Merge(remote, overrides))
}
