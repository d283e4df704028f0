package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/chainstate-go/internal/core/domain"
)

// OverrideLoader loads the persisted override map for the current schema
// version. ok is false when there is no prior state.
type OverrideLoader interface {
	LoadOverrides(ctx context.Context) (overrides domain.OverrideMap, ok bool, err error)
}

// Phase is the rehydration state.
//
//	Uninitialized -> LoadAttempted -> Idle
//	                               -> RebuildPending -> RebuildCommitted
//	                                                 -> RebuildFailed
type Phase int32

const (
	PhaseUninitialized Phase = iota
	PhaseLoadAttempted
	PhaseIdle
	PhaseRebuildPending
	PhaseRebuildCommitted
	PhaseRebuildFailed
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseLoadAttempted:
		return "load_attempted"
	case PhaseIdle:
		return "idle"
	case PhaseRebuildPending:
		return "rebuild_pending"
	case PhaseRebuildCommitted:
		return "rebuild_committed"
	case PhaseRebuildFailed:
		return "rebuild_failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further rehydration transition can happen.
func (p Phase) Terminal() bool {
	return p == PhaseIdle || p == PhaseRebuildCommitted || p == PhaseRebuildFailed
}

// Rehydrator restores persisted overrides at startup and rebuilds the
// connectivity handle from them.
//
// Startup has two phases. Start loads synchronously and, when prior state
// exists, installs the overrides and launches the rebuild in the
// background. The rebuilt handle is committed through the store's handle
// replacement path; overrides are already correct and are not rebuilt or
// re-persisted. Every failure is logged and leaves the store at its
// bootstrap handle.
type Rehydrator struct {
	store  *Store
	loader OverrideLoader
	logger *slog.Logger

	phase atomic.Int32
	once  sync.Once
	done  chan struct{}
	err   error
}

// NewRehydrator creates a Rehydrator for store.
func NewRehydrator(store *Store, loader OverrideLoader, logger *slog.Logger) *Rehydrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rehydrator{
		store:  store,
		loader: loader,
		logger: logger.With("component", "rehydrator"),
		done:   make(chan struct{}),
	}
}

// Start runs rehydration. Only the first call has any effect. ctx bounds
// the load and the background rebuild.
func (r *Rehydrator) Start(ctx context.Context) {
	r.once.Do(func() {
		r.start(ctx)
	})
}

func (r *Rehydrator) start(ctx context.Context) {
	r.logger.Debug("rehydrating state")
	overrides, ok, err := r.load(ctx)
	r.phase.Store(int32(PhaseLoadAttempted))

	if err != nil || !ok {
		r.finish(PhaseIdle, nil)
		return
	}

	seq := r.store.committedSeq()
	r.store.hydrate(overrides)
	r.phase.Store(int32(PhaseRebuildPending))

	go r.rebuild(ctx, overrides, seq)
}

func (r *Rehydrator) load(ctx context.Context) (domain.OverrideMap, bool, error) {
	if r.loader == nil {
		r.logger.Info("rehydration skipped, no persistence configured")
		return nil, false, nil
	}

	overrides, ok, err := r.loader.LoadOverrides(ctx)
	switch {
	case errors.Is(err, domain.ErrVersionMismatch):
		r.logger.Warn("discarding persisted state with stale schema version", "error", err)
	case errors.Is(err, domain.ErrDeserialization):
		r.logger.Warn("discarding unreadable persisted state", "error", err)
	case err != nil:
		r.logger.Error("error during hydration", "error", err)
	case !ok:
		r.logger.Info("rehydration skipped, no prior state")
	}
	return overrides, ok && err == nil, err
}

func (r *Rehydrator) rebuild(ctx context.Context, overrides domain.OverrideMap, seq uint64) {
	start := time.Now()
	h, err := r.store.builder.Derive(ctx, r.store.Source(), overrides)
	r.store.observeRebuild(PathRehydrate, time.Since(start), err)
	if err != nil {
		r.logger.Error("error building connectivity handle", "error", err)
		r.finish(PhaseRebuildFailed, err)
		return
	}

	if !r.store.installDerived(h, seq) {
		r.logger.Info("rehydrated handle discarded, overrides edited during rebuild")
		r.finish(PhaseRebuildFailed, domain.ErrEditSuperseded)
		return
	}

	r.logger.Info("rehydration complete",
		"override_count", len(overrides),
		"chain_count", h.ChainCount(),
		"elapsed", time.Since(start))
	r.finish(PhaseRebuildCommitted, nil)
}

func (r *Rehydrator) finish(p Phase, err error) {
	r.err = err
	r.phase.Store(int32(p))
	close(r.done)
}

// Phase returns the current rehydration phase.
func (r *Rehydrator) Phase() Phase {
	return Phase(r.phase.Load())
}

// Done is closed once rehydration reaches a terminal phase.
func (r *Rehydrator) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until rehydration reaches a terminal phase or ctx is done.
// It returns the rebuild error, if any. A rebuild error never affects the
// store beyond leaving the bootstrap handle in place.
func (r *Rehydrator) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
