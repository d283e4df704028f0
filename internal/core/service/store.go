package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/chainstate-go/internal/core/connectivity"
	"github.com/yndnr/chainstate-go/internal/core/domain"
	"github.com/yndnr/chainstate-go/internal/telemetry/logger"
)

// OverridePersister durably stores the override map.
type OverridePersister interface {
	SaveOverrides(ctx context.Context, overrides domain.OverrideMap) error
}

// Snapshot is a read-only view of the application state at one commit.
type Snapshot struct {
	Overrides domain.OverrideMap
	Handle    *connectivity.Handle
	Banner    string
	Revision  uint64
}

// Ready reports whether the snapshot's handle knows at least one chain.
func (s Snapshot) Ready() bool {
	return s.Handle.ChainCount() > 0
}

// Listener is notified with a fresh snapshot after every commit.
type Listener func(Snapshot)

// Store owns the application state: the override map, the connectivity
// handle derived from it, and auxiliary display state.
//
// Reads never block on rebuilds and never trigger one. The only paths that
// change overrides or the handle are SetOverrides (full rebuild, then
// atomic commit of both) and SetHandle (direct handle replacement).
type Store struct {
	mu        sync.RWMutex
	overrides domain.OverrideMap
	handle    *connectivity.Handle
	banner    string
	source    MetadataSource
	revision  uint64
	// generation counts commits of the override map.
	generation uint64

	// Edit sequencing. lastEdit is the sequence of the newest requested
	// edit; committedEdit is the sequence of the newest committed one.
	editMu        sync.Mutex
	lastEdit      uint64
	committedEdit uint64
	editGuard     bool

	builder   *Builder
	persister OverridePersister
	observer  Observer
	logger    *slog.Logger

	// persistMu is taken before mu is released so saves land in commit
	// order without holding readers behind storage I/O.
	persistMu sync.Mutex

	subMu   sync.Mutex
	subs    map[uint64]Listener
	nextSub uint64

	// pubMu orders notifications; published is the newest revision
	// delivered to listeners.
	pubMu     sync.Mutex
	published uint64
}

// Option configures a Store.
type Option func(*Store)

// WithBuilder sets the rebuild pipeline.
func WithBuilder(b *Builder) Option {
	return func(s *Store) {
		s.builder = b
	}
}

// WithPersister sets where committed overrides are saved.
func WithPersister(p OverridePersister) Option {
	return func(s *Store) {
		s.persister = p
	}
}

// WithObserver sets the rebuild/state observer.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		s.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithEditGuard makes override commits monotonic: an edit whose build
// finishes after a newer edit has already committed is dropped with
// domain.ErrEditSuperseded instead of overwriting the newer state.
//
// Without the guard the last build to complete wins, regardless of the
// order the edits were requested in.
func WithEditGuard() Option {
	return func(s *Store) {
		s.editGuard = true
	}
}

// NewStore creates a Store in its bootstrap state: no overrides and a
// handle with zero chains.
func NewStore(src MetadataSource, opts ...Option) *Store {
	s := &Store{
		overrides: domain.OverrideMap{},
		handle:    connectivity.Empty(),
		source:    src,
		subs:      make(map[uint64]Listener),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.builder == nil {
		s.builder = NewBuilder(nil)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// SetOverrides replaces the override map.
//
// It fetches the current metadata snapshot, merges it with overrides,
// builds a new handle and then commits overrides and handle together.
// On a fetch or build failure nothing is committed and the error is
// returned (domain.ErrFetch or domain.ErrBuild). Committed overrides are
// persisted; a persistence failure is logged, not returned.
func (s *Store) SetOverrides(ctx context.Context, overrides domain.OverrideMap) error {
	overrides = overrides.Clone()
	seq := s.beginEdit()

	log := logger.FromContext(ctx, s.logger).With(
		"edit_id", ulid.Make().String(),
		"edit_seq", seq,
		"override_count", len(overrides))
	log.Debug("override edit started")

	start := time.Now()
	h, err := s.builder.Derive(ctx, s.Source(), overrides)
	s.observeRebuild(PathEdit, time.Since(start), err)
	if err != nil {
		log.Warn("override edit failed", "error", err)
		return err
	}

	s.mu.Lock()
	if !s.commitEdit(seq) {
		s.mu.Unlock()
		log.Info("override edit superseded, not committed")
		return domain.ErrEditSuperseded
	}
	s.overrides = overrides
	s.handle = h
	s.revision++
	s.generation++
	snap := s.snapshotLocked()
	s.persistMu.Lock()
	s.mu.Unlock()

	if s.persister != nil {
		if err := s.persister.SaveOverrides(context.WithoutCancel(ctx), overrides.Clone()); err != nil {
			log.Error("failed to persist overrides", "error", err)
		}
	}
	s.persistMu.Unlock()

	log.Info("override edit committed",
		"revision", snap.Revision,
		"chain_count", h.ChainCount())
	s.publish(snap)
	return nil
}

// SetHandle replaces the connectivity handle without touching overrides.
func (s *Store) SetHandle(h *connectivity.Handle) {
	if h == nil {
		h = connectivity.Empty()
	}
	s.mu.Lock()
	s.handle = h
	s.revision++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
}

// SetBanner sets the banner display flag. It has no coupling to overrides
// or the handle and is never persisted.
func (s *Store) SetBanner(banner string) {
	s.mu.Lock()
	s.banner = banner
	s.revision++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
}

// SetSource replaces the metadata source. The current handle is kept; the
// next edit or Rebuild uses the new source.
func (s *Store) SetSource(src MetadataSource) {
	s.mu.Lock()
	s.source = src
	s.mu.Unlock()
}

// Rebuild refetches metadata and rebuilds the handle from the current
// overrides, then installs it with SetHandle semantics. If the overrides
// are replaced while it builds, the result is dropped and
// domain.ErrEditSuperseded is returned; the committed edit already
// carries a handle built from the newer overrides.
func (s *Store) Rebuild(ctx context.Context) error {
	s.mu.RLock()
	overrides := s.overrides.Clone()
	src := s.source
	gen := s.generation
	s.mu.RUnlock()

	log := logger.FromContext(ctx, s.logger)
	start := time.Now()
	h, err := s.builder.Derive(ctx, src, overrides)
	s.observeRebuild(PathRefresh, time.Since(start), err)
	if err != nil {
		log.Warn("rebuild failed", "error", err)
		return err
	}

	if !s.installRebuilt(h, gen) {
		log.Info("rebuild discarded, overrides changed while building")
		return domain.ErrEditSuperseded
	}
	log.Info("rebuild committed", "chain_count", h.ChainCount())
	return nil
}

// Source returns the current metadata source.
func (s *Store) Source() MetadataSource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// Overrides returns a copy of the current override map.
func (s *Store) Overrides() domain.OverrideMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overrides.Clone()
}

// Handle returns the current connectivity handle. It may be the zero-chain
// bootstrap handle; use ReadyHandle to tell the two apart.
func (s *Store) Handle() *connectivity.Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handle
}

// Banner returns the banner display flag.
func (s *Store) Banner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.banner
}

// Snapshot returns a consistent view of the whole state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// ReadyHandle returns the current handle only if it knows at least one
// chain. The boolean is false while only the bootstrap handle exists.
func (s *Store) ReadyHandle() (*connectivity.Handle, bool) {
	h := s.Handle()
	if h.ChainCount() == 0 {
		return nil, false
	}
	return h, true
}

// Subscribe registers fn to be called after commits. Listeners see
// strictly increasing revisions; a snapshot that a newer one has already
// overtaken is skipped rather than delivered late. Listeners may read the
// store but must not mutate it. The returned function removes the
// subscription.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// hydrate installs overrides loaded from persistence without rebuilding
// or re-persisting them.
func (s *Store) hydrate(overrides domain.OverrideMap) {
	s.mu.Lock()
	s.overrides = overrides.Clone()
	s.revision++
	s.generation++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
}

// installDerived commits a handle derived outside the edit path. With the
// edit guard on, the handle is dropped if an edit committed after seq.
func (s *Store) installDerived(h *connectivity.Handle, seq uint64) bool {
	s.mu.Lock()
	if s.editGuard && s.committedSeq() != seq {
		s.mu.Unlock()
		return false
	}
	s.handle = h
	s.revision++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return true
}

// installRebuilt commits a handle from Rebuild unless the override map
// changed since gen was read.
func (s *Store) installRebuilt(h *connectivity.Handle, gen uint64) bool {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return false
	}
	s.handle = h
	s.revision++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return true
}

func (s *Store) beginEdit() uint64 {
	s.editMu.Lock()
	defer s.editMu.Unlock()
	s.lastEdit++
	return s.lastEdit
}

// commitEdit records seq as committed. With the edit guard it refuses
// when a newer edit has already committed.
func (s *Store) commitEdit(seq uint64) bool {
	s.editMu.Lock()
	defer s.editMu.Unlock()
	if s.editGuard && seq < s.committedEdit {
		return false
	}
	if seq > s.committedEdit {
		s.committedEdit = seq
	}
	return true
}

func (s *Store) committedSeq() uint64 {
	s.editMu.Lock()
	defer s.editMu.Unlock()
	return s.committedEdit
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Overrides: s.overrides.Clone(),
		Handle:    s.handle,
		Banner:    s.banner,
		Revision:  s.revision,
	}
}

func (s *Store) publish(snap Snapshot) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if snap.Revision <= s.published {
		return
	}
	s.published = snap.Revision

	if s.observer != nil {
		s.observer.ObserveState(len(snap.Overrides), snap.Handle.ChainCount(), snap.Ready())
	}

	s.subMu.Lock()
	listeners := make([]Listener, 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.subMu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func (s *Store) observeRebuild(path string, elapsed time.Duration, err error) {
	if s.observer != nil {
		s.observer.ObserveRebuild(path, elapsed, err)
	}
}
