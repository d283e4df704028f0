package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/chainstate-go/internal/core/connectivity"
	"github.com/yndnr/chainstate-go/internal/core/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func recvErr(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for edit to finish")
		return nil
	}
}

func recvCall(t *testing.T, g *gatedSource) int {
	t.Helper()
	select {
	case call := <-g.started:
		return call
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for fetch to start")
		return 0
	}
}

func TestStore_Bootstrap(t *testing.T) {
	s := NewStore(staticSource(nil), WithLogger(quietLogger()))

	if got := s.Overrides(); len(got) != 0 {
		t.Errorf("Overrides() = %v, want empty", got)
	}
	if got := s.Handle().ChainCount(); got != 0 {
		t.Errorf("Handle().ChainCount() = %d, want 0", got)
	}
	if h, ok := s.ReadyHandle(); ok || h != nil {
		t.Errorf("ReadyHandle() = (%v, %v), want (nil, false)", h, ok)
	}
	if s.Snapshot().Ready() {
		t.Error("Snapshot().Ready() = true at bootstrap")
	}
}

// Overrides for "ethereum" against a remote that only knows "optimism".
func TestStore_SetOverrides(t *testing.T) {
	m1 := meta("ethereum", "1", "https://local.example.com")
	src := staticSource(domain.ChainMap{"optimism": meta("optimism", "10", "https://op.example.com")})
	p := &memPersister{}
	obs := newRecordingObserver()
	s := NewStore(src, WithPersister(p), WithObserver(obs), WithLogger(quietLogger()))

	o := domain.OverrideMap{"ethereum": m1}
	if err := s.SetOverrides(context.Background(), o); err != nil {
		t.Fatalf("SetOverrides() error = %v", err)
	}

	if got := s.Overrides(); !reflect.DeepEqual(got, o) {
		t.Errorf("Overrides() = %v, want %v", got, o)
	}
	saved, n := p.last()
	if n != 1 {
		t.Fatalf("persisted %d times, want 1", n)
	}
	if !reflect.DeepEqual(saved, o) {
		t.Errorf("persisted %v, want %v", saved, o)
	}
	if got, want := s.Handle().KnownChainNames(), []string{"ethereum", "optimism"}; !reflect.DeepEqual(got, want) {
		t.Errorf("KnownChainNames() = %v, want %v", got, want)
	}
	if _, ok := s.ReadyHandle(); !ok {
		t.Error("ReadyHandle() not ready after successful edit")
	}
	if obs.rebuilds[PathEdit] != 1 || obs.failures[PathEdit] != 0 {
		t.Errorf("observer rebuilds = %v failures = %v", obs.rebuilds, obs.failures)
	}
	if !obs.ready {
		t.Error("observer did not see ready state")
	}
}

func TestStore_SetOverridesCopiesInput(t *testing.T) {
	s := NewStore(staticSource(nil), WithLogger(quietLogger()))
	o := domain.OverrideMap{"ethereum": meta("ethereum", "1", "https://a.example.com")}
	if err := s.SetOverrides(context.Background(), o); err != nil {
		t.Fatalf("SetOverrides() error = %v", err)
	}

	o["optimism"] = meta("optimism", "10", "https://b.example.com")
	got := s.Overrides()
	got["arbitrum"] = meta("arbitrum", "42161", "https://c.example.com")

	if names := s.Overrides().Names(); !reflect.DeepEqual(names, []string{"ethereum"}) {
		t.Errorf("store overrides leaked mutations: %v", names)
	}
}

func TestStore_PersistsExactlyOverrides(t *testing.T) {
	remote := domain.ChainMap{
		"ethereum": meta("ethereum", "1", "https://remote.example.com"),
		"optimism": meta("optimism", "10", "https://op.example.com"),
	}
	p := &memPersister{}
	s := NewStore(staticSource(remote), WithPersister(p), WithLogger(quietLogger()))

	edits := []domain.OverrideMap{
		{"ethereum": meta("ethereum", "1", "https://local.example.com")},
		{},
		{"base": meta("base", "8453", "https://base.example.com")},
	}
	for i, o := range edits {
		if err := s.SetOverrides(context.Background(), o); err != nil {
			t.Fatalf("edit %d: SetOverrides() error = %v", i, err)
		}
		saved, _ := p.last()
		if !reflect.DeepEqual(saved, o) {
			t.Errorf("edit %d: persisted %v, want %v", i, saved, o)
		}
	}
}

func TestStore_PersistFailureDoesNotFailEdit(t *testing.T) {
	p := &memPersister{err: errors.New("disk full")}
	s := NewStore(staticSource(nil), WithPersister(p), WithLogger(quietLogger()))

	o := domain.OverrideMap{"ethereum": meta("ethereum", "1", "https://a.example.com")}
	if err := s.SetOverrides(context.Background(), o); err != nil {
		t.Fatalf("SetOverrides() error = %v, want nil", err)
	}
	if got := s.Overrides(); !reflect.DeepEqual(got, o) {
		t.Errorf("Overrides() = %v, want %v", got, o)
	}
}

func TestStore_FailureLeavesStateUnchanged(t *testing.T) {
	good := domain.OverrideMap{"ethereum": meta("ethereum", "1", "https://a.example.com")}
	bad := domain.OverrideMap{"ethereum": {Name: "ethereum", ChainID: "1"}}

	tests := []struct {
		name      string
		src       MetadataSource
		overrides domain.OverrideMap
		wantErr   error
	}{
		{"fetch failure", failingSource(), good, domain.ErrFetch},
		{"build failure", staticSource(nil), bad, domain.ErrBuild},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &memPersister{}
			obs := newRecordingObserver()
			s := NewStore(staticSource(domain.ChainMap{
				"optimism": meta("optimism", "10", "https://op.example.com"),
			}), WithPersister(p), WithObserver(obs), WithLogger(quietLogger()))

			if err := s.SetOverrides(context.Background(), good); err != nil {
				t.Fatalf("initial SetOverrides() error = %v", err)
			}
			before := s.Snapshot()

			s.SetSource(tt.src)
			err := s.SetOverrides(context.Background(), tt.overrides)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetOverrides() error = %v, want %v", err, tt.wantErr)
			}

			after := s.Snapshot()
			if !reflect.DeepEqual(after.Overrides, before.Overrides) {
				t.Errorf("overrides changed: %v -> %v", before.Overrides, after.Overrides)
			}
			if after.Handle != before.Handle {
				t.Error("handle replaced after failed edit")
			}
			if after.Revision != before.Revision {
				t.Errorf("revision changed: %d -> %d", before.Revision, after.Revision)
			}
			if _, n := p.last(); n != 1 {
				t.Errorf("persisted %d times, want 1", n)
			}
			if obs.failures[PathEdit] != 1 {
				t.Errorf("observer failures = %v", obs.failures)
			}
		})
	}
}

// Two overlapping edits A then B where B's build finishes first. The last
// edit to complete wins, so A's overrides end up committed.
func TestStore_ConcurrentEditsLastCompletedWins(t *testing.T) {
	src := newGatedSource(domain.ChainMap{"optimism": meta("optimism", "10", "https://op.example.com")})
	p := &memPersister{}
	s := NewStore(src, WithPersister(p), WithLogger(quietLogger()))

	a := domain.OverrideMap{"ethereum": meta("ethereum", "1", "https://a.example.com")}
	b := domain.OverrideMap{"arbitrum": meta("arbitrum", "42161", "https://b.example.com")}

	errA := make(chan error, 1)
	go func() { errA <- s.SetOverrides(context.Background(), a) }()
	if call := recvCall(t, src); call != 1 {
		t.Fatalf("first fetch = call %d", call)
	}

	errB := make(chan error, 1)
	go func() { errB <- s.SetOverrides(context.Background(), b) }()
	recvCall(t, src)

	src.release(2)
	if err := recvErr(t, errB); err != nil {
		t.Fatalf("edit B error = %v", err)
	}
	if got := s.Overrides(); !reflect.DeepEqual(got, b) {
		t.Fatalf("after B: Overrides() = %v, want %v", got, b)
	}

	src.release(1)
	if err := recvErr(t, errA); err != nil {
		t.Fatalf("edit A error = %v", err)
	}

	if got := s.Overrides(); !reflect.DeepEqual(got, a) {
		t.Errorf("Overrides() = %v, want A's %v", got, a)
	}
	if got, want := s.Handle().KnownChainNames(), []string{"ethereum", "optimism"}; !reflect.DeepEqual(got, want) {
		t.Errorf("KnownChainNames() = %v, want %v", got, want)
	}
	if saved, _ := p.last(); !reflect.DeepEqual(saved, a) {
		t.Errorf("persisted %v, want A's %v", saved, a)
	}
}

func TestStore_EditGuardDropsStaleEdit(t *testing.T) {
	src := newGatedSource(domain.ChainMap{"optimism": meta("optimism", "10", "https://op.example.com")})
	p := &memPersister{}
	s := NewStore(src, WithPersister(p), WithEditGuard(), WithLogger(quietLogger()))

	a := domain.OverrideMap{"ethereum": meta("ethereum", "1", "https://a.example.com")}
	b := domain.OverrideMap{"arbitrum": meta("arbitrum", "42161", "https://b.example.com")}

	errA := make(chan error, 1)
	go func() { errA <- s.SetOverrides(context.Background(), a) }()
	recvCall(t, src)

	errB := make(chan error, 1)
	go func() { errB <- s.SetOverrides(context.Background(), b) }()
	recvCall(t, src)

	src.release(2)
	if err := recvErr(t, errB); err != nil {
		t.Fatalf("edit B error = %v", err)
	}
	src.release(1)
	if err := recvErr(t, errA); !errors.Is(err, domain.ErrEditSuperseded) {
		t.Fatalf("edit A error = %v, want ErrEditSuperseded", err)
	}

	if got := s.Overrides(); !reflect.DeepEqual(got, b) {
		t.Errorf("Overrides() = %v, want B's %v", got, b)
	}
	if got, want := s.Handle().KnownChainNames(), []string{"arbitrum", "optimism"}; !reflect.DeepEqual(got, want) {
		t.Errorf("KnownChainNames() = %v, want %v", got, want)
	}
	if _, n := p.last(); n != 1 {
		t.Errorf("persisted %d times, want 1", n)
	}
}

// With the guard on, a newer edit that fails must not cause an older
// in-flight edit to be dropped.
func TestStore_EditGuardKeepsEditWhenNewerFails(t *testing.T) {
	src := newGatedSource(domain.ChainMap{"optimism": meta("optimism", "10", "https://op.example.com")})
	s := NewStore(src, WithEditGuard(), WithLogger(quietLogger()))

	a := domain.OverrideMap{"ethereum": meta("ethereum", "1", "https://a.example.com")}
	bad := domain.OverrideMap{"ethereum": {Name: "ethereum", ChainID: "1"}}

	errA := make(chan error, 1)
	go func() { errA <- s.SetOverrides(context.Background(), a) }()
	recvCall(t, src)

	errB := make(chan error, 1)
	go func() { errB <- s.SetOverrides(context.Background(), bad) }()
	recvCall(t, src)

	src.release(2)
	if err := recvErr(t, errB); !errors.Is(err, domain.ErrBuild) {
		t.Fatalf("edit B error = %v, want ErrBuild", err)
	}
	src.release(1)
	if err := recvErr(t, errA); err != nil {
		t.Fatalf("edit A error = %v", err)
	}
	if got := s.Overrides(); !reflect.DeepEqual(got, a) {
		t.Errorf("Overrides() = %v, want %v", got, a)
	}
}

func TestStore_SetHandle(t *testing.T) {
	s := NewStore(staticSource(nil), WithLogger(quietLogger()))
	o := domain.OverrideMap{"ethereum": meta("ethereum", "1", "https://a.example.com")}
	if err := s.SetOverrides(context.Background(), o); err != nil {
		t.Fatalf("SetOverrides() error = %v", err)
	}

	h, err := connectivity.New(domain.ChainMap{"base": meta("base", "8453", "https://base.example.com")})
	if err != nil {
		t.Fatalf("connectivity.New() error = %v", err)
	}
	s.SetHandle(h)

	if s.Handle() != h {
		t.Error("Handle() did not return installed handle")
	}
	if got := s.Overrides(); !reflect.DeepEqual(got, o) {
		t.Errorf("SetHandle touched overrides: %v", got)
	}

	s.SetHandle(nil)
	if _, ok := s.ReadyHandle(); ok {
		t.Error("ReadyHandle() ready after SetHandle(nil)")
	}
}

func TestStore_ReadyHandle(t *testing.T) {
	tests := []struct {
		name   string
		chains domain.ChainMap
		want   bool
	}{
		{"zero chains", nil, false},
		{"one chain", domain.ChainMap{"a": meta("a", "1", "https://a.example.com")}, true},
		{"two chains", domain.ChainMap{
			"a": meta("a", "1", "https://a.example.com"),
			"b": meta("b", "2", "https://b.example.com"),
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(staticSource(nil), WithLogger(quietLogger()))
			h, err := connectivity.New(tt.chains)
			if err != nil {
				t.Fatalf("connectivity.New() error = %v", err)
			}
			s.SetHandle(h)

			got, ok := s.ReadyHandle()
			if ok != tt.want {
				t.Fatalf("ReadyHandle() ok = %v, want %v", ok, tt.want)
			}
			if ok && got != h {
				t.Error("ReadyHandle() returned a different handle")
			}
			if !ok && got != nil {
				t.Error("ReadyHandle() returned a handle while not ready")
			}
		})
	}
}

func TestStore_Banner(t *testing.T) {
	p := &memPersister{}
	s := NewStore(staticSource(nil), WithPersister(p), WithLogger(quietLogger()))

	before := s.Snapshot()
	s.SetBanner("maintenance")

	if got := s.Banner(); got != "maintenance" {
		t.Errorf("Banner() = %q, want %q", got, "maintenance")
	}
	after := s.Snapshot()
	if after.Handle != before.Handle || len(after.Overrides) != 0 {
		t.Error("SetBanner touched overrides or handle")
	}
	if _, n := p.last(); n != 0 {
		t.Errorf("banner change persisted %d times, want 0", n)
	}
}

func TestStore_Rebuild(t *testing.T) {
	s := NewStore(staticSource(domain.ChainMap{"optimism": meta("optimism", "10", "https://op.example.com")}),
		WithLogger(quietLogger()))
	o := domain.OverrideMap{"ethereum": meta("ethereum", "1", "https://a.example.com")}
	if err := s.SetOverrides(context.Background(), o); err != nil {
		t.Fatalf("SetOverrides() error = %v", err)
	}

	s.SetSource(staticSource(domain.ChainMap{"base": meta("base", "8453", "https://base.example.com")}))
	if err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	if got, want := s.Handle().KnownChainNames(), []string{"base", "ethereum"}; !reflect.DeepEqual(got, want) {
		t.Errorf("KnownChainNames() = %v, want %v", got, want)
	}
	if got := s.Overrides(); !reflect.DeepEqual(got, o) {
		t.Errorf("Rebuild changed overrides: %v", got)
	}

	s.SetSource(failingSource())
	before := s.Handle()
	if err := s.Rebuild(context.Background()); !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("Rebuild() error = %v, want ErrFetch", err)
	}
	if s.Handle() != before {
		t.Error("failed Rebuild replaced the handle")
	}
}

func TestStore_RebuildDiscardedByGuardedEdit(t *testing.T) {
	src := newGatedSource(domain.ChainMap{"optimism": meta("optimism", "10", "https://op.example.com")})
	s := NewStore(src, WithEditGuard(), WithLogger(quietLogger()))

	rebuilt := make(chan error, 1)
	go func() { rebuilt <- s.Rebuild(context.Background()) }()
	recvCall(t, src)

	o := domain.OverrideMap{"ethereum": meta("ethereum", "1", "https://a.example.com")}
	edited := make(chan error, 1)
	go func() { edited <- s.SetOverrides(context.Background(), o) }()
	recvCall(t, src)

	src.release(2)
	if err := recvErr(t, edited); err != nil {
		t.Fatalf("SetOverrides() error = %v", err)
	}
	committed := s.Handle()

	src.release(1)
	if err := recvErr(t, rebuilt); !errors.Is(err, domain.ErrEditSuperseded) {
		t.Fatalf("Rebuild() error = %v, want ErrEditSuperseded", err)
	}
	if s.Handle() != committed {
		t.Error("stale rebuild replaced the edited handle")
	}
}

func TestStore_RebuildDiscardedByEdit(t *testing.T) {
	src := newGatedSource(domain.ChainMap{"optimism": meta("optimism", "10", "https://op.example.com")})
	s := NewStore(src, WithLogger(quietLogger()))

	rebuilt := make(chan error, 1)
	go func() { rebuilt <- s.Rebuild(context.Background()) }()
	recvCall(t, src)

	o := domain.OverrideMap{"ethereum": meta("ethereum", "1", "https://a.example.com")}
	edited := make(chan error, 1)
	go func() { edited <- s.SetOverrides(context.Background(), o) }()
	recvCall(t, src)

	src.release(2)
	if err := recvErr(t, edited); err != nil {
		t.Fatalf("SetOverrides() error = %v", err)
	}

	src.release(1)
	if err := recvErr(t, rebuilt); !errors.Is(err, domain.ErrEditSuperseded) {
		t.Fatalf("Rebuild() error = %v, want ErrEditSuperseded", err)
	}

	snap := s.Snapshot()
	if !reflect.DeepEqual(snap.Overrides, o) {
		t.Errorf("Overrides = %v, want %v", snap.Overrides, o)
	}
	if got, want := snap.Handle.KnownChainNames(), []string{"ethereum", "optimism"}; !reflect.DeepEqual(got, want) {
		t.Errorf("KnownChainNames() = %v, want %v", got, want)
	}
}

func TestStore_ReadsDoNotWaitForPersistence(t *testing.T) {
	p := newBlockingPersister()
	s := NewStore(staticSource(nil), WithPersister(p), WithLogger(quietLogger()))

	o := domain.OverrideMap{"ethereum": meta("ethereum", "1", "https://a.example.com")}
	edited := make(chan error, 1)
	go func() { edited <- s.SetOverrides(context.Background(), o) }()

	select {
	case <-p.started:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for save to start")
	}

	read := make(chan domain.OverrideMap, 1)
	go func() { read <- s.Overrides() }()
	select {
	case got := <-read:
		if !reflect.DeepEqual(got, o) {
			t.Errorf("Overrides() during save = %v, want %v", got, o)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Overrides() blocked behind a pending save")
	}

	close(p.release)
	if err := recvErr(t, edited); err != nil {
		t.Fatalf("SetOverrides() error = %v", err)
	}
}

func TestStore_SavesInCommitOrder(t *testing.T) {
	p := newBlockingPersister()
	s := NewStore(staticSource(nil), WithPersister(p), WithLogger(quietLogger()))

	first := domain.OverrideMap{"ethereum": meta("ethereum", "1", "https://a.example.com")}
	second := domain.OverrideMap{"base": meta("base", "8453", "https://base.example.com")}

	done := make(chan error, 2)
	go func() { done <- s.SetOverrides(context.Background(), first) }()
	got := <-p.started
	go func() { done <- s.SetOverrides(context.Background(), second) }()

	// The second save cannot start while the first holds the save slot.
	select {
	case o := <-p.started:
		t.Fatalf("second save started early with %v", o)
	case <-time.After(50 * time.Millisecond):
	}

	close(p.release)
	if !reflect.DeepEqual(got, first) {
		t.Errorf("first save = %v, want %v", got, first)
	}
	select {
	case o := <-p.started:
		if !reflect.DeepEqual(o, second) {
			t.Errorf("second save = %v, want %v", o, second)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for second save")
	}
	for range 2 {
		if err := recvErr(t, done); err != nil {
			t.Fatalf("SetOverrides() error = %v", err)
		}
	}
}

func TestStore_Subscribe(t *testing.T) {
	s := NewStore(staticSource(nil), WithLogger(quietLogger()))

	var (
		mu    sync.Mutex
		snaps []Snapshot
	)
	unsubscribe := s.Subscribe(func(snap Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		snaps = append(snaps, snap)
	})

	o := domain.OverrideMap{"ethereum": meta("ethereum", "1", "https://a.example.com")}
	if err := s.SetOverrides(context.Background(), o); err != nil {
		t.Fatalf("SetOverrides() error = %v", err)
	}
	s.SetBanner("hello")

	mu.Lock()
	if len(snaps) != 2 {
		mu.Unlock()
		t.Fatalf("listener called %d times, want 2", len(snaps))
	}
	if !reflect.DeepEqual(snaps[0].Overrides, o) || !snaps[0].Ready() {
		t.Errorf("first snapshot = %+v", snaps[0])
	}
	if snaps[1].Banner != "hello" || snaps[1].Revision <= snaps[0].Revision {
		t.Errorf("second snapshot = %+v", snaps[1])
	}
	mu.Unlock()

	unsubscribe()
	unsubscribe()
	s.SetBanner("bye")

	mu.Lock()
	defer mu.Unlock()
	if len(snaps) != 2 {
		t.Errorf("listener called after unsubscribe, %d calls", len(snaps))
	}
}

func TestStore_SubscribeNotCalledOnFailure(t *testing.T) {
	s := NewStore(failingSource(), WithLogger(quietLogger()))

	calls := 0
	s.Subscribe(func(Snapshot) { calls++ })

	_ = s.SetOverrides(context.Background(), domain.OverrideMap{})
	if calls != 0 {
		t.Errorf("listener called %d times on failed edit", calls)
	}
}

func TestStore_ListenerMayReadStore(t *testing.T) {
	s := NewStore(staticSource(nil), WithLogger(quietLogger()))

	var got string
	s.Subscribe(func(Snapshot) {
		got = s.Banner()
	})
	s.SetBanner("reentrant")

	if got != "reentrant" {
		t.Errorf("listener read %q", got)
	}
}

func TestStore_PublishSkipsOvertakenSnapshot(t *testing.T) {
	s := NewStore(staticSource(nil), WithLogger(quietLogger()))

	var seen []uint64
	s.Subscribe(func(snap Snapshot) {
		seen = append(seen, snap.Revision)
	})

	s.publish(Snapshot{Handle: connectivity.Empty(), Revision: 5})
	s.publish(Snapshot{Handle: connectivity.Empty(), Revision: 4})
	s.publish(Snapshot{Handle: connectivity.Empty(), Revision: 6})

	if want := []uint64{5, 6}; !reflect.DeepEqual(seen, want) {
		t.Errorf("revisions delivered = %v, want %v", seen, want)
	}
}
