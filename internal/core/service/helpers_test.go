package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yndnr/chainstate-go/internal/core/domain"
)

func meta(name, chainID, rpc string) domain.ChainMetadata {
	return domain.ChainMetadata{
		Name:    name,
		ChainID: chainID,
		RPCURLs: []domain.RPCURL{{HTTP: rpc}},
	}
}

// sourceFunc adapts a function to MetadataSource.
type sourceFunc func(ctx context.Context) (domain.ChainMap, error)

func (f sourceFunc) GetMetadata(ctx context.Context) (domain.ChainMap, error) {
	return f(ctx)
}

func staticSource(chains domain.ChainMap) MetadataSource {
	return sourceFunc(func(context.Context) (domain.ChainMap, error) {
		return chains.Clone(), nil
	})
}

var errSourceDown = errors.New("registry unavailable")

func failingSource() MetadataSource {
	return sourceFunc(func(context.Context) (domain.ChainMap, error) {
		return nil, errSourceDown
	})
}

// gatedSource blocks every fetch until the test releases it, so tests can
// choose the order in which concurrent builds complete.
type gatedSource struct {
	chains  domain.ChainMap
	started chan int

	mu    sync.Mutex
	calls int
	gates map[int]chan struct{}
}

func newGatedSource(chains domain.ChainMap) *gatedSource {
	return &gatedSource{
		chains:  chains,
		started: make(chan int, 16),
		gates:   make(map[int]chan struct{}),
	}
}

func (g *gatedSource) gate(call int) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[call]
	if !ok {
		ch = make(chan struct{})
		g.gates[call] = ch
	}
	return ch
}

func (g *gatedSource) GetMetadata(ctx context.Context) (domain.ChainMap, error) {
	g.mu.Lock()
	g.calls++
	call := g.calls
	g.mu.Unlock()

	gate := g.gate(call)
	g.started <- call

	select {
	case <-gate:
		return g.chains.Clone(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedSource) release(call int) {
	close(g.gate(call))
}

// memPersister records every saved override map.
type memPersister struct {
	mu    sync.Mutex
	saved []domain.OverrideMap
	err   error
}

func (p *memPersister) SaveOverrides(_ context.Context, o domain.OverrideMap) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.saved = append(p.saved, o.Clone())
	return nil
}

func (p *memPersister) last() (domain.OverrideMap, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.saved) == 0 {
		return nil, 0
	}
	return p.saved[len(p.saved)-1], len(p.saved)
}

// memLoader returns a fixed load result.
type memLoader struct {
	overrides domain.OverrideMap
	ok        bool
	err       error
}

func (l memLoader) LoadOverrides(context.Context) (domain.OverrideMap, bool, error) {
	return l.overrides.Clone(), l.ok, l.err
}

// recordingObserver counts rebuild observations per path and result.
type recordingObserver struct {
	mu       sync.Mutex
	rebuilds map[string]int
	failures map[string]int
	ready    bool
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		rebuilds: make(map[string]int),
		failures: make(map[string]int),
	}
}

func (o *recordingObserver) ObserveRebuild(path string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rebuilds[path]++
	if err != nil {
		o.failures[path]++
	}
}

func (o *recordingObserver) ObserveState(_, _ int, ready bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ready = ready
}

// blockingPersister holds every save until the test releases it.
type blockingPersister struct {
	started chan domain.OverrideMap
	release chan struct{}
}

func newBlockingPersister() *blockingPersister {
	return &blockingPersister{
		started: make(chan domain.OverrideMap, 4),
		release: make(chan struct{}),
	}
}

func (p *blockingPersister) SaveOverrides(_ context.Context, o domain.OverrideMap) error {
	p.started <- o.Clone()
	<-p.release
	return nil
}
