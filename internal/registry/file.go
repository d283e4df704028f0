package registry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/chainstate-go/internal/core/domain"
	"github.com/yndnr/chainstate-go/internal/infra/confloader"
)

// File serves chain metadata from a YAML (or JSON) document mapping chain
// names to metadata. The parsed document is cached until Invalidate is
// called or the watcher reports a change.
type File struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	cached domain.ChainMap
}

// NewFile creates a File source reading path.
func NewFile(path string, logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.Default()
	}
	return &File{
		path:   filepath.Clean(path),
		logger: logger.With("component", "registry", "path", path),
	}
}

// Path returns the document path.
func (f *File) Path() string {
	return f.path
}

// GetMetadata returns the chains in the document.
func (f *File) GetMetadata(ctx context.Context) (domain.ChainMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cached == nil {
		chains, err := f.read()
		if err != nil {
			return nil, err
		}
		f.cached = chains
		f.logger.Debug("registry file loaded", "chain_count", len(chains))
	}
	return f.cached.Clone(), nil
}

func (f *File) read() (domain.ChainMap, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read registry file: %w", err)
	}

	var chains domain.ChainMap
	if err := yaml.Unmarshal(data, &chains); err != nil {
		return nil, fmt.Errorf("parse registry file %s: %w", f.path, err)
	}
	return normalize(chains), nil
}

// Invalidate drops the cached document.
func (f *File) Invalidate() {
	f.mu.Lock()
	f.cached = nil
	f.mu.Unlock()
}

// Watch registers the document with w. When it changes the cache is
// dropped and onChange, if non-nil, is called.
func (f *File) Watch(w *confloader.Watcher, onChange func()) error {
	w.OnChange(func(path string) {
		if filepath.Clean(path) != f.path {
			return
		}
		f.logger.Info("registry file changed")
		f.Invalidate()
		if onChange != nil {
			onChange()
		}
	})
	return w.Watch(f.path)
}
