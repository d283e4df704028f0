package storage

import (
	"context"
	"sync"
)

// MemoryEngine is a KVEngine that keeps data in process memory.
// It is used when persistence across restarts is not wanted, and in tests.
type MemoryEngine struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemoryEngine creates an empty in-memory engine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{data: make(map[string][]byte)}
}

// Get retrieves a copy of the value stored under key.
func (e *MemoryEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, ErrClosed
	}
	v, ok := e.data[string(key)]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value under key.
func (e *MemoryEngine) Set(ctx context.Context, key, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.data[string(key)] = append([]byte(nil), value...)
	return nil
}

// Delete removes key.
func (e *MemoryEngine) Delete(ctx context.Context, key []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	delete(e.data, string(key))
	return nil
}

// GC is a no-op.
func (e *MemoryEngine) GC(ctx context.Context) (uint64, error) {
	return 0, nil
}

// Stats reports key count and value bytes held.
func (e *MemoryEngine) Stats(ctx context.Context) (*KVStats, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, ErrClosed
	}
	var size uint64
	for k, v := range e.data {
		size += uint64(len(k) + len(v))
	}
	return &KVStats{
		TotalKeys: uint64(len(e.data)),
		TotalSize: size,
	}, nil
}

// Close drops all data.
func (e *MemoryEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.data = nil
	return nil
}
