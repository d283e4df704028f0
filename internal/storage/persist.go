package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yndnr/chainstate-go/internal/core/domain"
)

const (
	// CurrentVersion is the schema version written by SaveOverrides.
	// Records with any other version are discarded on load.
	CurrentVersion = 1

	// DefaultKey is the storage key of the override record.
	DefaultKey = "chainstate"
)

// record is the persisted envelope.
//
//	{"schemaVersion": 1, "payload": {"chainConfigs": {...}}}
type record struct {
	SchemaVersion int             `json:"schemaVersion"`
	Payload       json.RawMessage `json:"payload"`
}

type payload struct {
	ChainConfigs domain.OverrideMap `json:"chainConfigs"`
}

// Persister saves and loads the override map as a versioned record.
type Persister struct {
	kv      KVEngine
	key     []byte
	version int
}

// PersisterOption configures a Persister.
type PersisterOption func(*Persister)

// WithKey sets the storage key. Empty keys are ignored.
func WithKey(key string) PersisterOption {
	return func(p *Persister) {
		if key != "" {
			p.key = []byte(key)
		}
	}
}

// WithSchemaVersion overrides the schema version read and written.
func WithSchemaVersion(v int) PersisterOption {
	return func(p *Persister) {
		p.version = v
	}
}

// NewPersister creates a Persister on top of kv.
func NewPersister(kv KVEngine, opts ...PersisterOption) *Persister {
	p := &Persister{
		kv:      kv,
		key:     []byte(DefaultKey),
		version: CurrentVersion,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Key returns the storage key.
func (p *Persister) Key() string {
	return string(p.key)
}

// LoadOverrides reads the persisted override map.
//
// ok is false with a nil error when nothing has been saved. An undecodable
// record returns domain.ErrDeserialization and a record written with
// another schema version returns domain.ErrVersionMismatch; in both cases
// nothing from the record is returned.
func (p *Persister) LoadOverrides(ctx context.Context) (domain.OverrideMap, bool, error) {
	data, err := p.kv.Get(ctx, p.key)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, domain.ErrStorage.WithCause(err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false, domain.ErrDeserialization.WithCause(err)
	}
	if rec.SchemaVersion != p.version {
		return nil, false, domain.ErrVersionMismatch.WithDetails(
			fmt.Sprintf("stored version %d, current version %d", rec.SchemaVersion, p.version))
	}

	var pl payload
	if len(rec.Payload) == 0 {
		return nil, false, domain.ErrDeserialization.WithDetails("missing payload")
	}
	if err := json.Unmarshal(rec.Payload, &pl); err != nil {
		return nil, false, domain.ErrDeserialization.WithCause(err)
	}

	return pl.ChainConfigs.Clone(), true, nil
}

// SaveOverrides writes overrides as the current record. Nothing but the
// override map is serialized.
func (p *Persister) SaveOverrides(ctx context.Context, overrides domain.OverrideMap) error {
	body, err := json.Marshal(payload{ChainConfigs: overrides.Clone()})
	if err != nil {
		return domain.ErrStorage.WithCause(err)
	}
	data, err := json.Marshal(record{SchemaVersion: p.version, Payload: body})
	if err != nil {
		return domain.ErrStorage.WithCause(err)
	}
	if err := p.kv.Set(ctx, p.key, data); err != nil {
		return domain.ErrStorage.WithCause(err)
	}
	return nil
}

// Clear removes the persisted record.
func (p *Persister) Clear(ctx context.Context) error {
	if err := p.kv.Delete(ctx, p.key); err != nil {
		return domain.ErrStorage.WithCause(err)
	}
	return nil
}
