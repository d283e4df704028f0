package storage

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/yndnr/chainstate-go/internal/core/domain"
)

func testOverrides() domain.OverrideMap {
	return domain.OverrideMap{
		"ethereum": {
			Name:    "ethereum",
			ChainID: "1",
			RPCURLs: []domain.RPCURL{{HTTP: "https://eth.example.com"}},
			NativeToken: &domain.NativeToken{
				Name: "Ether", Symbol: "ETH", Decimals: 18,
			},
		},
	}
}

func TestPersister_RoundTrip(t *testing.T) {
	ctx := context.Background()
	p := NewPersister(NewMemoryEngine())

	if _, ok, err := p.LoadOverrides(ctx); err != nil || ok {
		t.Fatalf("LoadOverrides() on empty store = ok %v, err %v", ok, err)
	}

	want := testOverrides()
	if err := p.SaveOverrides(ctx, want); err != nil {
		t.Fatalf("SaveOverrides() error = %v", err)
	}

	got, ok, err := p.LoadOverrides(ctx)
	if err != nil || !ok {
		t.Fatalf("LoadOverrides() = ok %v, err %v", ok, err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadOverrides() = %v, want %v", got, want)
	}
}

func TestPersister_EmptyOverrides(t *testing.T) {
	ctx := context.Background()
	p := NewPersister(NewMemoryEngine())

	if err := p.SaveOverrides(ctx, domain.OverrideMap{}); err != nil {
		t.Fatal(err)
	}
	got, ok, err := p.LoadOverrides(ctx)
	if err != nil || !ok {
		t.Fatalf("LoadOverrides() = ok %v, err %v", ok, err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("LoadOverrides() = %#v, want empty map", got)
	}
}

func TestPersister_RecordLayout(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryEngine()
	p := NewPersister(kv)

	if err := p.SaveOverrides(ctx, testOverrides()); err != nil {
		t.Fatal(err)
	}

	raw, err := kv.Get(ctx, []byte(DefaultKey))
	if err != nil {
		t.Fatal(err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc) != 2 {
		t.Errorf("record has keys %v, want schemaVersion and payload only", doc)
	}
	if v, _ := doc["schemaVersion"].(float64); int(v) != CurrentVersion {
		t.Errorf("schemaVersion = %v, want %d", doc["schemaVersion"], CurrentVersion)
	}
	pl, _ := doc["payload"].(map[string]any)
	if len(pl) != 1 || pl["chainConfigs"] == nil {
		t.Errorf("payload = %v, want chainConfigs only", pl)
	}
	eth := pl["chainConfigs"].(map[string]any)["ethereum"].(map[string]any)
	if eth["chainId"] != "1" {
		t.Errorf("ethereum.chainId = %v", eth["chainId"])
	}
}

func TestPersister_LoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"stale version", `{"schemaVersion":0,"payload":{"chainConfigs":{}}}`, domain.ErrVersionMismatch},
		{"future version", `{"schemaVersion":2,"payload":{"chainConfigs":{}}}`, domain.ErrVersionMismatch},
		{"stale version with foreign payload", `{"schemaVersion":0,"payload":[1,2,3]}`, domain.ErrVersionMismatch},
		{"not json", `not json`, domain.ErrDeserialization},
		{"missing payload", `{"schemaVersion":1}`, domain.ErrDeserialization},
		{"bad payload", `{"schemaVersion":1,"payload":{"chainConfigs":[]}}`, domain.ErrDeserialization},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			kv := NewMemoryEngine()
			if err := kv.Set(ctx, []byte(DefaultKey), []byte(tt.raw)); err != nil {
				t.Fatal(err)
			}

			got, ok, err := NewPersister(kv).LoadOverrides(ctx)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("LoadOverrides() error = %v, want %v", err, tt.wantErr)
			}
			if ok || got != nil {
				t.Errorf("LoadOverrides() returned partial state: %v, ok %v", got, ok)
			}
		})
	}
}

func TestPersister_SchemaVersionBump(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryEngine()

	if err := NewPersister(kv).SaveOverrides(ctx, testOverrides()); err != nil {
		t.Fatal(err)
	}

	_, _, err := NewPersister(kv, WithSchemaVersion(CurrentVersion+1)).LoadOverrides(ctx)
	if !errors.Is(err, domain.ErrVersionMismatch) {
		t.Errorf("LoadOverrides() error = %v, want ErrVersionMismatch", err)
	}
}

func TestPersister_KeyAndClear(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryEngine()
	p := NewPersister(kv, WithKey("custom"))
	if p.Key() != "custom" {
		t.Errorf("Key() = %q", p.Key())
	}
	if NewPersister(kv, WithKey("")).Key() != DefaultKey {
		t.Error("empty key was not ignored")
	}

	if err := p.SaveOverrides(ctx, testOverrides()); err != nil {
		t.Fatal(err)
	}
	if _, err := kv.Get(ctx, []byte(DefaultKey)); !errors.Is(err, ErrKeyNotFound) {
		t.Error("record written under default key")
	}

	if err := p.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := p.LoadOverrides(ctx); ok || err != nil {
		t.Errorf("LoadOverrides() after Clear = ok %v, err %v", ok, err)
	}
}

func TestPersister_StorageError(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryEngine()
	kv.Close()
	p := NewPersister(kv)

	if err := p.SaveOverrides(ctx, testOverrides()); !errors.Is(err, domain.ErrStorage) {
		t.Errorf("SaveOverrides() error = %v, want ErrStorage", err)
	}
	if _, _, err := p.LoadOverrides(ctx); !errors.Is(err, domain.ErrStorage) {
		t.Errorf("LoadOverrides() error = %v, want ErrStorage", err)
	}
}
