// Package config defines the server configuration structure.
package config

import (
	"github.com/yndnr/chainstate-go/internal/registry"
	"github.com/yndnr/chainstate-go/internal/storage"
)

// ToKVConfig converts the storage section to a storage.KVConfig.
func ToKVConfig(cfg *ServerConfig) storage.KVConfig {
	kv := storage.DefaultKVConfig(cfg.Storage.Dir)
	kv.Engine = cfg.Storage.Engine
	kv.Badger.SyncWrites = cfg.Storage.SyncWrites
	if cfg.Storage.GCInterval > 0 {
		kv.Badger.GCInterval = cfg.Storage.GCInterval.String()
	}
	return kv
}

// ToRegistryConfig converts the registry section to a registry.Config.
func ToRegistryConfig(cfg *ServerConfig) registry.Config {
	return registry.Config{
		Kind:    cfg.Registry.Kind,
		Path:    cfg.Registry.Path,
		URL:     cfg.Registry.URL,
		Timeout: cfg.Registry.Timeout,
		Rate:    cfg.Registry.Rate,
		CAFile:  cfg.Registry.CAFile,
	}
}
