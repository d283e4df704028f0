// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for chainstate-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Storage  StorageSection  `koanf:"storage"`
	Registry RegistrySection `koanf:"registry"`
	State    StateSection    `koanf:"state"`
	Log      LogSection      `koanf:"log"`
	Metrics  MetricsSection  `koanf:"metrics"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	// RateLimit is the per client IP request rate in requests per second.
	// Zero disables rate limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StorageSection configures where overrides are persisted.
type StorageSection struct {
	// Engine is "badger" or "memory".
	Engine string `koanf:"engine"`
	Dir    string `koanf:"dir"`
	// Key is the storage key the override record lives under.
	Key string `koanf:"key"`
	// SyncWrites fsyncs every badger write.
	SyncWrites bool          `koanf:"sync_writes"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// RegistrySection configures the chain metadata source.
type RegistrySection struct {
	// Kind is "static", "file" or "http".
	Kind    string        `koanf:"kind"`
	Path    string        `koanf:"path"`
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
	// Rate caps fetches per second against an http registry.
	Rate float64 `koanf:"rate"`
	// CAFile is a PEM bundle trusted in addition to the system roots
	// when fetching an https registry.
	CAFile string `koanf:"ca_file"`
	// Watch rebuilds the handle when a file registry changes on disk.
	Watch bool `koanf:"watch"`
}

// StateSection configures the state container.
type StateSection struct {
	// EditGuard rejects override edits superseded by a newer committed edit.
	EditGuard        bool          `koanf:"edit_guard"`
	RehydrateTimeout time.Duration `koanf:"rehydrate_timeout"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	Enabled bool `koanf:"enabled"`
}
