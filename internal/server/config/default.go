// Package config defines the server configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5080"
	DefaultRateBurst       = 20
	DefaultShutdownTimeout = 30 * time.Second

	DefaultStorageEngine = "badger"
	DefaultDataDir       = "/var/lib/chainstate-server/data"
	DefaultStorageKey    = "chainstate"
	DefaultGCInterval    = 10 * time.Minute

	DefaultRegistryKind    = "static"
	DefaultRegistryTimeout = 10 * time.Second

	DefaultRehydrateTimeout = 2 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				RateBurst:       DefaultRateBurst,
				ShutdownTimeout: DefaultShutdownTimeout,
			},
		},
		Storage: StorageSection{
			Engine:     DefaultStorageEngine,
			Dir:        DefaultDataDir,
			Key:        DefaultStorageKey,
			SyncWrites: true,
			GCInterval: DefaultGCInterval,
		},
		Registry: RegistrySection{
			Kind:    DefaultRegistryKind,
			Timeout: DefaultRegistryTimeout,
		},
		State: StateSection{
			RehydrateTimeout: DefaultRehydrateTimeout,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsSection{
			Enabled: true,
		},
	}
}

// DefaultMap returns the defaults as dotted keys for confloader.LoadMap.
// Loading it first lets environment variables find keys whose segments
// contain underscores.
func DefaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"server.http.addr":             d.Server.HTTP.Addr,
		"server.http.tls_cert_file":    d.Server.HTTP.TLSCertFile,
		"server.http.tls_key_file":     d.Server.HTTP.TLSKeyFile,
		"server.http.rate_limit":       d.Server.HTTP.RateLimit,
		"server.http.rate_burst":       d.Server.HTTP.RateBurst,
		"server.http.shutdown_timeout": d.Server.HTTP.ShutdownTimeout.String(),
		"storage.engine":               d.Storage.Engine,
		"storage.dir":                  d.Storage.Dir,
		"storage.key":                  d.Storage.Key,
		"storage.sync_writes":          d.Storage.SyncWrites,
		"storage.gc_interval":          d.Storage.GCInterval.String(),
		"registry.kind":                d.Registry.Kind,
		"registry.path":                d.Registry.Path,
		"registry.url":                 d.Registry.URL,
		"registry.timeout":             d.Registry.Timeout.String(),
		"registry.rate":                d.Registry.Rate,
		"registry.ca_file":             d.Registry.CAFile,
		"registry.watch":               d.Registry.Watch,
		"state.edit_guard":             d.State.EditGuard,
		"state.rehydrate_timeout":      d.State.RehydrateTimeout.String(),
		"log.level":                    d.Log.Level,
		"log.format":                   d.Log.Format,
		"metrics.enabled":              d.Metrics.Enabled,
	}
}
