// Package config defines the server configuration structure.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/yndnr/chainstate-go/internal/registry"
	"github.com/yndnr/chainstate-go/internal/storage"
	"github.com/yndnr/chainstate-go/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifyRegistry(&cfg.Registry); err != nil {
		return err
	}
	if err := verifyLog(&cfg.Log); err != nil {
		return err
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		return fmt.Errorf("server.http.addr %q: %w", cfg.HTTP.Addr, err)
	}

	cert, key := cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile
	if (cert == "") != (key == "") {
		return errors.New("server.http.tls_cert_file and server.http.tls_key_file must be set together")
	}
	for _, f := range []string{cert, key} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("tls file: %w", err)
		}
	}

	if cfg.HTTP.RateLimit < 0 {
		return errors.New("server.http.rate_limit must not be negative")
	}
	if cfg.HTTP.RateLimit > 0 && cfg.HTTP.RateBurst < 1 {
		return errors.New("server.http.rate_burst must be at least 1 when rate limiting is enabled")
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Engine {
	case storage.EngineBadger:
		if cfg.Dir == "" {
			return errors.New("storage.dir is required for the badger engine")
		}
		if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
			return errors.New("cannot create data directory: " + err.Error())
		}
	case storage.EngineMemory:
	default:
		return fmt.Errorf("storage.engine %q: must be %q or %q", cfg.Engine, storage.EngineBadger, storage.EngineMemory)
	}

	if cfg.Key == "" {
		return errors.New("storage.key is required")
	}
	return nil
}

func verifyRegistry(cfg *RegistrySection) error {
	switch cfg.Kind {
	case registry.KindStatic:
	case registry.KindFile:
		if cfg.Path == "" {
			return errors.New("registry.path is required for the file registry")
		}
	case registry.KindHTTP:
		if cfg.URL == "" {
			return errors.New("registry.url is required for the http registry")
		}
	default:
		return fmt.Errorf("registry.kind %q: must be one of static, file, http", cfg.Kind)
	}

	if cfg.Rate < 0 {
		return errors.New("registry.rate must not be negative")
	}
	if cfg.CAFile != "" {
		if cfg.Kind != registry.KindHTTP {
			return errors.New("registry.ca_file requires the http registry")
		}
		if _, err := os.Stat(cfg.CAFile); err != nil {
			return fmt.Errorf("registry.ca_file: %w", err)
		}
	}
	if cfg.Watch && cfg.Kind != registry.KindFile {
		return errors.New("registry.watch requires the file registry")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch cfg.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q: must be json or text", cfg.Format)
	}
	return nil
}
