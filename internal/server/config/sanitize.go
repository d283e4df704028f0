// Package config defines the server configuration structure.
package config

import "github.com/yndnr/chainstate-go/internal/telemetry/logger"

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for logging configuration without exposing secrets.
// Registry URLs routinely embed provider API keys.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	// Create a shallow copy
	sanitized := *cfg

	if sanitized.Registry.URL != "" {
		sanitized.Registry.URL = logger.RedactURL(sanitized.Registry.URL)
	}

	return &sanitized
}
