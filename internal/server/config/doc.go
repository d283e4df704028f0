// Package config provides server configuration for chainstate.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Business validation (addresses, enums, file existence)
//   - sanitize.go: Log sanitization (hide credentials in registry URLs)
//   - convert.go: Mapping onto storage and registry configs
//
// Configuration is loaded via internal/infra/confloader and supports
// multiple sources: defaults, files, environment variables, and flags.
package config
