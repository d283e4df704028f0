// Package config provides CLI configuration for chainstate-cli.
//
// The CLI reads an optional YAML file (~/.chainstate/cli.yaml) holding
// the default server address, output format and request timeout.
// Command-line flags and CHAINSTATE_* environment variables take
// precedence over the file.
package config
