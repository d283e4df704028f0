package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".chainstate", "cli.yaml")
}

// Load loads CLI configuration from path. A missing file yields the
// defaults; fields absent from the file keep their default values.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cli config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse cli config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path with owner-only permissions.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode cli config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Merge overrides cfg with non-empty values from env and flags, in that
// order. Recognized keys are "server" and "output"; env keys use the
// CHAINSTATE_ prefix.
func Merge(cfg *CLIConfig, env map[string]string, flags map[string]string) *CLIConfig {
	out := *cfg
	if v := env["CHAINSTATE_SERVER"]; v != "" {
		out.DefaultServer = v
	}
	if v := env["CHAINSTATE_OUTPUT"]; v != "" {
		out.DefaultOutput = v
	}
	if v := flags["server"]; v != "" {
		out.DefaultServer = v
	}
	if v := flags["output"]; v != "" {
		out.DefaultOutput = v
	}
	return &out
}
