// Package buildinfo provides build information for chainstate.
//
// This package exposes build-time information injected via ldflags:
//
//   - Version: Semantic version (e.g., "1.0.0")
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// Commit and GoVersion fall back to the module build info embedded by the
// Go toolchain when ldflags do not set them.
//
// Usage:
//
//	go build -ldflags "-X github.com/yndnr/chainstate-go/internal/infra/buildinfo.Version=v1.0.0"
package buildinfo
