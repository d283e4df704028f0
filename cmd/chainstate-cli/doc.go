// Package main provides the entry point for chainstate-cli.
//
// The CLI talks to a running chainstate-server over its HTTP API:
//
//   - status: readiness, rehydration phase, revision and banner
//   - chains list|get: chains known to the connectivity handle
//   - overrides list|set|remove|replace: local chain metadata overrides
//   - rebuild: refetch remote metadata and rebuild the handle
//   - banner: set or clear the display banner
//
// Usage:
//
//	chainstate-cli status
//	chainstate-cli -o json chains get ethereum
//	chainstate-cli overrides set ethereum --file ethereum.yaml
package main
