// Package main provides the entry point for chainstate-server.
//
// chainstate-server owns the chain-connectivity state of an
// application: it merges remote chain metadata with operator overrides,
// persists the overrides, rehydrates them at startup and serves the
// result over HTTP.
//
// Usage:
//
//	chainstate-server --config /etc/chainstate/server.yaml
//	chainstate-server --reset-state
//
// Every configuration key can also be set through CHAINSTATE_*
// environment variables, e.g. CHAINSTATE_SERVER_HTTP_ADDR.
package main
