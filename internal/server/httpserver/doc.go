// Package httpserver provides the HTTP/HTTPS server for chainstate.
//
// This package implements the external API using stdlib net/http:
//
//   - State endpoints: /v1/state, /v1/chains, /v1/chains/{chain}
//   - Override endpoints: /v1/overrides, /v1/overrides/{chain}
//   - Operations: /v1/rebuild, /v1/banner
//   - Health endpoints: /health, /ready, /metrics
//
// Features:
//
//   - Middleware chain: RequestID, Recover, RateLimit, Audit, Metrics
//   - Graceful shutdown with configurable timeout
//   - Prometheus metrics integration
package httpserver
