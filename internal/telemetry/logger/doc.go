// Package logger provides structured logging for chainstate.
//
// It wraps log/slog:
//
//   - logger.go: Logger interface, JSON/text handlers, runtime level changes
//   - context.go: context propagation of the logger and request ID
//   - redact.go: masking of credentials in attribute values, including
//     API keys embedded in RPC and registry URLs
package logger
