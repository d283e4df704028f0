// Package handler provides HTTP request handlers for chainstate.
//
// This package contains handlers for all HTTP endpoints:
//
//   - state.go: State snapshot, known chains, rebuild, banner
//   - overrides.go: Override map reads and edits
//   - health.go: Health and readiness checks
//
// All handlers follow a consistent pattern:
//
//   - Parse and validate request
//   - Call the state store
//   - Format and return response
//   - Handle errors with appropriate HTTP status codes
package handler
