// Package domain defines the core domain models for chainstate.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - ChainMetadata: descriptor of one network (name, chain id, endpoints)
//   - ChainMap / OverrideMap: mappings from chain name to metadata
//   - Errors: coded domain error definitions
//
// OverrideMap is the only entity that is ever persisted. Everything
// derived from it (the connectivity handle) is rebuilt, never stored.
package domain
