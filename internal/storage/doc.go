// Package storage persists the override map.
//
// Two layers:
//
//   - KVEngine: an embedded key-value byte store. BadgerEngine is the
//     durable implementation; MemoryEngine keeps data for the process
//     lifetime only.
//   - Persister: encodes the override map into a versioned record and
//     stores it under a single key. Records with another schema version
//     are discarded on load.
//
// Only overrides are ever written. The connectivity handle and metadata
// fetched from the registry are always derived at runtime.
package storage
