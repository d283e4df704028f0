// Package registry provides chain metadata sources.
//
// A source returns a snapshot of remote chain metadata keyed by chain name.
// Three kinds are available:
//
//   - static: an in-process map, replaceable at runtime
//   - file: a YAML or JSON document on disk, re-read when it changes
//   - http: a JSON document fetched from a registry endpoint
//
// Sources do not retry. A failed fetch is reported to the caller, which
// keeps its previous state.
package registry
