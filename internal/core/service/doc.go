// Package service provides the chain configuration services for chainstate.
//
// Services contain the synchronization logic between remote chain metadata,
// user overrides and the derived connectivity handle. They define
// interfaces for their external dependencies (metadata source, persistence,
// observability), allowing for dependency injection and testability.
//
// This package contains:
//
//   - Merge: pure merge of remote metadata with user overrides
//   - Builder: fetch + merge + construct pipeline producing a handle
//   - Store: the owned application state container
//   - Rehydrator: one-shot startup loader that rebuilds the handle
//
// Rebuilds are never cancelled by newer edits. Concurrent SetOverrides
// calls commit in completion order unless the edit guard is enabled.
package service
