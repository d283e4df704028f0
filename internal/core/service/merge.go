package service

import "github.com/yndnr/chainstate-go/internal/core/domain"

// Merge combines remote metadata with user overrides.
//
// The result holds the union of both key sets. On a key collision the
// override replaces the remote entry entirely; fields are never merged.
// Inputs are not modified and the result shares no memory with them.
func Merge(remote domain.ChainMap, overrides domain.OverrideMap) domain.ChainMap {
	merged := make(domain.ChainMap, len(remote)+len(overrides))
	for name, m := range remote {
		merged[name] = m.Clone()
	}
	for name, m := range overrides {
		merged[name] = m.Clone()
	}
	return merged
}
