// Package metric provides Prometheus metrics for chainstate.
//
//   - prometheus.go: the Registry, rebuild/state/request metrics and the
//     /metrics handler
//   - collector.go: a collector reporting storage engine statistics at
//     scrape time
//
// Registry implements the state store's observer interface, so rebuild
// outcomes and readiness are recorded without the store importing
// Prometheus.
package metric
