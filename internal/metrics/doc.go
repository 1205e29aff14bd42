// Package metrics aggregates per-run controller statistics into a Prometheus
// registry and exports them in the node_exporter textfile format.
//
// Each Recorder owns its registry, so concurrent runs in one process (tests)
// never share counters.
package metrics
