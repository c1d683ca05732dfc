// Package metrics exposes the pipeline's per-tick measurements (spec.md §6)
// as Prometheus collectors, served over /metrics via promhttp. It mirrors
// the registry/gauge-vec wiring used elsewhere in this codebase's lineage,
// trimmed to the fixed set of series this domain needs — no generic
// Provider abstraction, since nothing here calls for pluggable backends.
package metrics
