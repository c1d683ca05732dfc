// Package episode implements the Episode Clusterer (spec.md §4.3): it
// assigns each surviving alert to a current episode keyed by
// (entity, fingerprint), applies the gap-break rule, and evicts episodes
// that have aged out of the retention window.
package episode
