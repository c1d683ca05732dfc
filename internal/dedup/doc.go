// Package dedup implements the Deduplicator (spec.md §4.2): TTL-based
// duplicate collapsing, status-toggle flap tracking, and per-entity rate
// limiting. Map-lookup misses are normal control flow here, not errors.
package dedup
