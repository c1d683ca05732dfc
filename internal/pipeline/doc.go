// Package pipeline wires the Threshold Engine, Deduplicator, Episode
// Clusterer, Situation Builder and Scorer into a single tick-driven Driver
// (spec.md §5): one goroutine owns all stage state and runs the full
// pipeline pass on every tick, publishing a complete situation snapshot to
// subscribers at the end of each pass.
package pipeline
