// Package situation implements the Situation Builder (spec.md §4.4): it
// groups time-overlapping, joinable episodes into situations using a
// union-find over dense integer indices into the live-episode slice, per the
// design note in spec.md §9 (arena-style disjoint set, not heap references).
package situation
