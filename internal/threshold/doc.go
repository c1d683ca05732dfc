// Package threshold implements the Threshold Engine (spec.md §4.1): it folds
// bursts of matching raw cluster events into synthesized alerts using
// per-rule sliding windows and cooldowns. Malformed events are dropped with
// a counter increment — never fatal, matching the error-handling design in
// spec.md §7.
package threshold
