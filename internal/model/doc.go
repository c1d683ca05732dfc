// Package model defines the in-memory entities the correlation pipeline
// operates on: Alert, RawEvent, Episode, Situation, and GraphHints. These are
// the canonical representations shared by every pipeline stage — separate
// from any wire format a transport adapter chooses to use.
package model
