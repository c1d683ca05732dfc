// Package api implements the read/control HTTP surface over a pipeline
// Driver: situation and episode listings, a health summary, and the
// update_config control endpoint (spec.md §6).
package api
