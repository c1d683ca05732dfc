// Package ws broadcasts the pipeline's published situation snapshot to
// connected WebSocket clients. Unlike a poll-on-a-ticker hub, the Hub
// registers itself as a pipeline.Subscriber so it broadcasts exactly once
// per tick, in lockstep with the rest of the pipeline's publication model
// (spec.md §6).
package ws
