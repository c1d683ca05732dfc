// Package ingest is the thin HTTP adapter in front of a pipeline.Driver's
// ingest(alert) and ingest_raw_event(event) inputs (spec.md §6). It owns no
// pipeline state itself — validation here is limited to the minimum needed
// to reject obviously malformed requests before they reach the driver's
// own malformed-input handling (spec.md §7).
package ingest
