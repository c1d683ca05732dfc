package dedup

import (
	"sort"

	"github.com/opspulse/sentinel/internal/model"
)

// DefaultMaxAgeMs is the garbage-collection horizon for a dedup key's
// bookkeeping maps (spec.md §4.2's "configurable maxAge, default 10 min").
const DefaultMaxAgeMs = 10 * 60 * 1000

// rateWindowMs is the fixed 60-second window used for per-entity rate
// limiting (spec.md §4.2).
const rateWindowMs = 60 * 1000

// Stats summarizes one Process call, used to feed the tick metrics.
type Stats struct {
	Seen       int
	Duplicates int
	FlapDrops  int
	RateDrops  int
}

// Deduplicator collapses repeated alerts within a TTL, tracks status-toggle
// flaps, and enforces a per-entity rate ceiling. Not safe for concurrent use
// — the pipeline driver owns it exclusively, per spec.md §5.
type Deduplicator struct {
	dedupTTLMs        int64
	flapDropThreshold int
	maxAlertsPerMin   int
	maxAgeMs          int64

	lastSeen   map[string]int64
	count      map[string]int64
	flapCount  map[string]int64
	lastStatus map[string]model.Status

	rateWindow map[string][]int64 // entity-key -> admitted alert timestamps
}

// New creates a Deduplicator with the given TTL (ms), flap-drop threshold,
// and per-entity rate ceiling.
func New(dedupTTLMs int64, flapDropThreshold, maxAlertsPerMin int) *Deduplicator {
	return &Deduplicator{
		dedupTTLMs:        dedupTTLMs,
		flapDropThreshold: flapDropThreshold,
		maxAlertsPerMin:   maxAlertsPerMin,
		maxAgeMs:          DefaultMaxAgeMs,
		lastSeen:          make(map[string]int64),
		count:             make(map[string]int64),
		flapCount:         make(map[string]int64),
		lastStatus:        make(map[string]model.Status),
		rateWindow:        make(map[string][]int64),
	}
}

// Configure updates the tunables at a tick boundary (update_config).
func (d *Deduplicator) Configure(dedupTTLMs int64, flapDropThreshold, maxAlertsPerMin int) {
	d.dedupTTLMs = dedupTTLMs
	d.flapDropThreshold = flapDropThreshold
	d.maxAlertsPerMin = maxAlertsPerMin
}

// Process runs the dedup + flap + rate-limit pass over one tick's batch and
// returns the surviving alerts with their original relative order preserved.
func (d *Deduplicator) Process(batch []*model.Alert, now int64) ([]*model.Alert, Stats) {
	var stats Stats
	stats.Seen = len(batch)

	passed := make([]*model.Alert, 0, len(batch))
	for _, a := range batch {
		key := a.DedupKey()
		last, seen := d.lastSeen[key]

		if seen && (a.TimestampMs-last) < d.dedupTTLMs {
			stats.Duplicates++
			d.count[key]++
			if prev, ok := d.lastStatus[key]; ok && prev != a.Status {
				d.flapCount[key]++
			}
			d.lastStatus[key] = a.Status
			// Flap threshold reached at flapCount >= threshold, not
			// strictly greater — see DESIGN.md's resolution of the
			// flap-drop off-by-one between the prose rule and the worked
			// end-to-end scenario. Either way the alert is a TTL duplicate
			// and is never passed downstream (spec.md §2 "collapses
			// repeats of the same fingerprint within a TTL"; §8 dedup-
			// idempotence law) — FlapDrops is bookkeeping only.
			if d.flapCount[key] >= int64(d.flapDropThreshold) {
				stats.FlapDrops++
			}
			continue
		}

		d.lastSeen[key] = a.TimestampMs
		d.count[key] = 1
		d.lastStatus[key] = a.Status
		passed = append(passed, a)
	}

	retained := d.rateLimit(passed, now)
	stats.RateDrops = len(passed) - len(retained)

	d.gc(now)
	return retained, stats
}

// rateLimit applies the per-entity sliding-60s-window ceiling. Alerts are
// grouped by entity-key; within each group, alerts beyond maxAlertsPerMin in
// the window are dropped newest-first. The overall relative order of
// retained alerts is preserved.
func (d *Deduplicator) rateLimit(alerts []*model.Alert, now int64) []*model.Alert {
	if d.maxAlertsPerMin <= 0 {
		return alerts
	}

	byEntity := make(map[string][]*model.Alert)
	order := make([]string, 0)
	for _, a := range alerts {
		ek := a.ResolveEntityKey()
		if _, ok := byEntity[ek]; !ok {
			order = append(order, ek)
		}
		byEntity[ek] = append(byEntity[ek], a)
	}

	admitted := make(map[*model.Alert]bool, len(alerts))
	for _, ek := range order {
		group := byEntity[ek]

		existing := pruneOlderThan(d.rateWindow[ek], now-rateWindowMs)
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].TimestampMs < group[j].TimestampMs
		})

		allowed := d.maxAlertsPerMin - len(existing)
		if allowed < 0 {
			allowed = 0
		}
		kept := 0
		for _, a := range group {
			if kept >= allowed {
				break
			}
			admitted[a] = true
			existing = append(existing, a.TimestampMs)
			kept++
		}
		d.rateWindow[ek] = existing
	}

	out := make([]*model.Alert, 0, len(alerts))
	for _, a := range alerts {
		if admitted[a] {
			out = append(out, a)
		}
	}
	return out
}

// gc evicts map entries whose lastSeen predates now - maxAge.
func (d *Deduplicator) gc(now int64) {
	cutoff := now - d.maxAgeMs
	for key, last := range d.lastSeen {
		if last < cutoff {
			delete(d.lastSeen, key)
			delete(d.count, key)
			delete(d.flapCount, key)
			delete(d.lastStatus, key)
		}
	}
	for ek, ts := range d.rateWindow {
		pruned := pruneOlderThan(ts, now-rateWindowMs)
		if len(pruned) == 0 {
			delete(d.rateWindow, ek)
		} else {
			d.rateWindow[ek] = pruned
		}
	}
}

func pruneOlderThan(ts []int64, cutoff int64) []int64 {
	out := ts[:0]
	for _, t := range ts {
		if t >= cutoff {
			out = append(out, t)
		}
	}
	return append([]int64(nil), out...)
}
