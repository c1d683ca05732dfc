package model

// MaxRetainedAlerts is the cap on an episode's retained alert list (spec.md §3).
const MaxRetainedAlerts = 50

// Episode is a contiguous burst of alerts sharing an entity-key and
// fingerprint, bounded by a gap-break rule. Episodes are owned exclusively by
// the Clusterer.
type Episode struct {
	Key         string          // entity-key | fingerprint
	EntityKey   string
	Fingerprint string
	SourceMix   map[string]struct{}
	StartMs     int64
	EndMs       int64
	Count       int
	AlertIDs    []string
	Alerts      []*Alert // retained, capped at MaxRetainedAlerts
	Severity    Severity
	Closed      bool
}

// NewEpisode creates a new open episode seeded by the given alert.
func NewEpisode(a *Alert) *Episode {
	e := &Episode{
		Key:         a.EpisodeKey(),
		EntityKey:   a.ResolveEntityKey(),
		Fingerprint: a.Fingerprint,
		SourceMix:   map[string]struct{}{a.Source: {}},
		StartMs:     a.TimestampMs,
		EndMs:       a.TimestampMs,
		Count:       1,
		Severity:    a.Severity,
	}
	e.AlertIDs = append(e.AlertIDs, a.ID)
	e.Alerts = append(e.Alerts, a)
	return e
}

// Extend folds a in-window alert a into the episode: extends the end time,
// bumps the count, tracks the source mix, upgrades severity if higher, and
// appends the alert id/record subject to the retention cap.
func (e *Episode) Extend(a *Alert) {
	if a.TimestampMs > e.EndMs {
		e.EndMs = a.TimestampMs
	}
	e.Count++
	e.SourceMix[a.Source] = struct{}{}
	if SeverityWeight(a.Severity) > SeverityWeight(e.Severity) {
		e.Severity = a.Severity
	}

	seen := false
	for _, id := range e.AlertIDs {
		if id == a.ID {
			seen = true
			break
		}
	}
	if !seen {
		e.AlertIDs = append(e.AlertIDs, a.ID)
	}
	if len(e.Alerts) < MaxRetainedAlerts {
		e.Alerts = append(e.Alerts, a)
	}
}

// SourceMixKeys returns the episode's source-mix as a plain slice, used for
// Jaccard similarity computations.
func (e *Episode) SourceMixKeys() []string {
	out := make([]string, 0, len(e.SourceMix))
	for s := range e.SourceMix {
		out = append(out, s)
	}
	return out
}
