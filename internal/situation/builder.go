package situation

import (
	"fmt"
	"sort"

	"github.com/opspulse/sentinel/internal/model"
)

// jaccardThreshold is the source-mix similarity threshold above which two
// overlapping episodes are considered joinable (spec.md §4.4).
const jaccardThreshold = 0.3

// Build groups the live episode set E by pairwise joinability and produces
// the complete situation set for the tick. Scoring, confidence, and primary
// cause are left zero-valued — that is the Scorer's job (spec.md §4.4's
// closing line).
func Build(episodes []*model.Episode, alerts []*model.Alert) []*model.Situation {
	n := len(episodes)
	if n == 0 {
		return nil
	}

	uf := newUnionFind(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if joinable(episodes[i], episodes[j]) {
				uf.union(i, j)
			}
		}
	}

	groups := make(map[int][]*model.Episode)
	for i, e := range episodes {
		root := uf.find(i)
		groups[root] = append(groups[root], e)
	}

	situations := make([]*model.Situation, 0, len(groups))
	for _, group := range groups {
		situations = append(situations, buildOne(group, alerts))
	}

	// Deterministic ordering by window start for callers that haven't yet
	// scored (and therefore sorted) the set.
	sort.Slice(situations, func(i, j int) bool {
		return situations[i].Window.StartMs < situations[j].Window.StartMs
	})
	return situations
}

// joinable tests the pairwise predicate from spec.md §4.4: episodes must
// overlap in time, and then join if they share an entity-key, share a
// fingerprint, or have a source-mix Jaccard similarity above the threshold.
func joinable(a, b *model.Episode) bool {
	if a.EndMs < b.StartMs || b.EndMs < a.StartMs {
		return false
	}
	if a.EntityKey == b.EntityKey {
		return true
	}
	if a.Fingerprint == b.Fingerprint {
		return true
	}
	return jaccard(a.SourceMix, b.SourceMix) > jaccardThreshold
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func buildOne(group []*model.Episode, allAlerts []*model.Alert) *model.Situation {
	sort.Slice(group, func(i, j int) bool { return group[i].StartMs < group[j].StartMs })

	start, end := group[0].StartMs, group[0].EndMs
	entities := make(map[string]struct{})
	services := make(map[string]struct{})
	for _, e := range group {
		if e.StartMs < start {
			start = e.StartMs
		}
		if e.EndMs > end {
			end = e.EndMs
		}
		entities[e.EntityKey] = struct{}{}
		for _, a := range e.Alerts {
			if a.Service != "" {
				services[a.Service] = struct{}{}
			}
		}
	}

	related := relatedAlerts(allAlerts, start, end)

	return &model.Situation{
		ID:            situationID(start, end, len(group)),
		Window:        model.Window{StartMs: start, EndMs: end},
		Episodes:      group,
		RelatedAlerts: related,
		BlastRadius: model.BlastRadius{
			Entities: len(entities),
			Services: len(services),
		},
	}
}

// relatedAlerts returns alerts timestamped within [start, end], earliest
// kept, capped at MaxRelatedAlerts.
func relatedAlerts(alerts []*model.Alert, start, end int64) []*model.Alert {
	var in []*model.Alert
	for _, a := range alerts {
		if a.TimestampMs >= start && a.TimestampMs <= end {
			in = append(in, a)
		}
	}
	sort.SliceStable(in, func(i, j int) bool { return in[i].TimestampMs < in[j].TimestampMs })
	if len(in) > model.MaxRelatedAlerts {
		in = in[:model.MaxRelatedAlerts]
	}
	return in
}

func situationID(start, end int64, size int) string {
	return fmt.Sprintf("%d-%d-%d", start, end, size)
}
