package pipeline

import (
	"sort"
	"time"

	"github.com/opspulse/sentinel/internal/model"
)

// publishedEntry tracks when a situation was last regenerated, so the
// lifecycle rule in spec.md §3 ("kept in the published set until its
// window-end ages past maxSituationLifetime or the situation is not
// regenerated for quietThreshold") can be enforced independent of whether
// the Builder happened to reconstruct it on a given tick.
type publishedEntry struct {
	situation  *model.Situation
	lastSeenMs int64
}

// situationRegistry owns the published situation set across ticks.
type situationRegistry struct {
	entries map[string]*publishedEntry
}

func newSituationRegistry() *situationRegistry {
	return &situationRegistry{entries: make(map[string]*publishedEntry)}
}

// merge folds this tick's freshly-built (and scored) situations into the
// registry, then evicts anything whose window has aged past
// maxSituationLifetime or that has gone quiet for longer than
// quietThreshold. Returns the surviving set ordered by descending score.
func (r *situationRegistry) merge(fresh []*model.Situation, now int64, maxLifetime, quietThreshold time.Duration) []*model.Situation {
	maxLifetimeMs := maxLifetime.Milliseconds()
	quietThresholdMs := quietThreshold.Milliseconds()

	for _, s := range fresh {
		r.entries[s.ID] = &publishedEntry{situation: s, lastSeenMs: now}
	}

	for id, e := range r.entries {
		if now-e.situation.Window.EndMs > maxLifetimeMs {
			delete(r.entries, id)
			continue
		}
		if now-e.lastSeenMs > quietThresholdMs {
			delete(r.entries, id)
		}
	}

	out := make([]*model.Situation, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.situation)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func (r *situationRegistry) count() int {
	return len(r.entries)
}
