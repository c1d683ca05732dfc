package episode

import (
	"sort"

	"github.com/opspulse/sentinel/internal/model"
)

// Clusterer maintains the live episode set and the entity -> keys secondary
// index described in spec.md §4.3. Not safe for concurrent use — owned
// exclusively by the pipeline driver.
type Clusterer struct {
	gapMs    int64
	windowMs int64

	// episodes holds, per entity-key|fingerprint, every episode not yet
	// evicted: zero or more closed episodes followed by at most one open
	// (extendable) episode — the last element, when present and not
	// Closed. A gap-break closes that last element and appends a fresh
	// open one rather than replacing it, so a closed burst stays retained
	// until eviction instead of being overwritten (spec.md §3, §4.3).
	episodes       map[string][]*model.Episode
	entityEpisodes map[string]map[string]struct{}
}

// New creates a Clusterer with the given gap (G) and retention window (W),
// both in milliseconds.
func New(gapMs, windowMs int64) *Clusterer {
	return &Clusterer{
		gapMs:          gapMs,
		windowMs:       windowMs,
		episodes:       make(map[string][]*model.Episode),
		entityEpisodes: make(map[string]map[string]struct{}),
	}
}

// Configure updates the tunables at a tick boundary.
func (c *Clusterer) Configure(gapMs, windowMs int64) {
	c.gapMs = gapMs
	c.windowMs = windowMs
}

// Assign folds one tick's surviving alerts into the episode store and
// returns the live episode set (end >= now - W), sorted ascending by start,
// per spec.md §4.3's stated output contract.
//
// Per the burst pre-clustering design hook, alerts are processed in
// timestamp order; this does not change the resulting episode set (each
// alert's destination key only depends on entity+fingerprint and the prior
// state at that key) but makes the gap-break rule apply in a stable,
// deterministic order within a tick.
func (c *Clusterer) Assign(alerts []*model.Alert, now int64) []*model.Episode {
	ordered := make([]*model.Alert, len(alerts))
	copy(ordered, alerts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].TimestampMs < ordered[j].TimestampMs
	})

	for _, a := range ordered {
		c.assignOne(a)
	}

	c.evict(now)
	return c.live(now)
}

func (c *Clusterer) assignOne(a *model.Alert) {
	key := a.EpisodeKey()
	entity := a.ResolveEntityKey()

	list := c.episodes[key]
	if len(list) == 0 {
		c.open(key, entity, model.NewEpisode(a))
		return
	}

	open := list[len(list)-1]
	if open.Closed || a.TimestampMs-open.EndMs > c.gapMs {
		// Gap-break (or the prior open episode was already closed): close
		// it — retaining it in place — and append a fresh open episode for
		// this alert. The closed episode stays in c.episodes[key] until
		// evict() ages it out.
		open.Closed = true
		c.open(key, entity, model.NewEpisode(a))
		return
	}

	open.Extend(a)
}

func (c *Clusterer) open(key, entity string, e *model.Episode) {
	c.episodes[key] = append(c.episodes[key], e)
	if c.entityEpisodes[entity] == nil {
		c.entityEpisodes[entity] = make(map[string]struct{})
	}
	c.entityEpisodes[entity][key] = struct{}{}
}

// evict removes, per key, every episode whose end has aged past the
// retention window, dropping the key (and its entity-index entry) entirely
// once none remain.
func (c *Clusterer) evict(now int64) {
	cutoff := now - c.windowMs
	for key, list := range c.episodes {
		kept := list[:0]
		for _, e := range list {
			if e.EndMs >= cutoff {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(c.episodes, key)
			entity := list[0].EntityKey
			if set, ok := c.entityEpisodes[entity]; ok {
				delete(set, key)
				if len(set) == 0 {
					delete(c.entityEpisodes, entity)
				}
			}
			continue
		}
		c.episodes[key] = kept
	}
}

// live returns every currently-retained episode (closed or open, end >= now
// - W) sorted ascending by start, per spec.md §4.3's stated output contract.
func (c *Clusterer) live(now int64) []*model.Episode {
	cutoff := now - c.windowMs
	out := make([]*model.Episode, 0, len(c.episodes))
	for _, list := range c.episodes {
		for _, e := range list {
			if e.EndMs >= cutoff {
				out = append(out, e)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartMs < out[j].StartMs
	})
	return out
}

// EpisodeCount returns the number of currently tracked episodes (for metrics).
func (c *Clusterer) EpisodeCount() int {
	n := 0
	for _, list := range c.episodes {
		n += len(list)
	}
	return n
}
