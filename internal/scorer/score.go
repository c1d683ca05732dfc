package scorer

import (
	"math"
	"sort"
	"strings"

	"github.com/opspulse/sentinel/internal/model"
)

const deployKeyWindowMs = 10 * 60 * 1000

// Score evaluates every situation in situations against hints and maxLeadMs
// (spec.md §4.5), fills in each situation's Score, PrimaryCause and
// NextActions, and returns the set reordered by descending score.
func Score(situations []*model.Situation, hints *model.GraphHints, maxLeadMs int64) []*model.Situation {
	if len(situations) == 0 {
		return situations
	}
	graph := buildUndirected(hints)
	maxLagSec := maxLeadMs / 1000
	for _, s := range situations {
		scoreOne(s, graph, maxLagSec)
	}
	sort.SliceStable(situations, func(i, j int) bool {
		return situations[i].Score > situations[j].Score
	})
	return situations
}

func scoreOne(s *model.Situation, graph *undirectedGraph, maxLagSec int64) {
	episodes := s.Episodes
	if len(episodes) == 0 {
		return
	}
	cause := episodes[0]
	effects := episodes[1:]

	lagStar, sStar := bestLeadLag(cause, effects, maxLagSec)
	pathScore := bestPathScore(graph, cause, effects)
	card := math.Log(1 + float64(s.BlastRadius.Entities))
	sev := maxSeverityFraction(episodes)
	change := changeProximity(s)
	echo := echoPenalty(episodes)
	const flap = 0.0 // reserved, wired to 0 per spec.md §4.5 step 7

	score := 0.35*change + 0.20*sStar + 0.20*pathScore + 0.15*card + 0.15*sev - 0.10*flap - 0.05*echo

	s.Score = score
	s.PrimaryCause = model.PrimaryCause{
		Entity:     cause.EntityKey,
		EpisodeIdx: 0,
		Confidence: math.Min(1, score),
		LagMs:      lagStar * 1000,
	}
	s.NextActions = nextActions(s, cause.EntityKey, sev)
}

// bestLeadLag computes the cause's alert histogram once and finds the
// (lag, similarity) pair maximizing cosine similarity across all effects.
func bestLeadLag(cause *model.Episode, effects []*model.Episode, maxLagSec int64) (int64, float64) {
	causeBins := binSeconds(cause.Alerts)
	var bestLag int64
	var bestSim float64
	for _, e := range effects {
		lag, sim := leadLag(causeBins, binSeconds(e.Alerts), maxLagSec)
		if sim > bestSim {
			bestSim = sim
			bestLag = lag
		}
	}
	return bestLag, bestSim
}

// bestPathScore finds d*, the minimum graph distance from the cause to any
// effect, and converts it to pathScore = 1/(1+d*) (or 0 if unreachable).
func bestPathScore(graph *undirectedGraph, cause *model.Episode, effects []*model.Episode) float64 {
	if len(effects) == 0 {
		return 0
	}
	best := -1
	for _, e := range effects {
		d := graph.shortestPath(cause.EntityKey, e.EntityKey)
		if d < 0 {
			continue
		}
		if best == -1 || d < best {
			best = d
		}
	}
	if best < 0 {
		return 0
	}
	return 1.0 / float64(1+best)
}

func maxSeverityFraction(episodes []*model.Episode) float64 {
	var max int
	for _, e := range episodes {
		if w := model.SeverityWeight(e.Severity); w > max {
			max = w
		}
	}
	return float64(max) / 4.0
}

// changeProximity is 1.0 if any related alert carries a deploy key within
// deployKeyWindowMs of the situation's window start, else 0.2.
func changeProximity(s *model.Situation) float64 {
	for _, a := range s.RelatedAlerts {
		if a.DeployKey == "" {
			continue
		}
		delta := a.TimestampMs - s.Window.StartMs
		if delta < 0 {
			delta = -delta
		}
		if delta <= deployKeyWindowMs {
			return 1.0
		}
	}
	return 0.2
}

// echoPenalty is max(0, (Σ|source-mix| − |episodes|) · 0.05).
func echoPenalty(episodes []*model.Episode) float64 {
	var sumMix int
	for _, e := range episodes {
		sumMix += len(e.SourceMix)
	}
	penalty := float64(sumMix-len(episodes)) * 0.05
	if penalty < 0 {
		return 0
	}
	return penalty
}

// nextActions applies the deterministic rule set from spec.md §4.5 step 10,
// capped at model.MaxNextActions. The substring checks against entity-key
// are a provisional heuristic carried over verbatim for behavioural parity.
func nextActions(s *model.Situation, causeEntityKey string, sev float64) []string {
	var actions []string

	if s.BlastRadius.Entities > 5 {
		actions = append(actions, "Page oncall team - multiple services affected")
	}
	if s.BlastRadius.Services > 3 {
		actions = append(actions, "Check shared infrastructure components")
	}
	if strings.Contains(causeEntityKey, "database") {
		actions = append(actions, "Check database connection pool and performance", "Verify database resource limits")
	}
	if strings.Contains(causeEntityKey, "api") {
		actions = append(actions, "Check API rate limiting and quotas", "Verify upstream service health")
	}
	if strings.Contains(causeEntityKey, "cache") {
		actions = append(actions, "Check cache hit rates and memory usage", "Verify cache cluster health")
	}
	if sev >= 0.75 {
		actions = append(actions, "Immediate escalation required")
	}

	if len(actions) > model.MaxNextActions {
		actions = actions[:model.MaxNextActions]
	}
	return actions
}
