package scorer

import (
	"math"

	"github.com/opspulse/sentinel/internal/model"
)

// binSeconds produces a sparse histogram of alert counts keyed by epoch
// second (spec.md §4.5 step 2).
func binSeconds(alerts []*model.Alert) map[int64]float64 {
	bins := make(map[int64]float64, len(alerts))
	for _, a := range alerts {
		bins[a.TimestampMs/1000]++
	}
	return bins
}

func norm(bins map[int64]float64) float64 {
	var sumSq float64
	for _, v := range bins {
		sumSq += v * v
	}
	return math.Sqrt(sumSq)
}

// dotShifted computes ⟨A, B_shifted_by_lag⟩ where B_shifted[i] = B[i+lag].
func dotShifted(a, b map[int64]float64, lag int64) float64 {
	var dot float64
	for t, av := range a {
		if bv, ok := b[t+lag]; ok {
			dot += av * bv
		}
	}
	return dot
}

// leadLag finds the lag ℓ in [0, maxLagSec] maximizing cosine similarity
// between histogram a (cause) and histogram b (effect), per spec.md §4.5
// step 2. Returns (0, 0) if either histogram is empty.
func leadLag(a, b map[int64]float64, maxLagSec int64) (lag int64, similarity float64) {
	normA, normB := norm(a), norm(b)
	if normA == 0 || normB == 0 {
		return 0, 0
	}
	denom := normA * normB
	var bestLag int64
	var bestSim float64
	for l := int64(0); l <= maxLagSec; l++ {
		sim := dotShifted(a, b, l) / denom
		if sim > bestSim {
			bestSim = sim
			bestLag = l
		}
	}
	return bestLag, bestSim
}
