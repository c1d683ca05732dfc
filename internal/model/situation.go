package model

// MaxRelatedAlerts and MaxNextActions are the bounded-collection caps from
// spec.md §3/§5.
const (
	MaxRelatedAlerts = 200
	MaxNextActions   = 5
)

// Window is an inclusive [Start, End] time range in epoch milliseconds.
type Window struct {
	StartMs int64 `json:"start_ms"`
	EndMs   int64 `json:"end_ms"`
}

// BlastRadius measures the breadth of a situation.
type BlastRadius struct {
	Entities int `json:"entities"`
	Services int `json:"services"`
}

// PrimaryCause names the episode believed to be the root of a situation.
type PrimaryCause struct {
	Entity     string  `json:"entity"`
	EpisodeIdx int     `json:"episode_idx"`
	Confidence float64 `json:"confidence"`
	LagMs      int64   `json:"lag_ms"`
}

// Situation is a group of time-overlapping episodes believed to be part of
// the same incident. Situations are rebuilt on every tick and are owned
// exclusively by the Builder; the published set is never mutated after
// publication.
type Situation struct {
	ID            string       `json:"id"`
	Window        Window       `json:"window"`
	Episodes      []*Episode   `json:"-"`
	RelatedAlerts []*Alert     `json:"-"`
	BlastRadius   BlastRadius  `json:"blast_radius"`
	Score         float64      `json:"score"`
	PrimaryCause  PrimaryCause `json:"primary_cause"`
	NextActions   []string     `json:"next_actions"`
}
