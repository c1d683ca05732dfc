package api

import "github.com/opspulse/sentinel/internal/model"

// SituationResponse is one entry in GET /api/v1/situations or the payload
// of GET /api/v1/situations/{id}.
type SituationResponse struct {
	ID           string             `json:"id"`
	Window       model.Window       `json:"window"`
	BlastRadius  model.BlastRadius  `json:"blast_radius"`
	Score        float64            `json:"score"`
	PrimaryCause model.PrimaryCause `json:"primary_cause"`
	NextActions  []string           `json:"next_actions"`
	EpisodeCount int                `json:"episode_count"`
}

// EpisodeResponse is one entry in GET /api/v1/episodes.
type EpisodeResponse struct {
	Key         string   `json:"key"`
	EntityKey   string   `json:"entity_key"`
	Fingerprint string   `json:"fingerprint"`
	Severity    string   `json:"severity"`
	StartMs     int64    `json:"start_ms"`
	EndMs       int64    `json:"end_ms"`
	Count       int      `json:"count"`
	Sources     []string `json:"sources"`
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status                 string  `json:"status"`
	SituationCount         int     `json:"situation_count"`
	EpisodeCount           int     `json:"episode_count"`
	ProcessingTimeMs       float64 `json:"processing_time_ms"`
	ThroughputAlertsPerSec float64 `json:"throughput_alerts_per_sec"`
	DedupRatePct           float64 `json:"dedup_rate_pct"`
}

// configUpdateRequest is the JSON body accepted by POST /api/v1/config. All
// fields are optional; only non-nil ones are merged (spec.md §6).
type configUpdateRequest struct {
	WindowMs             *int64 `json:"window_ms,omitempty"`
	HopMs                *int64 `json:"hop_ms,omitempty"`
	DedupTTLMs           *int64 `json:"dedup_ttl_ms,omitempty"`
	EpisodeGapMs         *int64 `json:"episode_gap_ms,omitempty"`
	MaxLeadMs            *int64 `json:"max_lead_ms,omitempty"`
	MaxSituationLifetime *int64 `json:"max_situation_lifetime_ms,omitempty"`
	QuietThreshold       *int64 `json:"quiet_threshold_ms,omitempty"`
	MaxAlertsPerMinute   *int   `json:"max_alerts_per_minute,omitempty"`
	FlapDropThreshold    *int   `json:"flap_drop_threshold,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toSituationResponse(s *model.Situation) SituationResponse {
	return SituationResponse{
		ID:           s.ID,
		Window:       s.Window,
		BlastRadius:  s.BlastRadius,
		Score:        s.Score,
		PrimaryCause: s.PrimaryCause,
		NextActions:  s.NextActions,
		EpisodeCount: len(s.Episodes),
	}
}

func toEpisodeResponse(e *model.Episode) EpisodeResponse {
	return EpisodeResponse{
		Key:         e.Key,
		EntityKey:   e.EntityKey,
		Fingerprint: e.Fingerprint,
		Severity:    string(e.Severity),
		StartMs:     e.StartMs,
		EndMs:       e.EndMs,
		Count:       e.Count,
		Sources:     e.SourceMixKeys(),
	}
}
