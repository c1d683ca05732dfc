package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/opspulse/sentinel/internal/config"
	"github.com/opspulse/sentinel/internal/pipeline"
)

// Handler is the HTTP handler for all /api/v1/* endpoints. It reads
// situation and episode state from a pipeline.Driver and forwards
// update_config requests to it.
type Handler struct {
	driver *pipeline.Driver
	mux    *http.ServeMux
}

// New creates a Handler wired to driver and registers all routes.
func New(driver *pipeline.Driver) http.Handler {
	h := &Handler{driver: driver, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/situations", h.listSituations)
	h.mux.HandleFunc("/api/v1/situations/", h.getSituation) // subtree — extracts {id}
	h.mux.HandleFunc("/api/v1/episodes", h.listEpisodes)
	h.mux.HandleFunc("/api/v1/config", h.updateConfig)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// health returns GET /api/v1/health — a summary of the latest tick.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics := h.driver.CurrentMetrics()
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:                 "ok",
		SituationCount:         metrics.SituationCount,
		EpisodeCount:           metrics.EpisodeCount,
		ProcessingTimeMs:       metrics.ProcessingTimeMs,
		ThroughputAlertsPerSec: metrics.ThroughputAlertsPerSec,
		DedupRatePct:           metrics.DedupRatePct,
	})
}

// listSituations returns GET /api/v1/situations — the current published
// set, already ordered by descending score.
func (h *Handler) listSituations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	situations := h.driver.CurrentSituations()
	out := make([]SituationResponse, 0, len(situations))
	for _, s := range situations {
		out = append(out, toSituationResponse(s))
	}
	jsonResp(w, http.StatusOK, out)
}

// getSituation returns GET /api/v1/situations/{id}.
func (h *Handler) getSituation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/situations/")
	if id == "" {
		h.listSituations(w, r)
		return
	}

	for _, s := range h.driver.CurrentSituations() {
		if s.ID == id {
			jsonResp(w, http.StatusOK, toSituationResponse(s))
			return
		}
	}
	jsonErr(w, http.StatusNotFound, "situation not found")
}

// listEpisodes returns GET /api/v1/episodes — the current live episode set.
func (h *Handler) listEpisodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	episodes := h.driver.CurrentEpisodes()
	out := make([]EpisodeResponse, 0, len(episodes))
	for _, e := range episodes {
		out = append(out, toEpisodeResponse(e))
	}
	jsonResp(w, http.StatusOK, out)
}

// updateConfig handles POST /api/v1/config — merges the recognized,
// non-nil fields into the running config at the next tick boundary.
func (h *Handler) updateConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req configUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, "malformed request body")
		return
	}

	update := config.PartialUpdate{
		WindowMs:           req.WindowMs,
		HopMs:              req.HopMs,
		DedupTTLMs:         req.DedupTTLMs,
		EpisodeGapMs:       req.EpisodeGapMs,
		MaxLeadMs:          req.MaxLeadMs,
		MaxAlertsPerMinute: req.MaxAlertsPerMinute,
		FlapDropThreshold:  req.FlapDropThreshold,
	}
	if req.MaxSituationLifetime != nil {
		d := time.Duration(*req.MaxSituationLifetime) * time.Millisecond
		update.MaxSituationLifetime = &d
	}
	if req.QuietThreshold != nil {
		d := time.Duration(*req.QuietThreshold) * time.Millisecond
		update.QuietThreshold = &d
	}

	if err := h.driver.UpdateConfig(update); err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResp(w, http.StatusOK, struct{}{})
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
