package ingest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/opspulse/sentinel/internal/model"
	"github.com/opspulse/sentinel/internal/pipeline"
)

// Handler is the HTTP handler for POST /api/v1/alerts and
// POST /api/v1/events. It decodes, does minimal shape validation, and hands
// the record to the driver — the driver owns dedup/threshold semantics.
type Handler struct {
	driver *pipeline.Driver
	mux    *http.ServeMux
}

// New creates a Handler wired to driver and registers its routes.
func New(driver *pipeline.Driver) http.Handler {
	h := &Handler{driver: driver, mux: http.NewServeMux()}
	h.mux.HandleFunc("/api/v1/alerts", h.ingestAlert)
	h.mux.HandleFunc("/api/v1/events", h.ingestEvent)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// ingestAlert handles POST /api/v1/alerts — a single pre-formed Alert.
func (h *Handler) ingestAlert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var a model.Alert
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		jsonErr(w, http.StatusBadRequest, "malformed alert body")
		return
	}
	if a.TimestampMs <= 0 {
		jsonErr(w, http.StatusBadRequest, "timestamp_ms is required")
		return
	}

	h.driver.Ingest(&a)
	slog.Debug("ingest: alert accepted", "fingerprint", a.Fingerprint, "entity_key", a.ResolveEntityKey())
	w.WriteHeader(http.StatusAccepted)
}

// ingestEvent handles POST /api/v1/events — a raw cluster event for the
// Threshold Engine.
func (h *Handler) ingestEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var ev model.RawEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		jsonErr(w, http.StatusBadRequest, "malformed event body")
		return
	}
	if ev.TimestampMs <= 0 {
		jsonErr(w, http.StatusBadRequest, "timestamp_ms is required")
		return
	}

	h.driver.IngestRawEvent(&ev)
	slog.Debug("ingest: raw event accepted", "reason", ev.Reason, "involved_object", ev.InvolvedObject.Name)
	w.WriteHeader(http.StatusAccepted)
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg})
}
