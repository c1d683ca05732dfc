package ingest_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opspulse/sentinel/internal/config"
	"github.com/opspulse/sentinel/internal/graphhints"
	"github.com/opspulse/sentinel/internal/ingest"
	"github.com/opspulse/sentinel/internal/pipeline"
)

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	d := pipeline.New(config.Defaults(), graphhints.New())
	return ingest.New(d)
}

func TestIngestAlert_Accepted(t *testing.T) {
	h := newHandler(t)
	body := []byte(`{"timestamp_ms": 1000, "fingerprint": "fp", "entity_key": "svc-a", "status": "firing", "severity": "high"}`)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/alerts", bytes.NewReader(body)))
	if rr.Code != http.StatusAccepted {
		t.Errorf("status: got %d, want 202", rr.Code)
	}
}

func TestIngestAlert_MissingTimestampRejected(t *testing.T) {
	h := newHandler(t)
	body := []byte(`{"fingerprint": "fp"}`)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/alerts", bytes.NewReader(body)))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func TestIngestAlert_MalformedBodyRejected(t *testing.T) {
	h := newHandler(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/alerts", bytes.NewReader([]byte("not json"))))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func TestIngestEvent_Accepted(t *testing.T) {
	h := newHandler(t)
	body := []byte(`{"timestamp_ms": 1000, "reason": "CrashLoopBackOff", "involved_object": {"kind": "Pod", "name": "x"}}`)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewReader(body)))
	if rr.Code != http.StatusAccepted {
		t.Errorf("status: got %d, want 202", rr.Code)
	}
}

func TestIngestAlert_RejectsWrongMethod(t *testing.T) {
	h := newHandler(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
}
