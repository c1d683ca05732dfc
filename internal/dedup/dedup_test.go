package dedup

import (
	"testing"

	"github.com/opspulse/sentinel/internal/model"
)

func alert(ts int64, status model.Status) *model.Alert {
	return &model.Alert{
		ID:          "a",
		TimestampMs: ts,
		Fingerprint: "fp-1",
		Service:     "svc-a",
		Status:      status,
		Severity:    model.SeverityHigh,
	}
}

// TestProcess_SingleDuplicate reproduces spec.md §8 scenario 1: two alerts
// with identical fingerprint and entity, 30s apart, within a 120s TTL.
// Expected: one alert downstream total (the duplicate is collapsed, not
// passed through), dedup-count=2, flapCount=0.
func TestProcess_SingleDuplicate(t *testing.T) {
	d := New(120000, 3, 100)

	out1, _ := d.Process([]*model.Alert{alert(0, model.StatusFiring)}, 0)
	out2, stats := d.Process([]*model.Alert{alert(30000, model.StatusFiring)}, 30000)

	if len(out1) != 1 {
		t.Fatalf("expected the first occurrence to pass through, got %d", len(out1))
	}
	if len(out2) != 0 {
		t.Fatalf("expected the TTL duplicate to be collapsed, got %d alerts through", len(out2))
	}
	if d.count["fp-1|svc-a"] != 2 {
		t.Errorf("count: got %d, want 2", d.count["fp-1|svc-a"])
	}
	if stats.Duplicates != 1 {
		t.Errorf("Duplicates: got %d, want 1", stats.Duplicates)
	}
	if stats.FlapDrops != 0 {
		t.Errorf("FlapDrops: got %d, want 0", stats.FlapDrops)
	}
}

func TestProcess_FlapDrop(t *testing.T) {
	d := New(120000, 3, 100)

	statuses := []model.Status{model.StatusFiring, model.StatusResolved, model.StatusFiring, model.StatusResolved}
	var lastOut []*model.Alert
	var lastStats Stats
	for i, s := range statuses {
		ts := int64(i * 1000)
		lastOut, lastStats = d.Process([]*model.Alert{alert(ts, s)}, ts)
	}

	if len(lastOut) != 0 {
		t.Fatalf("fourth alert: expected it to be dropped as flap, got %d alerts through", len(lastOut))
	}
	if lastStats.FlapDrops != 1 {
		t.Errorf("FlapDrops on fourth tick: got %d, want 1", lastStats.FlapDrops)
	}
}

func TestProcess_NewAfterTTLIsNotDuplicate(t *testing.T) {
	d := New(1000, 3, 100)

	d.Process([]*model.Alert{alert(0, model.StatusFiring)}, 0)
	out, stats := d.Process([]*model.Alert{alert(5000, model.StatusFiring)}, 5000)

	if len(out) != 1 {
		t.Fatalf("expected alert to pass, got %d", len(out))
	}
	if stats.Duplicates != 0 {
		t.Errorf("Duplicates: got %d, want 0 (TTL elapsed)", stats.Duplicates)
	}
}

func TestRateLimit_CapsPerEntity(t *testing.T) {
	d := New(0, 100, 2)

	batch := []*model.Alert{
		{ID: "1", TimestampMs: 0, Fingerprint: "fp-1", Service: "svc-a"},
		{ID: "2", TimestampMs: 100, Fingerprint: "fp-2", Service: "svc-a"},
		{ID: "3", TimestampMs: 200, Fingerprint: "fp-3", Service: "svc-a"},
	}
	out, stats := d.Process(batch, 200)

	if len(out) != 2 {
		t.Fatalf("expected 2 alerts retained, got %d", len(out))
	}
	if stats.RateDrops != 1 {
		t.Errorf("RateDrops: got %d, want 1", stats.RateDrops)
	}
	// The newest excess alert ("3") must be the one dropped.
	if out[0].ID != "1" || out[1].ID != "2" {
		t.Errorf("expected IDs [1 2] retained in order, got [%s %s]", out[0].ID, out[1].ID)
	}
}

func TestRateLimit_Monotonicity(t *testing.T) {
	batch := []*model.Alert{
		{ID: "1", TimestampMs: 0, Fingerprint: "fp-1", Service: "svc-a"},
		{ID: "2", TimestampMs: 100, Fingerprint: "fp-2", Service: "svc-a"},
		{ID: "3", TimestampMs: 200, Fingerprint: "fp-3", Service: "svc-a"},
	}

	low := New(0, 100, 1)
	outLow, _ := low.Process(batch, 200)

	high := New(0, 100, 10)
	outHigh, _ := high.Process(batch, 200)

	if len(outHigh) < len(outLow) {
		t.Errorf("raising maxAlertsPerMinute reduced retained set: low=%d high=%d", len(outLow), len(outHigh))
	}
}

func TestProcess_OrderPreserved(t *testing.T) {
	d := New(0, 100, 100)
	batch := []*model.Alert{
		{ID: "1", TimestampMs: 0, Fingerprint: "fp-1", Service: "svc-a"},
		{ID: "2", TimestampMs: 100, Fingerprint: "fp-2", Service: "svc-b"},
		{ID: "3", TimestampMs: 200, Fingerprint: "fp-3", Service: "svc-a"},
	}
	out, _ := d.Process(batch, 200)
	if len(out) != 3 {
		t.Fatalf("expected all 3 alerts retained, got %d", len(out))
	}
	for i, id := range []string{"1", "2", "3"} {
		if out[i].ID != id {
			t.Errorf("out[%d].ID = %q, want %q", i, out[i].ID, id)
		}
	}
}
