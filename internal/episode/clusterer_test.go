package episode

import (
	"testing"

	"github.com/opspulse/sentinel/internal/model"
)

func a(ts int64, sev model.Severity) *model.Alert {
	return &model.Alert{
		ID:          "id",
		TimestampMs: ts,
		Fingerprint: "fp",
		Service:     "svc-a",
		Source:      "k8s",
		Severity:    sev,
	}
}

// TestAssign_GapBreak reproduces the literal scenario from spec.md §8:
// three alerts at t, t+60000, t+300000 with G=120000 split into two
// episodes — the first covering t..t+60000 (count 2), the second covering
// t+300000 alone (count 1).
func TestAssign_GapBreak(t *testing.T) {
	c := New(120000, 3600000)

	c.Assign([]*model.Alert{a(0, model.SeverityLow)}, 0)
	c.Assign([]*model.Alert{a(60000, model.SeverityLow)}, 60000)
	live := c.Assign([]*model.Alert{a(300000, model.SeverityLow)}, 300000)

	if len(live) != 2 {
		t.Fatalf("expected 2 live episodes, got %d", len(live))
	}
	if live[0].StartMs != 0 || live[0].EndMs != 60000 || live[0].Count != 2 {
		t.Errorf("episode-1: got start=%d end=%d count=%d, want start=0 end=60000 count=2",
			live[0].StartMs, live[0].EndMs, live[0].Count)
	}
	if live[1].StartMs != 300000 || live[1].Count != 1 {
		t.Errorf("episode-2: got start=%d count=%d, want start=300000 count=1", live[1].StartMs, live[1].Count)
	}
}

func TestAssign_ExtendsWithinGap(t *testing.T) {
	c := New(120000, 3600000)
	c.Assign([]*model.Alert{a(0, model.SeverityLow)}, 0)
	live := c.Assign([]*model.Alert{a(60000, model.SeverityHigh)}, 60000)

	if len(live) != 1 {
		t.Fatalf("expected 1 live episode, got %d", len(live))
	}
	if live[0].Count != 2 {
		t.Errorf("count: got %d, want 2", live[0].Count)
	}
	if live[0].Severity != model.SeverityHigh {
		t.Errorf("severity: got %q, want upgraded to high", live[0].Severity)
	}
}

func TestAssign_SeverityNeverDowngrades(t *testing.T) {
	c := New(120000, 3600000)
	c.Assign([]*model.Alert{a(0, model.SeverityCritical)}, 0)
	live := c.Assign([]*model.Alert{a(1000, model.SeverityLow)}, 1000)

	if live[0].Severity != model.SeverityCritical {
		t.Errorf("severity: got %q, want still critical", live[0].Severity)
	}
}

func TestAssign_EvictsAgedEpisodes(t *testing.T) {
	c := New(120000, 60000) // window = 60s
	c.Assign([]*model.Alert{a(0, model.SeverityLow)}, 0)

	live := c.Assign(nil, 120000) // now far past end+window
	if len(live) != 0 {
		t.Fatalf("expected episode evicted, got %d live", len(live))
	}
	if c.EpisodeCount() != 0 {
		t.Errorf("EpisodeCount: got %d, want 0 after eviction", c.EpisodeCount())
	}
}

func TestAssign_RetainedAlertsCap(t *testing.T) {
	c := New(1000, 3600000)
	var batch []*model.Alert
	for i := 0; i < 60; i++ {
		batch = append(batch, a(int64(i*100), model.SeverityLow))
	}
	live := c.Assign(batch, int64(59*100))
	if len(live) != 1 {
		t.Fatalf("expected 1 episode, got %d", len(live))
	}
	if len(live[0].Alerts) != model.MaxRetainedAlerts {
		t.Errorf("retained alerts: got %d, want cap %d", len(live[0].Alerts), model.MaxRetainedAlerts)
	}
	if live[0].Count != 60 {
		t.Errorf("count: got %d, want 60 (count is uncapped)", live[0].Count)
	}
}

func TestAssign_DistinctFingerprintsOwnEpisodes(t *testing.T) {
	c := New(120000, 3600000)
	e1 := &model.Alert{ID: "1", TimestampMs: 0, Fingerprint: "fp-a", Service: "svc-x"}
	e2 := &model.Alert{ID: "2", TimestampMs: 0, Fingerprint: "fp-b", Service: "svc-x"}
	live := c.Assign([]*model.Alert{e1, e2}, 0)

	if len(live) != 2 {
		t.Fatalf("expected 2 distinct episodes (different fingerprints), got %d", len(live))
	}
}
