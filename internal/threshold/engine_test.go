package threshold

import (
	"testing"
	"time"

	"github.com/opspulse/sentinel/internal/config"
	"github.com/opspulse/sentinel/internal/model"
)

func podEvent(ts int64, reason, podName string) *model.RawEvent {
	return &model.RawEvent{
		TimestampMs:    ts,
		Reason:         reason,
		Type:           "Warning",
		Message:        "back-off restarting failed container",
		InvolvedObject: model.InvolvedObject{Kind: "Pod", Name: podName},
		Namespace:      "prod",
	}
}

func crashLoopRule(threshold int) config.ThresholdRule {
	return config.ThresholdRule{
		Name:      "crash-loop",
		Key:       []string{"involvedObject.name"},
		Match:     []config.MatchSpec{{Field: "reason", Op: "eq", Value: "BackOff"}},
		Threshold: threshold,
		Severity:  "high",
		Window:    5 * time.Minute,
		Cooldown:  10 * time.Minute,
	}
}

func TestProcess_EmitsAtThreshold(t *testing.T) {
	e := New([]config.ThresholdRule{crashLoopRule(3)})

	var emitted []*model.Alert
	now := int64(0)
	for i := 0; i < 3; i++ {
		now = int64(i+1) * 1000
		emitted = append(emitted, e.Process([]*model.RawEvent{podEvent(now, "BackOff", "pod-a")}, now)...)
	}

	if len(emitted) != 1 {
		t.Fatalf("emitted %d alerts, want 1", len(emitted))
	}
	if emitted[0].Severity != "high" {
		t.Errorf("severity: got %q, want high", emitted[0].Severity)
	}
}

func TestProcess_NoEmitBelowThreshold(t *testing.T) {
	e := New([]config.ThresholdRule{crashLoopRule(3)})
	out := e.Process([]*model.RawEvent{podEvent(1000, "BackOff", "pod-a"), podEvent(2000, "BackOff", "pod-a")}, 2000)
	if len(out) != 0 {
		t.Fatalf("emitted %d alerts, want 0", len(out))
	}
}

func TestProcess_CooldownSuppressesRefire(t *testing.T) {
	e := New([]config.ThresholdRule{crashLoopRule(1)})

	out := e.Process([]*model.RawEvent{podEvent(1000, "BackOff", "pod-a")}, 1000)
	if len(out) != 1 {
		t.Fatalf("first fire: got %d alerts, want 1", len(out))
	}

	out = e.Process([]*model.RawEvent{podEvent(2000, "BackOff", "pod-a")}, 2000)
	if len(out) != 0 {
		t.Fatalf("within cooldown: got %d alerts, want 0", len(out))
	}

	// Cooldown is 10m — after it elapses, threshold=1 fires again immediately.
	afterCooldown := int64((11 * time.Minute).Milliseconds())
	out = e.Process([]*model.RawEvent{podEvent(afterCooldown, "BackOff", "pod-a")}, afterCooldown)
	if len(out) != 1 {
		t.Fatalf("after cooldown: got %d alerts, want 1", len(out))
	}
}

func TestProcess_WindowPruning(t *testing.T) {
	e := New([]config.ThresholdRule{crashLoopRule(2)})

	out := e.Process([]*model.RawEvent{podEvent(1000, "BackOff", "pod-a")}, 1000)
	if len(out) != 0 {
		t.Fatal("unexpected emit on first event")
	}

	// Second event arrives after the rule's 5-minute window — the first
	// timestamp should have been pruned, so threshold=2 should not yet fire.
	afterWindow := int64((6 * time.Minute).Milliseconds())
	out = e.Process([]*model.RawEvent{podEvent(afterWindow, "BackOff", "pod-a")}, afterWindow)
	if len(out) != 0 {
		t.Fatalf("emitted %d alerts after window pruning, want 0", len(out))
	}
}

func TestProcess_DistinctKeysDoNotShareState(t *testing.T) {
	e := New([]config.ThresholdRule{crashLoopRule(2)})

	e.Process([]*model.RawEvent{podEvent(1000, "BackOff", "pod-a")}, 1000)
	out := e.Process([]*model.RawEvent{podEvent(2000, "BackOff", "pod-b")}, 2000)
	if len(out) != 0 {
		t.Fatalf("distinct key pod-b: got %d alerts, want 0", len(out))
	}
}

func TestProcess_MalformedEventDropped(t *testing.T) {
	e := New([]config.ThresholdRule{crashLoopRule(1)})
	out := e.Process([]*model.RawEvent{{TimestampMs: 0}}, 0)
	if len(out) != 0 {
		t.Fatalf("malformed event: got %d alerts, want 0", len(out))
	}
	if e.MalformedDropped() != 1 {
		t.Errorf("MalformedDropped: got %d, want 1", e.MalformedDropped())
	}
}

func TestProcess_SubstringMatch(t *testing.T) {
	rule := config.ThresholdRule{
		Name:      "oom",
		Key:       []string{"involvedObject.name"},
		Match:     []config.MatchSpec{{Field: "message", Op: "contains", Value: "OOMKilled"}},
		Threshold: 1,
		Severity:  "critical",
		Window:    time.Minute,
		Cooldown:  time.Minute,
	}
	e := New([]config.ThresholdRule{rule})
	ev := &model.RawEvent{
		TimestampMs:    1000,
		Message:        "container died with reason OOMKilled",
		InvolvedObject: model.InvolvedObject{Name: "pod-x"},
	}
	out := e.Process([]*model.RawEvent{ev}, 1000)
	if len(out) != 1 {
		t.Fatalf("substring match: got %d alerts, want 1", len(out))
	}
}
