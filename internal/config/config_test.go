package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	p := writeConfig(t, `http_port: 9000
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pipeline.HopMs != DefaultHopMs {
		t.Errorf("hop_ms: got %d, want %d", cfg.Pipeline.HopMs, DefaultHopMs)
	}
	if cfg.Pipeline.WindowMs != DefaultWindowMs {
		t.Errorf("window_ms: got %d, want %d", cfg.Pipeline.WindowMs, DefaultWindowMs)
	}
	if cfg.HTTPPort != 9000 {
		t.Errorf("http_port: got %d, want 9000", cfg.HTTPPort)
	}
	if cfg.WSPort != DefaultWSPort {
		t.Errorf("ws_port: got %d, want %d", cfg.WSPort, DefaultWSPort)
	}
}

func TestLoad_Full(t *testing.T) {
	p := writeConfig(t, `pipeline:
  window_ms: 1800000
  hop_ms: 500
  dedup_ttl_ms: 60000
  episode_gap_ms: 120000
  max_lead_ms: 60000
  max_alerts_per_minute: 50
  flap_drop_threshold: 5
http_port: 9090
ws_port: 9091
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pipeline.HopMs != 500 {
		t.Errorf("hop_ms: got %d, want 500", cfg.Pipeline.HopMs)
	}
	if cfg.Pipeline.MaxAlertsPerMinute != 50 {
		t.Errorf("max_alerts_per_minute: got %d, want 50", cfg.Pipeline.MaxAlertsPerMinute)
	}
	if cfg.Pipeline.FlapDropThreshold != 5 {
		t.Errorf("flap_drop_threshold: got %d, want 5", cfg.Pipeline.FlapDropThreshold)
	}
}

func TestLoad_InvalidHop(t *testing.T) {
	p := writeConfig(t, `pipeline:
  hop_ms: 0
`)
	_, err := Load(p)
	if err == nil {
		t.Fatal("expected error for hop_ms=0, got nil")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoad_RuleWithoutName(t *testing.T) {
	p := writeConfig(t, `pipeline:
  rules:
    - threshold: 3
`)
	_, err := Load(p)
	if err == nil {
		t.Fatal("expected error for rule with empty name, got nil")
	}
}

func TestApply_MergesRecognizedFields(t *testing.T) {
	cfg := Defaults()
	newMax := 200
	got, err := Apply(cfg, PartialUpdate{MaxAlertsPerMinute: &newMax})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.Pipeline.MaxAlertsPerMinute != 200 {
		t.Errorf("MaxAlertsPerMinute: got %d, want 200", got.Pipeline.MaxAlertsPerMinute)
	}
	// Original untouched.
	if cfg.Pipeline.MaxAlertsPerMinute != DefaultMaxAlertsPerMinute {
		t.Errorf("original cfg mutated: got %d", cfg.Pipeline.MaxAlertsPerMinute)
	}
}

func TestApply_RejectsInvalid(t *testing.T) {
	cfg := Defaults()
	badHop := int64(0)
	got, err := Apply(cfg, PartialUpdate{HopMs: &badHop})
	if err == nil {
		t.Fatal("expected error for hop_ms=0, got nil")
	}
	if got != cfg {
		t.Error("Apply: expected original config returned on validation failure")
	}
}

func TestApply_DurationFields(t *testing.T) {
	cfg := Defaults()
	quiet := 5 * time.Minute
	got, err := Apply(cfg, PartialUpdate{QuietThreshold: &quiet})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.Pipeline.QuietThreshold != 5*time.Minute {
		t.Errorf("QuietThreshold: got %v, want 5m", got.Pipeline.QuietThreshold)
	}
}
