package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the pipeline configuration, per spec.md §3/§4.
const (
	DefaultWindowMs             = 30 * 60 * 1000 // 30 minutes
	DefaultHopMs                = 1000           // 1 second
	DefaultDedupTTLMs           = 120 * 1000      // 2 minutes
	DefaultEpisodeGapMs         = 2 * 60 * 1000   // 2 minutes
	DefaultMaxLeadMs            = 90 * 1000       // 90 seconds
	DefaultMaxSituationLifetime = 90 * time.Minute
	DefaultQuietThreshold       = 15 * time.Minute
	DefaultMaxAlertsPerMinute   = 100
	DefaultFlapDropThreshold    = 3

	DefaultHTTPPort = 8090
	DefaultWSPort   = 8091
)

// MatchSpec is a single rule match condition: an equality or substring test
// against a top-level or involvedObject.* raw-event field.
type MatchSpec struct {
	Field  string `yaml:"field"`
	Op     string `yaml:"op"` // "eq" | "contains"
	Value  string `yaml:"value"`
}

// ThresholdRule declares one rule for the Threshold Engine (spec.md §4.1).
type ThresholdRule struct {
	Name      string        `yaml:"name"`
	Key       []string      `yaml:"key"`   // ordered field selectors forming the composite key
	Match     []MatchSpec   `yaml:"match"` // all must hold for the rule to match
	Threshold int           `yaml:"threshold"`
	Severity  string        `yaml:"severity"`
	Window    time.Duration `yaml:"window"`
	Cooldown  time.Duration `yaml:"cooldown"`
}

// PipelineConfig holds the tunables named in spec.md §3's Pipeline Config row.
// All *Ms fields are milliseconds to match the epoch-ms convention used
// throughout the pipeline; the two lifetime fields are time.Duration because
// they are only ever compared against wall-clock deltas, never stored as a
// timestamp.
type PipelineConfig struct {
	WindowMs             int64             `yaml:"window_ms"`
	HopMs                int64             `yaml:"hop_ms"`
	DedupTTLMs           int64             `yaml:"dedup_ttl_ms"`
	EpisodeGapMs         int64             `yaml:"episode_gap_ms"`
	MaxLeadMs            int64             `yaml:"max_lead_ms"`
	MaxSituationLifetime time.Duration     `yaml:"max_situation_lifetime"`
	QuietThreshold       time.Duration     `yaml:"quiet_threshold"`
	MaxAlertsPerMinute   int               `yaml:"max_alerts_per_minute"`
	FlapDropThreshold    int               `yaml:"flap_drop_threshold"`
	SeverityWeights      map[string]int    `yaml:"severity_weights,omitempty"`
	Rules                []ThresholdRule   `yaml:"rules"`
}

// Config is the top-level configuration document.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	HTTPPort int            `yaml:"http_port"`
	WSPort   int            `yaml:"ws_port"`
}

// Load reads and parses the config file at path. Missing fields are filled
// with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Defaults returns a Config pre-populated with spec.md's stated defaults.
func Defaults() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			WindowMs:             DefaultWindowMs,
			HopMs:                DefaultHopMs,
			DedupTTLMs:           DefaultDedupTTLMs,
			EpisodeGapMs:         DefaultEpisodeGapMs,
			MaxLeadMs:            DefaultMaxLeadMs,
			MaxSituationLifetime: DefaultMaxSituationLifetime,
			QuietThreshold:       DefaultQuietThreshold,
			MaxAlertsPerMinute:   DefaultMaxAlertsPerMinute,
			FlapDropThreshold:    DefaultFlapDropThreshold,
		},
		HTTPPort: DefaultHTTPPort,
		WSPort:   DefaultWSPort,
	}
}

// Validate checks structural constraints on the parsed configuration.
// A configuration error (spec.md §7) must never mutate the running config —
// callers are expected to retain the prior Config when Validate fails.
func Validate(cfg *Config) error {
	if cfg.Pipeline.HopMs <= 0 {
		return fmt.Errorf("pipeline.hop_ms must be > 0, got %d", cfg.Pipeline.HopMs)
	}
	if cfg.Pipeline.WindowMs <= 0 {
		return fmt.Errorf("pipeline.window_ms must be > 0, got %d", cfg.Pipeline.WindowMs)
	}
	if cfg.Pipeline.DedupTTLMs < 0 {
		return fmt.Errorf("pipeline.dedup_ttl_ms must be >= 0, got %d", cfg.Pipeline.DedupTTLMs)
	}
	if cfg.Pipeline.EpisodeGapMs <= 0 {
		return fmt.Errorf("pipeline.episode_gap_ms must be > 0, got %d", cfg.Pipeline.EpisodeGapMs)
	}
	if cfg.Pipeline.MaxLeadMs < 0 {
		return fmt.Errorf("pipeline.max_lead_ms must be >= 0, got %d", cfg.Pipeline.MaxLeadMs)
	}
	if cfg.Pipeline.MaxAlertsPerMinute <= 0 {
		return fmt.Errorf("pipeline.max_alerts_per_minute must be > 0, got %d", cfg.Pipeline.MaxAlertsPerMinute)
	}
	if cfg.Pipeline.FlapDropThreshold < 0 {
		return fmt.Errorf("pipeline.flap_drop_threshold must be >= 0, got %d", cfg.Pipeline.FlapDropThreshold)
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return fmt.Errorf("http_port %d is out of range [1, 65535]", cfg.HTTPPort)
	}
	if cfg.WSPort <= 0 || cfg.WSPort > 65535 {
		return fmt.Errorf("ws_port %d is out of range [1, 65535]", cfg.WSPort)
	}
	for _, r := range cfg.Pipeline.Rules {
		if r.Name == "" {
			return fmt.Errorf("rules: a rule with empty name is not allowed")
		}
		if r.Threshold <= 0 {
			return fmt.Errorf("rules[%s]: threshold must be > 0", r.Name)
		}
	}
	return nil
}

// PartialUpdate holds the subset of pipeline options recognized by
// update_config (spec.md §6). Nil fields are left unchanged by Apply.
type PartialUpdate struct {
	WindowMs             *int64
	HopMs                *int64
	DedupTTLMs           *int64
	EpisodeGapMs         *int64
	MaxLeadMs            *int64
	MaxSituationLifetime *time.Duration
	QuietThreshold       *time.Duration
	MaxAlertsPerMinute   *int
	FlapDropThreshold    *int
}

// Apply merges the recognized, non-nil fields of u into a copy of cfg and
// validates the result. On validation failure, the original cfg is
// returned unchanged along with the error (spec.md §7 "Configuration error").
func Apply(cfg *Config, u PartialUpdate) (*Config, error) {
	next := *cfg
	if u.WindowMs != nil {
		next.Pipeline.WindowMs = *u.WindowMs
	}
	if u.HopMs != nil {
		next.Pipeline.HopMs = *u.HopMs
	}
	if u.DedupTTLMs != nil {
		next.Pipeline.DedupTTLMs = *u.DedupTTLMs
	}
	if u.EpisodeGapMs != nil {
		next.Pipeline.EpisodeGapMs = *u.EpisodeGapMs
	}
	if u.MaxLeadMs != nil {
		next.Pipeline.MaxLeadMs = *u.MaxLeadMs
	}
	if u.MaxSituationLifetime != nil {
		next.Pipeline.MaxSituationLifetime = *u.MaxSituationLifetime
	}
	if u.QuietThreshold != nil {
		next.Pipeline.QuietThreshold = *u.QuietThreshold
	}
	if u.MaxAlertsPerMinute != nil {
		next.Pipeline.MaxAlertsPerMinute = *u.MaxAlertsPerMinute
	}
	if u.FlapDropThreshold != nil {
		next.Pipeline.FlapDropThreshold = *u.FlapDropThreshold
	}

	if err := Validate(&next); err != nil {
		return cfg, fmt.Errorf("update_config: %w", err)
	}
	return &next, nil
}
