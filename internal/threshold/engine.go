package threshold

import (
	"fmt"
	"strings"
	"sync"

	"github.com/opspulse/sentinel/internal/config"
	"github.com/opspulse/sentinel/internal/model"
)

// ruleState is the sliding sequence of matching event timestamps and the
// cooldown deadline for one (rule, key) pair.
type ruleState struct {
	timestamps    []int64
	cooldownUntil int64
}

// Engine converts raw cluster events into synthesized alerts using a
// declarative rule set. Engine is safe for concurrent use, though in the
// pipeline's single-threaded driver model it is only ever called from the
// tick goroutine.
type Engine struct {
	mu    sync.Mutex
	rules []config.ThresholdRule
	state map[string]*ruleState

	malformedDropped int64
	emittedTotal      int64
}

// New creates an Engine from the declarative rule set.
func New(rules []config.ThresholdRule) *Engine {
	return &Engine{
		rules: rules,
		state: make(map[string]*ruleState),
	}
}

// SetRules replaces the rule set at a tick boundary (called by update_config).
func (e *Engine) SetRules(rules []config.ThresholdRule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = rules
}

// Process evaluates every rule against each event in the batch and returns
// the synthesized alerts emitted this tick. now is the tick time in epoch ms
// — never wall-clock time, per spec.md §9's note on replay stability.
func (e *Engine) Process(events []*model.RawEvent, now int64) []*model.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []*model.Alert
	for _, ev := range events {
		if ev == nil || ev.TimestampMs <= 0 {
			e.malformedDropped++
			continue
		}
		for _, rule := range e.rules {
			if !matches(rule, ev) {
				continue
			}
			key := compositeKey(rule, ev)
			stateKey := rule.Name + "\x00" + key

			st, ok := e.state[stateKey]
			if !ok {
				st = &ruleState{}
				e.state[stateKey] = st
			}
			st.timestamps = append(st.timestamps, ev.TimestampMs)
			st.timestamps = pruneOlderThan(st.timestamps, now-int64(rule.Window.Milliseconds()))

			if len(st.timestamps) >= rule.Threshold && now >= st.cooldownUntil {
				alert := synthesize(rule, key, st.timestamps, now)
				out = append(out, alert)
				e.emittedTotal++
				st.cooldownUntil = now + rule.Cooldown.Milliseconds()
			}
		}
	}

	e.evictEmpty(now)
	return out
}

// MalformedDropped returns the running count of events dropped for missing
// or invalid fields.
func (e *Engine) MalformedDropped() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.malformedDropped
}

// evictEmpty reclaims memory for (rule,key) entries whose sequence has
// drained to empty and whose cooldown has elapsed (spec.md §4.1).
func (e *Engine) evictEmpty(now int64) {
	for k, st := range e.state {
		if len(st.timestamps) == 0 && now >= st.cooldownUntil {
			delete(e.state, k)
		}
	}
}

func matches(rule config.ThresholdRule, ev *model.RawEvent) bool {
	for _, m := range rule.Match {
		v, ok := ev.Field(m.Field)
		if !ok {
			return false
		}
		switch m.Op {
		case "contains":
			if !strings.Contains(v, m.Value) {
				return false
			}
		default: // "eq" and unspecified default to equality
			if v != m.Value {
				return false
			}
		}
	}
	return true
}

func compositeKey(rule config.ThresholdRule, ev *model.RawEvent) string {
	parts := make([]string, 0, len(rule.Key))
	for _, field := range rule.Key {
		v, _ := ev.Field(field)
		parts = append(parts, v)
	}
	return strings.Join(parts, "|")
}

func pruneOlderThan(ts []int64, cutoff int64) []int64 {
	i := 0
	for i < len(ts) && ts[i] < cutoff {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0], ts[i:]...)
}

func synthesize(rule config.ThresholdRule, key string, timestamps []int64, now int64) *model.Alert {
	first, last := timestamps[0], timestamps[len(timestamps)-1]
	return &model.Alert{
		ID:          fmt.Sprintf("%s:%s:%d", rule.Name, key, now),
		TimestampMs: last,
		Source:      "k8s",
		Fingerprint: rule.Name + "|" + key,
		Status:      model.StatusFiring,
		Severity:    model.Severity(rule.Severity),
		Kind:        "threshold",
		EntityKey:   key,
		Tags: map[string]string{
			"rule_name": rule.Name,
			"count":     fmt.Sprintf("%d", len(timestamps)),
			"first_ts":  fmt.Sprintf("%d", first),
			"last_ts":   fmt.Sprintf("%d", last),
		},
	}
}
