package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opspulse/sentinel/internal/config"
	"github.com/opspulse/sentinel/internal/dedup"
	"github.com/opspulse/sentinel/internal/episode"
	"github.com/opspulse/sentinel/internal/graphhints"
	"github.com/opspulse/sentinel/internal/model"
	"github.com/opspulse/sentinel/internal/scorer"
	"github.com/opspulse/sentinel/internal/situation"
	"github.com/opspulse/sentinel/internal/threshold"
)

// ingressCapacity bounds the single-producer/single-consumer alert and raw
// event queues (spec.md §5).
const ingressCapacity = 4096

// Subscriber is invoked at most once per tick with the newly published
// situation snapshot and its accompanying metrics (spec.md §6).
type Subscriber func(situations []*model.Situation, metrics Metrics)

// Driver owns every stage's mutable state and runs the full Threshold →
// Dedup → Episode → Situation → Scorer pass on each tick. All stage
// mutation happens on the driver's own goroutine. Ingest, IngestRawEvent,
// UpdateGraphHints, UpdateConfig, Subscribe, the Current* snapshot readers,
// DroppedIngress, TickOverruns, Start and Stop are safe to call from other
// goroutines.
type Driver struct {
	cfgMu sync.RWMutex
	cfg   *config.Config

	threshold *threshold.Engine
	dedup     *dedup.Deduplicator
	clusterer *episode.Clusterer
	hints     *graphhints.Store
	registry  *situationRegistry

	alertCh    chan *model.Alert
	rawEventCh chan *model.RawEvent

	droppedIngress int64
	overruns       int64
	tickIndex      uint64

	subMu sync.Mutex
	subs  []Subscriber

	snapMu        sync.RWMutex
	lastPublished []*model.Situation
	lastEpisodes  []*model.Episode
	lastMetrics   Metrics

	runMu   sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New builds a Driver wired from cfg, sharing hints as the live graph-hints
// source consulted by the Scorer on each tick.
func New(cfg *config.Config, hints *graphhints.Store) *Driver {
	return &Driver{
		cfg:        cfg,
		threshold:  threshold.New(cfg.Pipeline.Rules),
		dedup:      dedup.New(cfg.Pipeline.DedupTTLMs, cfg.Pipeline.FlapDropThreshold, cfg.Pipeline.MaxAlertsPerMinute),
		clusterer:  episode.New(cfg.Pipeline.EpisodeGapMs, cfg.Pipeline.WindowMs),
		hints:      hints,
		registry:   newSituationRegistry(),
		alertCh:    make(chan *model.Alert, ingressCapacity),
		rawEventCh: make(chan *model.RawEvent, ingressCapacity),
	}
}

// Ingest enqueues a single alert. Returns immediately; if the ingress queue
// is full the oldest queued alert is dropped to make room, per the
// back-pressure policy in spec.md §5.
func (d *Driver) Ingest(a *model.Alert) {
	enqueue(d.alertCh, a, &d.droppedIngress)
}

// IngestRawEvent enqueues a single raw cluster event for the Threshold
// Engine. Same semantics as Ingest.
func (d *Driver) IngestRawEvent(ev *model.RawEvent) {
	enqueue(d.rawEventCh, ev, &d.droppedIngress)
}

func enqueue[T any](ch chan T, v T, dropped *int64) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch: // drop oldest to make room
		atomic.AddInt64(dropped, 1)
	default:
	}
	select {
	case ch <- v:
	default:
		atomic.AddInt64(dropped, 1)
	}
}

// UpdateGraphHints atomically replaces the graph consulted by the Scorer.
// The new hints take effect starting with the next tick.
func (d *Driver) UpdateGraphHints(hints *model.GraphHints) {
	d.hints.Set(hints)
}

// UpdateConfig merges the recognized fields of u into the running config.
// On validation failure the prior config is retained and the error is
// returned (spec.md §7, "Configuration error").
func (d *Driver) UpdateConfig(u config.PartialUpdate) error {
	d.cfgMu.Lock()
	defer d.cfgMu.Unlock()

	next, err := config.Apply(d.cfg, u)
	if err != nil {
		return err
	}
	d.cfg = next
	d.threshold.SetRules(next.Pipeline.Rules)
	d.dedup.Configure(next.Pipeline.DedupTTLMs, next.Pipeline.FlapDropThreshold, next.Pipeline.MaxAlertsPerMinute)
	d.clusterer.Configure(next.Pipeline.EpisodeGapMs, next.Pipeline.WindowMs)
	return nil
}

func (d *Driver) currentConfig() *config.Config {
	d.cfgMu.RLock()
	defer d.cfgMu.RUnlock()
	return d.cfg
}

// Subscribe registers a consumer invoked at most once per tick with the
// freshly published situation set and tick metrics.
func (d *Driver) Subscribe(sub Subscriber) {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	d.subs = append(d.subs, sub)
}

// CurrentSituations returns a synchronous snapshot of the latest published
// set.
func (d *Driver) CurrentSituations() []*model.Situation {
	d.snapMu.RLock()
	defer d.snapMu.RUnlock()
	out := make([]*model.Situation, len(d.lastPublished))
	copy(out, d.lastPublished)
	return out
}

// CurrentEpisodes returns a synchronous snapshot of the live episode set as
// of the latest tick.
func (d *Driver) CurrentEpisodes() []*model.Episode {
	d.snapMu.RLock()
	defer d.snapMu.RUnlock()
	out := make([]*model.Episode, len(d.lastEpisodes))
	copy(out, d.lastEpisodes)
	return out
}

// CurrentMetrics returns the metrics bundle published alongside the latest
// situation snapshot.
func (d *Driver) CurrentMetrics() Metrics {
	d.snapMu.RLock()
	defer d.snapMu.RUnlock()
	return d.lastMetrics
}

// DroppedIngress returns the cumulative count of alerts/events dropped
// because the ingress queue was full (spec.md §5 back-pressure policy).
func (d *Driver) DroppedIngress() int64 {
	return atomic.LoadInt64(&d.droppedIngress)
}

// TickOverruns returns the cumulative count of ticks whose processing time
// exceeded 10x the configured hop interval (spec.md §7).
func (d *Driver) TickOverruns() int64 {
	return atomic.LoadInt64(&d.overruns)
}

// Start launches the tick loop if it is not already running. Idempotent:
// calling Start again before a Stop is a no-op, and a Driver may be
// restarted after Stop.
func (d *Driver) Start(ctx context.Context) {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	if d.running {
		return
	}
	d.stopCh = make(chan struct{})
	d.doneCh = make(chan struct{})
	d.running = true
	go d.run(ctx, d.stopCh, d.doneCh)
}

// Stop halts the tick loop, draining the in-flight tick to completion
// before returning.
func (d *Driver) Stop() {
	d.runMu.Lock()
	if !d.running {
		d.runMu.Unlock()
		return
	}
	stopCh, doneCh := d.stopCh, d.doneCh
	d.running = false
	d.runMu.Unlock()

	close(stopCh)
	<-doneCh
}

func (d *Driver) run(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	hop := time.Duration(d.currentConfig().Pipeline.HopMs) * time.Millisecond
	ticker := time.NewTicker(hop)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case now := <-ticker.C:
			d.tick(now)
			if newHop := time.Duration(d.currentConfig().Pipeline.HopMs) * time.Millisecond; newHop != hop {
				hop = newHop
				ticker.Reset(hop)
			}
		}
	}
}

// tick runs one full pipeline pass. A panic inside any stage is recovered:
// the tick is abandoned, the previous published snapshot is left
// untouched, and processing continues on the next tick (spec.md §7,
// "Transient stage failure").
func (d *Driver) tick(wallNow time.Time) {
	start := time.Now()
	cfg := d.currentConfig()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("pipeline: tick panic recovered, previous snapshot retained",
				"panic", r, "tick", d.tickIndex)
		}
		d.tickIndex++
		if elapsed := time.Since(start); elapsed > 10*time.Duration(cfg.Pipeline.HopMs)*time.Millisecond {
			atomic.AddInt64(&d.overruns, 1)
			slog.Warn("pipeline: tick overrun", "elapsed", elapsed, "tick", d.tickIndex)
		}
	}()

	nowMs := wallNow.UnixMilli()

	rawEvents := drain(d.rawEventCh)
	alerts := drain(d.alertCh)

	synthesized := d.threshold.Process(rawEvents, nowMs)
	batch := append(alerts, synthesized...)

	deduped, dedupStats := d.dedup.Process(batch, nowMs)
	liveEpisodes := d.clusterer.Assign(deduped, nowMs)

	situations := situation.Build(liveEpisodes, deduped)
	situations = scorer.Score(situations, d.hints.Current(), cfg.Pipeline.MaxLeadMs)

	published := d.registry.merge(situations, nowMs, cfg.Pipeline.MaxSituationLifetime, cfg.Pipeline.QuietThreshold)

	metrics := buildMetrics(start, cfg, len(batch), dedupStats, liveEpisodes, published)
	d.publish(published, liveEpisodes, metrics)
}

func drain[T any](ch chan T) []T {
	var out []T
	for {
		select {
		case v := <-ch:
			out = append(out, v)
		default:
			return out
		}
	}
}

func (d *Driver) publish(situations []*model.Situation, episodes []*model.Episode, metrics Metrics) {
	d.snapMu.Lock()
	d.lastPublished = situations
	d.lastEpisodes = episodes
	d.lastMetrics = metrics
	d.snapMu.Unlock()

	d.subMu.Lock()
	subs := make([]Subscriber, len(d.subs))
	copy(subs, d.subs)
	d.subMu.Unlock()

	for _, sub := range subs {
		sub(situations, metrics)
	}
}
