package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opspulse/sentinel/internal/model"
	"github.com/opspulse/sentinel/internal/pipeline"
)

const namespace = "sentinel"

// Registry wraps a Prometheus registry pre-populated with the pipeline's
// per-tick gauges, the cumulative ingress-drop and overrun gauges, and a
// tick counter. Call Subscribe(driver)
// to feed it, and Handler() to serve /metrics.
type Registry struct {
	reg *prom.Registry

	processingTimeMs       prom.Gauge
	memoryHintMB           prom.Gauge
	throughputAlertsPerSec prom.Gauge
	dedupRatePct           prom.Gauge
	correlationAccuracyPct prom.Gauge
	situationCount         prom.Gauge
	episodeCount           prom.Gauge

	droppedIngressTotal prom.Gauge
	tickOverrunsTotal   prom.Gauge

	tickCount prom.Counter
}

// New creates a Registry with all series registered.
func New() *Registry {
	reg := prom.NewRegistry()

	r := &Registry{
		reg: reg,
		processingTimeMs: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace, Name: "processing_time_ms",
			Help: "Wall-clock duration of the most recent pipeline tick, in milliseconds.",
		}),
		memoryHintMB: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace, Name: "memory_hint_mb",
			Help: "Rough estimate of tracked-state memory footprint, in megabytes.",
		}),
		throughputAlertsPerSec: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace, Name: "throughput_alerts_per_sec",
			Help: "Alerts processed per second in the most recent tick.",
		}),
		dedupRatePct: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace, Name: "dedup_rate_pct",
			Help: "Percentage of ingested alerts identified as duplicates in the most recent tick.",
		}),
		correlationAccuracyPct: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace, Name: "correlation_accuracy_pct",
			Help: "Percentage of live episodes assigned to exactly one situation.",
		}),
		situationCount: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace, Name: "situation_count",
			Help: "Number of situations published in the most recent tick.",
		}),
		episodeCount: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace, Name: "episode_count",
			Help: "Number of live episodes as of the most recent tick.",
		}),
		droppedIngressTotal: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace, Name: "dropped_ingress_total",
			Help: "Cumulative count of alerts/events dropped due to a full ingress queue.",
		}),
		tickOverrunsTotal: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace, Name: "tick_overruns_total",
			Help: "Cumulative count of ticks whose processing time exceeded 10x the hop interval.",
		}),
		tickCount: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace, Name: "ticks_total",
			Help: "Cumulative count of pipeline ticks processed.",
		}),
	}

	reg.MustRegister(
		r.processingTimeMs,
		r.memoryHintMB,
		r.throughputAlertsPerSec,
		r.dedupRatePct,
		r.correlationAccuracyPct,
		r.situationCount,
		r.episodeCount,
		r.droppedIngressTotal,
		r.tickOverrunsTotal,
		r.tickCount,
	)

	return r
}

// Subscribe registers the registry as a driver subscriber so its gauges
// update once per tick, and polls the driver's cumulative counters at the
// same cadence.
func (r *Registry) Subscribe(driver *pipeline.Driver) {
	driver.Subscribe(func(_ []*model.Situation, m pipeline.Metrics) {
		r.observe(driver, m)
	})
}

func (r *Registry) observe(driver *pipeline.Driver, m pipeline.Metrics) {
	r.processingTimeMs.Set(m.ProcessingTimeMs)
	r.memoryHintMB.Set(m.MemoryHintMB)
	r.throughputAlertsPerSec.Set(m.ThroughputAlertsPerSec)
	r.dedupRatePct.Set(m.DedupRatePct)
	r.correlationAccuracyPct.Set(m.CorrelationAccuracyPct)
	r.situationCount.Set(float64(m.SituationCount))
	r.episodeCount.Set(float64(m.EpisodeCount))
	r.droppedIngressTotal.Set(float64(driver.DroppedIngress()))
	r.tickOverrunsTotal.Set(float64(driver.TickOverruns()))
	r.tickCount.Inc()
}

// Handler returns the HTTP handler serving this registry's series in the
// Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
