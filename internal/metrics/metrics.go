// Package metrics exposes the run's operational counters over Prometheus,
// grounded on the provider pattern in 99souls-ariadne's
// engine/telemetry/metrics/prometheus.go, simplified to the small fixed set
// of gauges/counters this simulator needs rather than that package's
// dynamic namespace/cardinality-tracking registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles every metric the simulation loop, harvest engine, and
// management engine update each step/year.
type Registry struct {
	reg *prometheus.Registry

	StepDuration    prometheus.Histogram
	ClampEvents     prometheus.Counter
	AssessFailures  *prometheus.CounterVec // label: stock
	TACClosed       *prometheus.GaugeVec   // label: fleet; 1 = closed
	CPUEShots       prometheus.Counter
	CumulativeCatch *prometheus.GaugeVec // labels: species, fleet
}

// New builds and registers a fresh metrics registry.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		StepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ecosim_step_duration_seconds",
			Help:    "wall-clock duration of one simulation step",
			Buckets: prometheus.DefBuckets,
		}),
		ClampEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecosim_clamp_events_total",
			Help: "count of numerical clamp events (negative tracer after commit)",
		}),
		AssessFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecosim_assessment_failures_total",
			Help: "count of external/R assessment failures per stock",
		}, []string{"stock"}),
		TACClosed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ecosim_fleet_tac_closed",
			Help: "1 if a fleet is closed by TAC exhaustion, else 0",
		}, []string{"fleet"}),
		CPUEShots: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecosim_cpue_shots_total",
			Help: "count of synthesised CPUE shots",
		}),
		CumulativeCatch: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ecosim_cumulative_catch_tonnes",
			Help: "cumulative catch within the current year, per species/fleet",
		}, []string{"species", "fleet"}),
	}

	reg.MustRegister(
		r.StepDuration,
		r.ClampEvents,
		r.AssessFailures,
		r.TACClosed,
		r.CPUEShots,
		r.CumulativeCatch,
	)
	return r
}

// Handler exposes the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
