// Package metrics exposes run progress as prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/umputun/livecheck/pkg/catalog"
	"github.com/umputun/livecheck/pkg/runner"
)

// Recorder is a runner.Observer collecting case metrics into its own registry.
type Recorder struct {
	reg         *prometheus.Registry
	cases       *prometheus.CounterVec
	transitions *prometheus.CounterVec
	elapsed     *prometheus.HistogramVec
	latency     *prometheus.HistogramVec
	inFlight    prometheus.Gauge
}

// NewRecorder creates a Recorder with a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		cases: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livecheck",
			Name:      "cases_total",
			Help:      "Finished cases by suite and outcome.",
		}, []string{"suite", "outcome"}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livecheck",
			Name:      "state_transitions_total",
			Help:      "Case state machine transitions by target state.",
		}, []string{"state"}),
		elapsed: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "livecheck",
			Name:      "case_duration_seconds",
			Help:      "Wall time of a case, including grace delays.",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 16, 32, 64},
		}, []string{"suite"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "livecheck",
			Name:      "convergence_latency_seconds",
			Help:      "Time from input injection to the first candidate output.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		}, []string{"suite"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "livecheck",
			Name:      "case_in_flight",
			Help:      "1 while a case is running.",
		}),
	}
}

// OnTransition counts state changes and tracks whether a case is in flight.
func (r *Recorder) OnTransition(_ string, _ catalog.Case, _, to runner.State) {
	r.transitions.WithLabelValues(string(to)).Inc()
	switch {
	case to == runner.StateCleared:
		r.inFlight.Set(1)
	case to.Terminal():
		r.inFlight.Set(0)
	}
}

// OnVerdict records the outcome and timings of a finished case.
func (r *Recorder) OnVerdict(v runner.Verdict) {
	r.cases.WithLabelValues(v.Suite, string(v.Outcome)).Inc()
	r.elapsed.WithLabelValues(v.Suite).Observe(v.Elapsed.Seconds())
	if v.Latency > 0 {
		r.latency.WithLabelValues(v.Suite).Observe(v.Latency.Seconds())
	}
}

// Handler serves the registry in prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }
