package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the clip pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	operationsTotal *prometheus.CounterVec
	runsTotal       *prometheus.CounterVec
	cleanupFailures prometheus.Counter
	progress        prometheus.Gauge
}

// New creates and registers the pipeline metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	operationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kenburns_operations_total",
		Help: "Render engine operations by kind (clip, transition) and result",
	}, []string{"kind", "result"})
	runsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kenburns_runs_total",
		Help: "Pipeline runs by terminal state",
	}, []string{"state"})
	cleanupFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kenburns_cleanup_failures_total",
		Help: "Artifacts that could not be removed after use",
	})
	progress := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kenburns_run_progress_ratio",
		Help: "Completed operations over total operations of the current run",
	})

	registry.MustRegister(operationsTotal, runsTotal, cleanupFailures, progress)

	return &Metrics{
		registry:        registry,
		operationsTotal: operationsTotal,
		runsTotal:       runsTotal,
		cleanupFailures: cleanupFailures,
		progress:        progress,
	}
}

// ObserveOperation counts a finished render engine operation.
func (m *Metrics) ObserveOperation(kind string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operationsTotal.WithLabelValues(kind, result).Inc()
}

// ObserveRun counts a run that reached a terminal state.
func (m *Metrics) ObserveRun(state string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(state).Inc()
}

// IncCleanupFailures counts a failed artifact removal.
func (m *Metrics) IncCleanupFailures() {
	if m == nil {
		return
	}
	m.cleanupFailures.Inc()
}

// SetProgress sets the overall progress gauge.
func (m *Metrics) SetProgress(ratio float64) {
	if m == nil {
		return
	}
	m.progress.Set(ratio)
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that serves the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
