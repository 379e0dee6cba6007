package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application's Prometheus collectors.
type Metrics struct {
	registry         *prometheus.Registry
	workflowOutcomes *prometheus.CounterVec
	searchDuration   *prometheus.HistogramVec
	probeOutcomes    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		workflowOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "podnplay",
			Name:      "workflow_operations_total",
			Help:      "Audio workflow operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "podnplay",
			Name:      "search_duration_seconds",
			Help:      "Podcast search latency by resulting view state.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"state"}),
		probeOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "podnplay",
			Name:      "audio_probe_total",
			Help:      "Audio duration probes by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		m.workflowOutcomes,
		m.searchDuration,
		m.probeOutcomes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveWorkflow(operation, outcome string) {
	m.workflowOutcomes.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveSearch(state string, elapsed time.Duration) {
	m.searchDuration.WithLabelValues(state).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveProbe(outcome string) {
	m.probeOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
