// Package metrics exposes prometheus collectors for pipeline runs.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tabprep"

// Metrics holds the run, stage and export collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	runs          *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	exports       *prometheus.CounterVec
	inFlight      prometheus.Gauge
	requests      *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by final status.",
		}, []string{"status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_total",
			Help:      "Exports by destination kind and result.",
		}, []string{"kind", "result"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_in_flight",
			Help:      "Pipeline runs currently executing.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP responses by route and status code.",
		}, []string{"route", "code"}),
	}
	m.registry.MustRegister(
		m.runs, m.stageDuration, m.exports, m.inFlight, m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveStage records how long a stage took
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RunStarted increments the in-flight gauge
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// RunFinished counts a run by status and decrements the in-flight gauge
func (m *Metrics) RunFinished(status string) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.runs.WithLabelValues(status).Inc()
}

// ExportFinished counts one export
func (m *Metrics) ExportFinished(kind string, ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.exports.WithLabelValues(kind, result).Inc()
}

// ObserveRequest counts an HTTP response by route pattern and status code
func (m *Metrics) ObserveRequest(route string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
