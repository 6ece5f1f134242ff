package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "env_monitor"

// Metrics holds the Prometheus collectors for the poll cycle and the HTTP API.
type Metrics struct {
	CyclesTotal         *prometheus.CounterVec // labels: outcome={success,upstream_error,persist_error}
	CyclesSkipped       prometheus.Counter
	CycleDuration       prometheus.Histogram
	LastSuccess         prometheus.Gauge
	PersistErrors       prometheus.Counter
	PublishErrors       prometheus.Counter
	HTTPRequestsTotal   *prometheus.CounterVec // labels: route, status
	HistoryQueryLatency prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.CyclesTotal,
		m.CyclesSkipped,
		m.CycleDuration,
		m.LastSuccess,
		m.PersistErrors,
		m.PublishErrors,
		m.HTTPRequestsTotal,
		m.HistoryQueryLatency,
	)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Poll cycles by outcome.",
		}, []string{"outcome"}),
		CyclesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_skipped_total",
			Help:      "Timer ticks dropped because the previous cycle was still running.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a fetch-normalize-store cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last cycle that refreshed the latest reading.",
		}),
		PersistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_errors_total",
			Help:      "Readings that could not be appended to the history store.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Readings that could not be published downstream.",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "status"}),
		HistoryQueryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "history_query_duration_seconds",
			Help:      "Latency of history store queries.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
	}
}
