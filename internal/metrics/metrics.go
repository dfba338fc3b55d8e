// Package metrics owns the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	aggregations    *prometheus.CounterVec
	snapshotLoads   *prometheus.CounterVec
	snapshotSize    prometheus.Gauge
}

// New registers collectors on a private registry so several servers can live
// in one process (tests do this).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoicedesk",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "invoicedesk",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		aggregations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoicedesk",
			Name:      "aggregations_total",
			Help:      "Insight aggregations by dimension.",
		}, []string{"dimension"}),
		snapshotLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoicedesk",
			Name:      "snapshot_loads_total",
			Help:      "Invoice snapshot loads by origin (cache, source, error).",
		}, []string{"origin"}),
		snapshotSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "invoicedesk",
			Name:      "snapshot_invoices",
			Help:      "Valid invoices in the most recent snapshot.",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveAggregation(dimension string) {
	m.aggregations.WithLabelValues(dimension).Inc()
}

func (m *Metrics) ObserveSnapshot(origin string, validInvoices int) {
	m.snapshotLoads.WithLabelValues(origin).Inc()
	if origin != "error" {
		m.snapshotSize.Set(float64(validInvoices))
	}
}
