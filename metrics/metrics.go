package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"panellicense/models"
)

const namespace = "panellicense"

// License states exported on the licenses gauge.
const (
	StateUnactivated = "unactivated"
	StateActive      = "active"
	StateGrace       = "grace"
	StateExpired     = "expired"
	StateSuspended   = "suspended"
)

// Metrics owns a private registry so tests and multiple servers never collide on the global one.
type Metrics struct {
	registry        *prometheus.Registry
	operations      *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	licenses        *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "license_operations_total",
			Help:      "License authority operations by outcome.",
		}, []string{"operation", "result"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "status"}),
		licenses: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "licenses",
			Help:      "Licenses per derived state at the last refresh.",
		}, []string{"state"}),
	}

	m.registry.MustRegister(
		m.operations,
		m.requestDuration,
		m.licenses,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveOperation counts one authority call. Its signature matches services.Observer.
func (m *Metrics) ObserveOperation(operation, result string) {
	m.operations.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) ObserveRequest(path string, status int, d time.Duration) {
	m.requestDuration.WithLabelValues(path, strconv.Itoa(status)).Observe(d.Seconds())
}

// SetLicenseCounts replaces the licenses gauge with a fresh snapshot.
func (m *Metrics) SetLicenseCounts(c models.LicenseStateCounts) {
	m.licenses.WithLabelValues(StateUnactivated).Set(float64(c.Unactivated))
	m.licenses.WithLabelValues(StateActive).Set(float64(c.Active))
	m.licenses.WithLabelValues(StateGrace).Set(float64(c.Grace))
	m.licenses.WithLabelValues(StateExpired).Set(float64(c.Expired))
	m.licenses.WithLabelValues(StateSuspended).Set(float64(c.Suspended))
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
