package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "memory_server"

// OAuth events recorded by the authorization server.
const (
	EventClientRegistered = "client_registered"
	EventCodeIssued       = "code_issued"
	EventTokenIssued      = "token_issued"
	EventTokenRejected    = "token_rejected"
)

// Recorder is what the rest of the server depends on; tests can pass Noop.
type Recorder interface {
	ObserveHTTP(method, route string, status int, seconds float64)
	AddInFlight(delta float64)
	RecordOAuthEvent(event string)
	RecordMemoryOperation(op string, success bool)
}

// Metrics holds the Prometheus collectors on a private registry, so several
// servers can live in one process (tests) without duplicate registration.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	OAuthEventsTotal     *prometheus.CounterVec
	MemoryOpsTotal       *prometheus.CounterVec
}

var _ Recorder = (*Metrics)(nil)

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		HTTPRequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
		OAuthEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oauth_events_total",
			Help:      "Authorization server events.",
		}, []string{"event"}),
		MemoryOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_operations_total",
			Help:      "Memory store operations by outcome.",
		}, []string{"operation", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.OAuthEventsTotal,
		m.MemoryOpsTotal,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry (used by tests to gather values).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, route string, status int, seconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, statusLabel(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) AddInFlight(delta float64) {
	m.HTTPRequestsInFlight.Add(delta)
}

func (m *Metrics) RecordOAuthEvent(event string) {
	m.OAuthEventsTotal.WithLabelValues(event).Inc()
}

func (m *Metrics) RecordMemoryOperation(op string, success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	m.MemoryOpsTotal.WithLabelValues(op, result).Inc()
}

func statusLabel(status int) string {
	return strconv.Itoa(status)
}
