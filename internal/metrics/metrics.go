// Package metrics exposes Prometheus instrumentation for scans, token
// refreshes and provider API calls.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric names.
const (
	MetricScansTotal             = "bipagem_scans_total"
	MetricTokenRefreshesTotal    = "bipagem_token_refreshes_total"
	MetricAuthorizationsTotal    = "bipagem_authorizations_total"
	MetricUpstreamDurationSecond = "bipagem_upstream_request_duration_seconds"
	MetricHTTPRequestsTotal      = "bipagem_http_requests_total"
)

// Scan outcomes.
const (
	OutcomeResolved    = "resolved"
	OutcomePlaceholder = "placeholder"
	OutcomeError       = "error"
)

// Metrics holds the collectors of one server. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	scans          *prometheus.CounterVec
	refreshes      *prometheus.CounterVec
	authorizations *prometheus.CounterVec
	upstream       *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricScansTotal,
			Help: "Barcode scans by platform and outcome.",
		}, []string{"platform", "outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricTokenRefreshesTotal,
			Help: "Token refresh attempts by platform and result.",
		}, []string{"platform", "result"}),
		authorizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricAuthorizationsTotal,
			Help: "Completed authorization callbacks by platform and result.",
		}, []string{"platform", "result"}),
		upstream: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricUpstreamDurationSecond,
			Help:    "Latency of marketplace API calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"platform", "endpoint", "status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricHTTPRequestsTotal,
			Help: "HTTP requests served by route and status.",
		}, []string{"method", "route", "status"}),
	}
	registry.MustRegister(
		m.scans,
		m.refreshes,
		m.authorizations,
		m.upstream,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveScan(platform, outcome string) {
	if m == nil {
		return
	}
	m.scans.WithLabelValues(platform, outcome).Inc()
}

func (m *Metrics) ObserveRefresh(platform, result string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(platform, result).Inc()
}

func (m *Metrics) ObserveAuthorization(platform, result string) {
	if m == nil {
		return
	}
	m.authorizations.WithLabelValues(platform, result).Inc()
}

// ObserveUpstream records one provider API call. status is 0 when the
// request failed before a response arrived.
func (m *Metrics) ObserveUpstream(platform, endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.upstream.WithLabelValues(platform, endpoint, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) ObserveHTTP(method, route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
