// Package metrics exposes the Prometheus collectors of the service.
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

const namespace = "sessionlog"

// Metrics owns a registry and the collectors registered on it. All methods
// are safe to call on a nil receiver, which records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	sessionsLogged   *prometheus.CounterVec
	storageFallbacks prometheus.Counter
	billingSync      *prometheus.CounterVec
	loginAttempts    *prometheus.CounterVec
	rateLimited      *prometheus.CounterVec
}

// New creates the collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		sessionsLogged: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_logged_total",
				Help:      "Tutoring sessions stored, by proof kind and storage backend",
			},
			[]string{"proof_kind", "backend"},
		),
		storageFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "storage",
				Name:      "fallbacks_total",
				Help:      "Remote storage writes that fell back to local disk",
			},
		),
		billingSync: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "billing",
				Name:      "sync_customers_total",
				Help:      "Customers seen by the billing import, by outcome",
			},
			[]string{"outcome"},
		),
		loginAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "login_attempts_total",
				Help:      "Login attempts by result",
			},
			[]string{"result"},
		),
		rateLimited: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "rate_limited_total",
				Help:      "Requests rejected by a rate limit bucket",
			},
			[]string{"bucket"},
		),
	}
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one finished HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// SessionLogged counts a stored session
func (m *Metrics) SessionLogged(proofKind, backend string) {
	if m == nil {
		return
	}
	m.sessionsLogged.WithLabelValues(proofKind, backend).Inc()
}

// StorageFallback counts a remote write that landed on local disk
func (m *Metrics) StorageFallback() {
	if m == nil {
		return
	}
	m.storageFallbacks.Inc()
}

// BillingSync adds the outcome of an import run
func (m *Metrics) BillingSync(fetched, created, skipped int) {
	if m == nil {
		return
	}
	m.billingSync.WithLabelValues("fetched").Add(float64(fetched))
	m.billingSync.WithLabelValues("created").Add(float64(created))
	m.billingSync.WithLabelValues("skipped").Add(float64(skipped))
}

// LoginAttempt counts a login by result
func (m *Metrics) LoginAttempt(success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.loginAttempts.WithLabelValues(result).Inc()
}

// RateLimited counts a rejected request
func (m *Metrics) RateLimited(bucket string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(bucket).Inc()
}
