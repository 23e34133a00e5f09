// Package metrics exposes Prometheus metrics for the account service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth operations.
const (
	OpLogin    = "login"
	OpRecovery = "recovery"
	OpRotation = "rotation"
	OpRegister = "register"
)

// OutcomeSuccess labels a successful auth operation. Failures are labelled
// with the failure kind.
const OutcomeSuccess = "success"

// OutcomeDeliveryFailed labels a recovery whose temporary password was stored
// but could not be handed to the notifier.
const OutcomeDeliveryFailed = "delivery_failed"

// Metrics holds the service collectors and the registry they live in.
type Metrics struct {
	registry     *prometheus.Registry
	authOutcomes *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates a registry with Go and process collectors plus the service metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		authOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "usuarios_auth_operations_total",
				Help: "Total number of credential operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "usuarios_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.authOutcomes,
		m.httpDuration,
	)
	return m
}

// RecordAuth counts one credential operation.
func (m *Metrics) RecordAuth(operation, outcome string) {
	m.authOutcomes.WithLabelValues(operation, outcome).Inc()
}

// ObserveHTTP records the duration of one HTTP request.
func (m *Metrics) ObserveHTTP(route, method string, status int, d time.Duration) {
	m.httpDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
