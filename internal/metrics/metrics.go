// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cheffry_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cheffry_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Domain
	InteractionToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cheffry_interaction_toggles_total",
			Help: "Interaction toggles by requested type and resulting action",
		},
		[]string{"type", "action"}, // action: created, removed, switched
	)

	ChefStreamsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cheffry_chef_streams_active",
			Help: "Chef chat completions currently streaming",
		},
	)

	FeedCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cheffry_affinity_cache_lookups_total",
			Help: "Affinity cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)

	// AI providers
	AICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cheffry_ai_calls_total",
			Help: "Outbound AI calls by provider, operation and outcome",
		},
		[]string{"provider", "operation", "outcome"}, // outcome: success, failure, rejected
	)

	AICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cheffry_ai_call_duration_seconds",
			Help:    "Outbound AI call latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		},
		[]string{"provider", "operation"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cheffry_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cheffry_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Notifications
	SMSSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cheffry_sms_sent_total",
			Help: "Outbound SMS messages by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAICall records one outbound AI call. outcome is success, failure or
// rejected.
func RecordAICall(provider, operation, outcome string, duration time.Duration) {
	AICallsTotal.WithLabelValues(provider, operation, outcome).Inc()
	if outcome != "rejected" {
		AICallDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
	}
}

func RecordToggle(requested, action string) {
	InteractionToggles.WithLabelValues(requested, action).Inc()
}

func RecordCacheLookup(result string) {
	FeedCacheLookups.WithLabelValues(result).Inc()
}

func RecordSMS(err error) {
	if err != nil {
		SMSSent.WithLabelValues("failure").Inc()
		return
	}
	SMSSent.WithLabelValues("success").Inc()
}
