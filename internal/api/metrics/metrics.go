// Package metrics defines the custom Prometheus metrics of the marketplace
// API. HTTP request metrics come from echoprometheus; this package holds the
// domain counters recorded by middleware, handlers and the enrollment
// dispatcher.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// ── Auth ──────────────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts token requests.
// Label:
//   - result: "success", "invalid_credentials" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// AccessDecisionsTotal counts route guard outcomes.
// Labels:
//   - decision: "allow" or "deny"
//   - reason: "ok", "missing_token", "invalid_token", "token_expired" or "insufficient_role"
var AccessDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_decisions_total",
		Help:      "Total number of access decisions taken by the route guard.",
	},
	[]string{"decision", "reason"},
)

// ── Payments ──────────────────────────────────────────────────────────────────

// PaymentsCreatedTotal counts payments opened with the gateway.
// Label:
//   - method: "stripe" or "paypal"
var PaymentsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_created_total",
		Help:      "Total number of payments created, by payment method.",
	},
	[]string{"method"},
)

// PaymentStatusTotal counts status results of manual updates and charges.
var PaymentStatusTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_status_total",
		Help:      "Total number of payment status changes, by resulting status.",
	},
	[]string{"status"},
)

var PaymentGatewayErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_gateway_errors_total",
		Help:      "Total number of payment gateway failures surfaced to clients.",
	},
)

// ── Enrollments ───────────────────────────────────────────────────────────────

// EnrollmentGrantsTotal counts dispatcher outcomes.
// Label:
//   - outcome: "granted", "retry" or "dropped"
var EnrollmentGrantsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "enrollment_grants_total",
		Help:      "Total number of enrollment grants processed, by outcome.",
	},
	[]string{"outcome"},
)

var EnrollmentQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "enrollment_queue_depth",
		Help:      "Number of enrollment grants waiting across all dispatcher workers.",
	},
)

// QueueRecorder feeds the enrollment metrics from the dispatcher.
type QueueRecorder struct{}

func (QueueRecorder) GrantProcessed(outcome string) {
	EnrollmentGrantsTotal.WithLabelValues(outcome).Inc()
}

func (QueueRecorder) QueueDepth(depth int) {
	EnrollmentQueueDepth.Set(float64(depth))
}
