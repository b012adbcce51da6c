package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "southside"

// BookingMetrics records checkout, discount and webhook activity. A nil
// *BookingMetrics is safe to use and records nothing.
type BookingMetrics struct {
	checkoutSessions *prometheus.CounterVec
	checkoutDuration *prometheus.HistogramVec
	webhookEvents    *prometheus.CounterVec
	discountChecks   *prometheus.CounterVec
}

// NewBookingMetrics registers the booking metrics on the provided registerer.
func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	if reg == nil {
		return &BookingMetrics{}
	}
	checkoutSessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_sessions_total",
		Help:      "Checkout session attempts by record kind and result.",
	}, []string{"kind", "result"})
	checkoutDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_duration_seconds",
		Help:      "Time to create a record and its checkout session.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_events_total",
		Help:      "Stripe webhook events by type and handling outcome.",
	}, []string{"type", "outcome"})
	discountChecks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "discount_validations_total",
		Help:      "Discount code validations by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(checkoutSessions, checkoutDuration, webhookEvents, discountChecks)
	return &BookingMetrics{
		checkoutSessions: checkoutSessions,
		checkoutDuration: checkoutDuration,
		webhookEvents:    webhookEvents,
		discountChecks:   discountChecks,
	}
}

// ObserveCheckout records one checkout attempt for kind.
func (m *BookingMetrics) ObserveCheckout(kind string, ok bool, duration time.Duration) {
	if m == nil || m.checkoutSessions == nil {
		return
	}
	result := "created"
	if !ok {
		result = "failed"
	}
	m.checkoutSessions.WithLabelValues(normalizeLabel(kind), result).Inc()
	m.checkoutDuration.WithLabelValues(normalizeLabel(kind)).Observe(duration.Seconds())
}

// IncWebhookEvent counts a handled webhook event.
func (m *BookingMetrics) IncWebhookEvent(eventType, outcome string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

// IncDiscountValidation counts a discount validation by outcome.
func (m *BookingMetrics) IncDiscountValidation(outcome string) {
	if m == nil || m.discountChecks == nil {
		return
	}
	m.discountChecks.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
