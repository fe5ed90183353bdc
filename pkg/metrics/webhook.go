package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records webhook processing outcomes by event type.
type WebhookMetrics struct {
	duration *prometheus.HistogramVec
	events   *prometheus.CounterVec
	rejected prometheus.Counter
}

// Webhook processing outcomes.
const (
	OutcomeProcessed = "processed"
	OutcomeIgnored   = "ignored"
	OutcomeFailed    = "failed"
)

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_event_duration_seconds",
		Help:    "Duration of webhook event handling in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event_type"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Webhook events received, by event type and outcome.",
	}, []string{"event_type", "outcome"})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webhook_signature_rejections_total",
		Help: "Webhook deliveries rejected for an invalid signature.",
	})
	reg.MustRegister(duration, events, rejected)
	return &WebhookMetrics{
		duration: duration,
		events:   events,
		rejected: rejected,
	}
}

// ObserveDuration records the handling duration for the event type.
func (w *WebhookMetrics) ObserveDuration(eventType string, duration time.Duration) {
	if w == nil || w.duration == nil {
		return
	}
	w.duration.WithLabelValues(normalizeLabel(eventType)).Observe(duration.Seconds())
}

// IncEvent increments the event counter for the type/outcome pair.
func (w *WebhookMetrics) IncEvent(eventType, outcome string) {
	if w == nil || w.events == nil {
		return
	}
	w.events.WithLabelValues(normalizeLabel(eventType), outcome).Inc()
}

// IncSignatureRejection increments the invalid-signature counter.
func (w *WebhookMetrics) IncSignatureRejection() {
	if w == nil || w.rejected == nil {
		return
	}
	w.rejected.Inc()
}

func normalizeLabel(eventType string) string {
	if eventType == "" {
		return "unknown"
	}
	return eventType
}
