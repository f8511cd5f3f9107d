package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registrations_total",
			Help: "Registration attempts by outcome",
		},
		[]string{"outcome"},
	)

	paymentTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_transitions_total",
			Help: "Applied payment status transitions",
		},
		[]string{"from", "to"},
	)

	webhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_events_total",
			Help: "Payment processor webhook deliveries",
		},
		[]string{"type", "result"},
	)

	notificationEmails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_emails_total",
			Help: "Notification emails by task kind and status",
		},
		[]string{"kind", "status"},
	)

	sweepItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "housekeeping_items_total",
			Help: "Registrations handled by housekeeping sweeps",
		},
		[]string{"sweep"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)
)

// TrackRegistration compte une tentative d'inscription (created, completed, rejected, error)
func TrackRegistration(outcome string) {
	registrations.WithLabelValues(outcome).Inc()
}

// TrackTransition compte une transition de paiement appliquée
func TrackTransition(from, to string) {
	paymentTransitions.WithLabelValues(from, to).Inc()
}

// TrackWebhook compte une livraison webhook (processed, duplicate, ignored, invalid)
func TrackWebhook(eventType, result string) {
	webhookEvents.WithLabelValues(eventType, result).Inc()
}

// TrackEmail compte un envoi d'email
func TrackEmail(kind string, ok bool) {
	status := "sent"
	if !ok {
		status = "failed"
	}
	notificationEmails.WithLabelValues(kind, status).Inc()
}

// TrackSweep compte les inscriptions traitées par un balayage
func TrackSweep(sweep string, n int) {
	sweepItems.WithLabelValues(sweep).Add(float64(n))
}

// TrackHTTP enregistre la durée d'une requête
func TrackHTTP(method string, status int, duration time.Duration) {
	httpDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(duration.Seconds())
}
