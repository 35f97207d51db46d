package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mentor_booking",
			Name:      "booking_created_total",
			Help:      "Count of bookings created.",
		},
	)

	bookingRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mentor_booking",
			Name:      "booking_rejected_total",
			Help:      "Count of booking requests rejected, by reason.",
		},
		[]string{"reason"},
	)

	bookingTransition = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mentor_booking",
			Name:      "booking_transition_total",
			Help:      "Count of booking status transitions, by target status.",
		},
		[]string{"status"},
	)

	notificationResult = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mentor_booking",
			Name:      "notification_total",
			Help:      "Count of notification emails, by outcome (sent, retried, dead_lettered, dropped).",
		},
		[]string{"outcome"},
	)

	availabilityCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mentor_booking",
			Name:      "availability_cache_total",
			Help:      "Availability cache lookups, by result (hit, miss, stale, error).",
		},
		[]string{"result"},
	)
)

// Register registers metrics with the default registry (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingRejected, bookingTransition, notificationResult, availabilityCache)
	})
}

func IncBookingCreated() {
	bookingCreated.Inc()
}

func IncBookingRejected(reason string) {
	bookingRejected.WithLabelValues(reason).Inc()
}

func IncBookingTransition(status string) {
	bookingTransition.WithLabelValues(status).Inc()
}

func IncNotification(outcome string) {
	notificationResult.WithLabelValues(outcome).Inc()
}

func IncAvailabilityCache(result string) {
	availabilityCache.WithLabelValues(result).Inc()
}
