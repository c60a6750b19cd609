package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "easydrive",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "easydrive",
			Name:      "bookings_total",
			Help:      "Booking requests by outcome (accepted, rejected, conflict).",
		},
		[]string{"outcome"},
	)

	overrides = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "easydrive",
			Name:      "soft_overrides_total",
			Help:      "Soft reservations displaced by firm bookings.",
		},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "easydrive",
			Name:      "notifications_total",
			Help:      "Notification events by result (enqueued, enqueue_failed, delivered, delivery_failed, dead_lettered).",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookings, overrides, notifications)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncBooking increments the booking counter for an outcome label.
func IncBooking(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
}

// AddOverrides counts displaced soft reservations.
func AddOverrides(n int) {
	overrides.Add(float64(n))
}

// IncNotification increments the notification counter for a result label.
func IncNotification(result string) {
	notifications.WithLabelValues(result).Inc()
}
