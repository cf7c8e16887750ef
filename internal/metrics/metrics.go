package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parking_reservation",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	reservationAdmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parking_reservation",
			Name:      "reservation_admissions_total",
			Help:      "Reservation admission decisions by outcome.",
		},
		[]string{"outcome"}, // created, rejected_validation, rejected_conflict, canceled
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, reservationAdmissions)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncAdmission increments the admission counter for an outcome label.
func IncAdmission(outcome string) {
	reservationAdmissions.WithLabelValues(outcome).Inc()
}
