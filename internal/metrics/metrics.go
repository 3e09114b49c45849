package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbox",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "kbox",
			Name:      "bookings_created_total",
			Help:      "Bookings accepted for a room slot.",
		},
	)

	slotConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "kbox",
			Name:      "slot_conflicts_total",
			Help:      "Booking attempts rejected because the slot was taken.",
		},
	)

	bookingsReaped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "kbox",
			Name:      "bookings_reaped_total",
			Help:      "Pending bookings cancelled after the hold window lapsed.",
		},
	)

	paymentsReconciled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbox",
			Name:      "payments_reconciled_total",
			Help:      "Payment confirmations by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			bookingsCreated,
			slotConflicts,
			bookingsReaped,
			paymentsReconciled,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncBookingCreated() {
	bookingsCreated.Inc()
}

func IncSlotConflict() {
	slotConflicts.Inc()
}

func AddBookingsReaped(n int) {
	bookingsReaped.Add(float64(n))
}

// IncPaymentReconciled records a reconciliation outcome: "paid" when a
// booking transitioned, "noop" when it was already settled or terminal.
func IncPaymentReconciled(outcome string) {
	paymentsReconciled.WithLabelValues(outcome).Inc()
}
