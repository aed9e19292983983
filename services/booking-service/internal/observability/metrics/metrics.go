package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for the scheduling flows. All methods are
// nil-safe so wiring metrics stays optional in tests.
type BookingMetrics struct {
	bookingsTotal    *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
	slotQueriesTotal *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chairtime",
			Subsystem: "booking",
			Name:      "bookings_total",
			Help:      "Total booking attempts by outcome",
		}, []string{"result"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chairtime",
			Subsystem: "booking",
			Name:      "transitions_total",
			Help:      "Total appointment status transitions by target state and outcome",
		}, []string{"to", "result"}),
		slotQueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chairtime",
			Subsystem: "booking",
			Name:      "slot_queries_total",
			Help:      "Total availability queries by outcome",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.transitionsTotal, m.slotQueriesTotal)
	return m
}

func (m *BookingMetrics) ObserveBooking(result string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(result).Inc()
}

func (m *BookingMetrics) ObserveTransition(to, result string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(to, result).Inc()
}

func (m *BookingMetrics) ObserveSlotQuery(result string) {
	if m == nil {
		return
	}
	m.slotQueriesTotal.WithLabelValues(result).Inc()
}
