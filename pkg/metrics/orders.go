package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderMetrics counts lifecycle activity on orders.
type OrderMetrics struct {
	transitions *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	created     prometheus.Counter
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Successful order status transitions by from/to pair.",
	}, []string{"from", "to"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_illegal_transitions_total",
		Help: "Rejected order status transitions by from/to pair.",
	}, []string{"from", "to"})
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created at checkout.",
	})
	reg.MustRegister(transitions, rejected, created)
	return &OrderMetrics{
		transitions: transitions,
		rejected:    rejected,
		created:     created,
	}
}

// IncTransition records a successful transition.
func (m *OrderMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

// IncIllegalTransition records a transition the engine refused.
func (m *OrderMetrics) IncIllegalTransition(from, to string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(from, to).Inc()
}

// IncCreated records a new order.
func (m *OrderMetrics) IncCreated() {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
}
