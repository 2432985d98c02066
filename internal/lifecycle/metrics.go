package lifecycle

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts engine operations by outcome.
type Metrics struct {
	operations *prometheus.CounterVec
	underflows prometheus.Counter
}

// NewMetrics creates the engine collectors and registers them with reg when
// it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "volunteer",
			Subsystem: "lifecycle",
			Name:      "operations_total",
			Help:      "Lifecycle operations by operation and outcome kind.",
		}, []string{"operation", "outcome"}),
		underflows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "volunteer",
			Subsystem: "lifecycle",
			Name:      "hours_underflow_total",
			Help:      "Unapprovals that found hours_completed lower than the log's hours.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.operations, m.underflows)
	}
	return m
}

func (m *Metrics) observe(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}
