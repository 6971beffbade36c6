package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts authentication operations by outcome.
type Metrics struct {
	requests *prometheus.CounterVec
}

// NewMetrics registers the handler's collectors with reg. Passing
// prometheus.DefaultRegisterer wires them into the process-wide registry;
// tests pass their own.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authcore",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Authentication requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests)
	}
	return m
}

func (m *Metrics) observe(operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.requests.WithLabelValues(operation, outcome).Inc()
}
