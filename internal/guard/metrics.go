package guard

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts guard decisions per route.
type Metrics struct {
	decisions *prometheus.CounterVec
}

// NewMetrics registers the guard collectors against registerer, falling back
// to the default registerer when nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bizos_access_guard_decisions_total",
		Help: "Guard decisions partitioned by route and state.",
	}, []string{"route", "state"})
	registerer.MustRegister(decisions)
	return &Metrics{decisions: decisions}
}

func (m *Metrics) observe(route string, state State) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(route, state.String()).Inc()
}
