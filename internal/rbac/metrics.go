package rbac

import "github.com/prometheus/client_golang/prometheus"

// ResolverMetrics counts role lookups by outcome.
type ResolverMetrics struct {
	lookups *prometheus.CounterVec
}

// NewResolverMetrics registers the resolver collectors against registerer,
// falling back to the default registerer when nil.
func NewResolverMetrics(registerer prometheus.Registerer) *ResolverMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bizos_access_role_lookups_total",
		Help: "Role resolutions partitioned by outcome.",
	}, []string{"outcome"})
	registerer.MustRegister(lookups)
	return &ResolverMetrics{lookups: lookups}
}

func (m *ResolverMetrics) observe(outcome string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(outcome).Inc()
}
