package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// DependencyMetrics tracks the health of outbound dependencies.
type DependencyMetrics struct {
	breakerState   *prometheus.GaugeVec
	embeddingCache *prometheus.CounterVec
}

func NewDependencyMetrics(reg prometheus.Registerer, service string) *DependencyMetrics {
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "dependency",
			Name:        "circuit_breaker_state",
			Help:        "Circuit breaker state per operation: 0 closed, 1 half-open, 2 open.",
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"operation"},
	)
	embeddingCache := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "embedding",
			Name:        "cache_lookups_total",
			Help:        "Embedding cache lookups by result.",
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"result"},
	)
	reg.MustRegister(breakerState, embeddingCache)

	return &DependencyMetrics{
		breakerState:   breakerState,
		embeddingCache: embeddingCache,
	}
}

// ObserveBreakerState matches resilience.StateObserver.
func (m *DependencyMetrics) ObserveBreakerState(operation string, _, to gobreaker.State) {
	m.breakerState.WithLabelValues(operation).Set(float64(to))
}

// EmbeddingCacheLookups is the counter handed to the embedding cache.
func (m *DependencyMetrics) EmbeddingCacheLookups() *prometheus.CounterVec {
	return m.embeddingCache
}
