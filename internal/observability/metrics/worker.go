package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	askTotal    *prometheus.CounterVec
	askDuration *prometheus.HistogramVec
	askInFlight prometheus.Gauge
	rag         ragCollectors
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	askTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "ask_total",
			Help:      "Total ask requests handled by status.",
		},
		[]string{"service", "status"},
	)
	askDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "ask_duration_seconds",
			Help:      "Ask handling duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	askInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "ask_in_flight",
			Help:      "Number of ask requests being answered.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	rag := newRAGCollectors()

	registry.MustRegister(askTotal, askDuration, askInFlight)
	rag.register(registry)

	return &WorkerMetrics{
		registry:    registry,
		askTotal:    askTotal,
		askDuration: askDuration,
		askInFlight: askInFlight,
		rag:         rag,
	}
}

func (m *WorkerMetrics) Registerer() prometheus.Registerer {
	return m.registry
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartAsk() {
	m.askInFlight.Inc()
}

func (m *WorkerMetrics) FinishAsk(service string, duration time.Duration, resp *domain.RagResponse, err error) {
	m.askInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}
	m.askTotal.WithLabelValues(service, status).Inc()
	m.askDuration.WithLabelValues(service, status).Observe(duration.Seconds())

	if err == nil {
		observeRAG(m.rag, service, "nats", resp)
	}
}
