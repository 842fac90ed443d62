package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
)

// ragCollectors is shared by the HTTP server and the ask worker so both
// report answers under the same metric names.
type ragCollectors struct {
	requestsTotal     *prometheus.CounterVec
	semanticModeTotal *prometheus.CounterVec
	fallbackTotal     *prometheus.CounterVec
	noContextTotal    *prometheus.CounterVec
	contextEntries    *prometheus.HistogramVec
	confidence        *prometheus.HistogramVec
	duration          *prometheus.HistogramVec
}

func newRAGCollectors() ragCollectors {
	return ragCollectors{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rag",
				Name:      "requests_total",
				Help:      "Total answered RAG requests by model used.",
			},
			[]string{"service", "endpoint", "model"},
		),
		semanticModeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rag",
				Name:      "semantic_mode_total",
				Help:      "Answered RAG requests by semantic retrieval path.",
			},
			[]string{"service", "endpoint", "mode"},
		),
		fallbackTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rag",
				Name:      "fallback_total",
				Help:      "Templated answers by fallback reason.",
			},
			[]string{"service", "endpoint", "reason"},
		),
		noContextTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rag",
				Name:      "no_context_total",
				Help:      "Total RAG requests answered without any cited entry.",
			},
			[]string{"service", "endpoint"},
		),
		contextEntries: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "rag",
				Name:      "citations",
				Help:      "Distribution of citations per answer.",
				Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 20},
			},
			[]string{"service", "endpoint"},
		),
		confidence: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "rag",
				Name:      "confidence",
				Help:      "Distribution of answer confidence.",
				Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95},
			},
			[]string{"service", "endpoint"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "rag",
				Name:      "duration_seconds",
				Help:      "RAG execution duration in seconds.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"service", "endpoint"},
		),
	}
}

func (c ragCollectors) register(reg prometheus.Registerer) {
	reg.MustRegister(
		c.requestsTotal,
		c.semanticModeTotal,
		c.fallbackTotal,
		c.noContextTotal,
		c.contextEntries,
		c.confidence,
		c.duration,
	)
}

func observeRAG(c ragCollectors, service, endpoint string, resp *domain.RagResponse) {
	if resp == nil {
		return
	}
	model := resp.ModelUsed
	if model == "" {
		model = "unknown"
	}
	mode := string(resp.SemanticMode)
	if mode == "" {
		mode = "unknown"
	}

	c.requestsTotal.WithLabelValues(service, endpoint, model).Inc()
	c.semanticModeTotal.WithLabelValues(service, endpoint, mode).Inc()
	if resp.FallbackReason != "" {
		c.fallbackTotal.WithLabelValues(service, endpoint, resp.FallbackReason).Inc()
	}
	if len(resp.Citations) == 0 {
		c.noContextTotal.WithLabelValues(service, endpoint).Inc()
	}
	c.contextEntries.WithLabelValues(service, endpoint).Observe(float64(len(resp.Citations)))
	c.confidence.WithLabelValues(service, endpoint).Observe(resp.Confidence)
	c.duration.WithLabelValues(service, endpoint).Observe((time.Duration(resp.ProcessingTimeMs) * time.Millisecond).Seconds())
}
