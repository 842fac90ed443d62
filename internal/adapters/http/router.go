package httpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/journal-assistant/internal/config"
	"github.com/kirillkom/journal-assistant/internal/core/domain"
	"github.com/kirillkom/journal-assistant/internal/core/ports"
	"github.com/kirillkom/journal-assistant/internal/observability/metrics"
)

const (
	serviceName     = "api"
	maxRequestBytes = 1 << 20
	healthTimeout   = 3 * time.Second
)

// HealthCheck probes one dependency. Failing a required check turns
// /healthz into 503; optional ones only mark the service degraded.
type HealthCheck struct {
	Name     string
	Required bool
	Check    func(ctx context.Context) error
}

type Router struct {
	cfg       config.Config
	answerer  ports.QuestionAnswerer
	searcher  ports.EntrySearcher
	chatter   ports.Chatter
	metrics   *metrics.HTTPServerMetrics
	validator *requestValidator
	checks    []HealthCheck
}

func NewRouter(
	cfg config.Config,
	answerer ports.QuestionAnswerer,
	searcher ports.EntrySearcher,
	chatter ports.Chatter,
	httpMetrics *metrics.HTTPServerMetrics,
	checks ...HealthCheck,
) (*Router, error) {
	validator, err := newRequestValidator()
	if err != nil {
		return nil, err
	}
	return &Router{
		cfg:       cfg,
		answerer:  answerer,
		searcher:  searcher,
		chatter:   chatter,
		metrics:   httpMetrics,
		validator: validator,
		checks:    checks,
	}, nil
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware)
	r.Use(recoverMiddleware)
	if rt.metrics != nil {
		r.Use(func(next http.Handler) http.Handler {
			return rt.metrics.Middleware(serviceName, next)
		})
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	r.Get("/healthz", rt.healthz)

	r.Group(func(v1 chi.Router) {
		v1.Use(func(next http.Handler) http.Handler {
			return rateLimitMiddleware(next, rt.cfg.HTTPRateLimitRPS, rt.cfg.HTTPRateLimitBurst)
		})
		v1.Use(func(next http.Handler) http.Handler {
			return backpressureMiddleware(next, rt.cfg.HTTPMaxInFlight, rt.cfg.HTTPBackpressureWait)
		})
		v1.Post("/v1/rag/query", rt.queryRAG)
		v1.Post("/v1/search", rt.searchEntries)
		v1.Post("/v1/chat", rt.chat)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	return r
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(rt.checks))}
	status := http.StatusOK
	for _, check := range rt.checks {
		if err := check.Check(ctx); err != nil {
			resp.Checks[check.Name] = err.Error()
			if check.Required {
				resp.Status = "unavailable"
				status = http.StatusServiceUnavailable
			} else if resp.Status == "ok" {
				resp.Status = "degraded"
			}
			continue
		}
		resp.Checks[check.Name] = "ok"
	}
	writeJSON(w, status, resp)
}

func (rt *Router) queryRAG(w http.ResponseWriter, r *http.Request) {
	var body ragQueryRequest
	if err := rt.decode(r, "RagQueryRequest", &body); err != nil {
		writeDomainError(w, r, err)
		return
	}
	req, err := body.toDomain()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp, err := rt.answerer.Answer(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordRAGObservation(serviceName, "/v1/rag/query", resp)
	}

	slog.Debug("http_rag_query_served",
		"request_id", requestIDFromContext(r.Context()),
		"conversation_id", resp.ConversationID,
		"message_id", resp.MessageID,
	)
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) searchEntries(w http.ResponseWriter, r *http.Request) {
	var body searchRequest
	if err := rt.decode(r, "SearchRequest", &body); err != nil {
		writeDomainError(w, r, err)
		return
	}
	req, err := body.toDomain()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	results, err := rt.searcher.Search(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	if rt.metrics != nil {
		rt.metrics.RecordSearch(serviceName, req.Mode, len(results))
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Query:      req.Query,
		SearchType: req.Mode,
		Count:      len(results),
		Results:    results,
	})
}

func (rt *Router) chat(w http.ResponseWriter, r *http.Request) {
	var body chatRequest
	if err := rt.decode(r, "ChatRequest", &body); err != nil {
		writeDomainError(w, r, err)
		return
	}
	req, err := body.toDomain()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	reply, err := rt.chatter.Chat(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Message: domain.ChatMessage{Role: "assistant", Content: reply},
	})
}

// decode validates the raw body against the named schema before binding it.
func (rt *Router) decode(r *http.Request, schema string, out any) error {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxRequestBytes))
	if err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "read body", err)
	}
	if err := rt.validator.validate(schema, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "decode body", fmt.Errorf("%s: %w", schema, err))
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
