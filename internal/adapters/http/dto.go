package httpadapter

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
)

type searchFiltersDTO struct {
	DateFrom    *openapi_types.Date `json:"date_from,omitempty"`
	DateTo      *openapi_types.Date `json:"date_to,omitempty"`
	Tags        []string            `json:"tags,omitempty"`
	SourceTypes []string            `json:"source_types,omitempty"`
	MinScore    *float64            `json:"min_score,omitempty"`
}

// toDomain makes date_to inclusive of the whole calendar day.
func (f *searchFiltersDTO) toDomain() domain.SearchFilters {
	if f == nil {
		return domain.SearchFilters{}
	}
	out := domain.SearchFilters{
		Tags:        f.Tags,
		SourceTypes: f.SourceTypes,
		MinScore:    f.MinScore,
	}
	if f.DateFrom != nil {
		from := startOfDay(f.DateFrom.Time)
		out.DateFrom = &from
	}
	if f.DateTo != nil {
		to := startOfDay(f.DateTo.Time).Add(24*time.Hour - time.Nanosecond)
		out.DateTo = &to
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type ragQueryRequest struct {
	Question          string            `json:"question"`
	ConversationID    string            `json:"conversation_id,omitempty"`
	MaxContextEntries int               `json:"max_context_entries,omitempty"`
	Filters           *searchFiltersDTO `json:"filters,omitempty"`
	Provider          string            `json:"provider,omitempty"`
	Model             string            `json:"model,omitempty"`
	EmbeddingModel    string            `json:"embedding_model,omitempty"`
}

func (r ragQueryRequest) toDomain() (domain.RagRequest, error) {
	req := domain.RagRequest{
		Question:          r.Question,
		ConversationID:    r.ConversationID,
		MaxContextEntries: r.MaxContextEntries,
		Filters:           r.Filters.toDomain(),
		Model:             r.Model,
		EmbeddingModel:    r.EmbeddingModel,
	}
	if r.Provider != "" {
		provider, err := domain.ParseProvider(r.Provider)
		if err != nil {
			return domain.RagRequest{}, err
		}
		req.Provider = provider
	}
	return req, nil
}

type searchRequest struct {
	Query      string            `json:"query"`
	SearchType string            `json:"search_type,omitempty"`
	Filters    *searchFiltersDTO `json:"filters,omitempty"`
	Limit      int               `json:"limit,omitempty"`
}

func (r searchRequest) toDomain() (domain.SearchRequest, error) {
	mode, err := domain.ParseSearchMode(r.SearchType)
	if err != nil {
		return domain.SearchRequest{}, err
	}
	return domain.SearchRequest{
		Query:   r.Query,
		Mode:    mode,
		Filters: r.Filters.toDomain(),
		Limit:   r.Limit,
	}, nil
}

type searchResponse struct {
	Query      string                `json:"query"`
	SearchType domain.SearchMode     `json:"search_type"`
	Count      int                   `json:"count"`
	Results    []domain.SearchResult `json:"results"`
}

type chatRequest struct {
	Provider string               `json:"provider,omitempty"`
	Model    string               `json:"model,omitempty"`
	Messages []domain.ChatMessage `json:"messages"`
}

func (r chatRequest) toDomain() (domain.ChatRequest, error) {
	req := domain.ChatRequest{
		Model:    r.Model,
		Messages: r.Messages,
	}
	if r.Provider != "" {
		provider, err := domain.ParseProvider(r.Provider)
		if err != nil {
			return domain.ChatRequest{}, err
		}
		req.Provider = provider
	}
	return req, nil
}

type chatResponse struct {
	Message domain.ChatMessage `json:"message"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
