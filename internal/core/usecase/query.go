package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
	"github.com/kirillkom/journal-assistant/internal/core/ports"
)

type QuerySettings struct {
	DefaultContextEntries int
	MaxContextEntries     int
	MinRelevance          float64
}

// QueryUseCase answers questions over journal entries: hybrid retrieval,
// context assembly, generation with templated fallback, citation
// extraction and confidence scoring.
type QueryUseCase struct {
	search    *SearchUseCase
	generator *AnswerGenerator
	publisher ports.AnswerEventPublisher
	settings  QuerySettings

	now   func() time.Time
	newID func() string
}

func NewQueryUseCase(
	search *SearchUseCase,
	generator *AnswerGenerator,
	publisher ports.AnswerEventPublisher,
	settings QuerySettings,
) *QueryUseCase {
	if settings.DefaultContextEntries <= 0 {
		settings.DefaultContextEntries = 5
	}
	if settings.MaxContextEntries < settings.DefaultContextEntries {
		settings.MaxContextEntries = max(settings.DefaultContextEntries, 20)
	}
	if settings.MinRelevance <= 0 {
		settings.MinRelevance = 0.3
	}
	return &QueryUseCase{
		search:    search,
		generator: generator,
		publisher: publisher,
		settings:  settings,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (uc *QueryUseCase) Answer(ctx context.Context, req domain.RagRequest) (*domain.RagResponse, error) {
	start := uc.now()

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer", fmt.Errorf("question is required"))
	}

	limit := req.MaxContextEntries
	if limit <= 0 {
		limit = uc.settings.DefaultContextEntries
	}
	limit = min(limit, uc.settings.MaxContextEntries)

	filters := req.Filters
	if filters.MinScore == nil {
		minScore := uc.settings.MinRelevance
		filters.MinScore = &minScore
	}

	results, semanticMode, err := uc.search.search(ctx, question, domain.SearchModeHybrid, filters, limit, req.EmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	entries := assembleContext(results)
	generated := uc.generator.Generate(ctx, question, entries, req.Provider, req.Model)

	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" {
		conversationID = uc.newID()
	}

	response := &domain.RagResponse{
		Answer:           generated.text,
		Citations:        generated.citations,
		ContextUsed:      entries,
		Confidence:       scoreConfidence(entries, generated.text),
		ConversationID:   conversationID,
		MessageID:        uc.newID(),
		ModelUsed:        generated.modelUsed,
		ProcessingTimeMs: uc.now().Sub(start).Milliseconds(),
		SemanticMode:     semanticMode,
		FallbackReason:   generated.fallbackReason,
	}

	slog.Info("rag_query_completed",
		"conversation_id", response.ConversationID,
		"message_id", response.MessageID,
		"context_entries", len(entries),
		"citations", len(response.Citations),
		"confidence", response.Confidence,
		"model_used", response.ModelUsed,
		"semantic_mode", string(response.SemanticMode),
		"fallback_reason", response.FallbackReason,
		"duration_ms", response.ProcessingTimeMs,
	)

	uc.publishAnswered(ctx, question, response)
	return response, nil
}

func (uc *QueryUseCase) publishAnswered(ctx context.Context, question string, response *domain.RagResponse) {
	if uc.publisher == nil {
		return
	}
	err := uc.publisher.PublishAnswered(ctx, domain.AnsweredEvent{
		ConversationID: response.ConversationID,
		MessageID:      response.MessageID,
		Question:       question,
		Answer:         response.Answer,
		Citations:      response.Citations,
		ModelUsed:      response.ModelUsed,
		AnsweredAt:     uc.now().UTC(),
	})
	if err != nil {
		slog.Warn("rag_answered_event_publish_failed",
			"conversation_id", response.ConversationID,
			"message_id", response.MessageID,
			"error", err,
		)
	}
}
