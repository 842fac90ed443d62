package ports

import (
	"context"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
)

// QuestionAnswerer is the inbound contract for retrieval-augmented answers.
type QuestionAnswerer interface {
	Answer(ctx context.Context, req domain.RagRequest) (*domain.RagResponse, error)
}

// EntrySearcher is the inbound contract for ranked entry search.
type EntrySearcher interface {
	Search(ctx context.Context, req domain.SearchRequest) ([]domain.SearchResult, error)
}

// Chatter is the inbound contract for free-form model conversations.
type Chatter interface {
	Chat(ctx context.Context, req domain.ChatRequest) (string, error)
}
