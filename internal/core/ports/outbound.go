package ports

import (
	"context"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
)

// EntryStore is the read side of the journal entry store.
type EntryStore interface {
	// SearchText returns full-text matches ordered by the store's own ranking.
	SearchText(ctx context.Context, query string, limit int) ([]domain.EntryHit, error)
	// ListEntries pages through entries newest first. An empty cursor starts
	// from the beginning; the returned cursor is empty after the last page.
	ListEntries(ctx context.Context, limit int, cursor string) ([]domain.Entry, string, error)
}

// Embedder maps text to a dense vector. modelHint may select the backend.
type Embedder interface {
	Embed(ctx context.Context, text, modelHint string) ([]float32, error)
}

// CompletionProvider generates text for a prompt.
type CompletionProvider interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)
}

// AnswerEventPublisher announces answered questions.
type AnswerEventPublisher interface {
	PublishAnswered(ctx context.Context, event domain.AnsweredEvent) error
}
