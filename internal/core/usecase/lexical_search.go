package usecase

import (
	"context"
	"strings"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
	"github.com/kirillkom/journal-assistant/internal/core/ports"
)

const snippetMaxRunes = 200

type LexicalSearcher struct {
	store ports.EntryStore
}

func NewLexicalSearcher(store ports.EntryStore) *LexicalSearcher {
	return &LexicalSearcher{store: store}
}

// Search over-fetches twice the limit from the store so that constraint
// filters still leave enough results. Store failures are returned as
// domain.ErrStoreUnavailable.
func (s *LexicalSearcher) Search(
	ctx context.Context,
	query string,
	filters domain.SearchFilters,
	limit int,
) ([]domain.SearchResult, error) {
	if limit <= 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}

	hits, err := s.store.SearchText(ctx, query, limit*2)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStoreUnavailable, "lexical search", err)
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		score := 0.0
		if hit.Relevance != nil {
			score = clampUnit(*hit.Relevance)
		} else {
			score = lexicalFallbackScore(hit.Entry.Title, hit.Entry.Body, query)
		}

		snippet := strings.TrimSpace(hit.Snippet)
		if snippet == "" {
			snippet = querySnippet(hit.Entry.Body, query, snippetMaxRunes)
		}
		results = append(results, domain.NewSearchResult(hit.Entry, snippet, score, domain.ProvenanceLexical))
	}

	return applyFilters(results, filters, limit), nil
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
