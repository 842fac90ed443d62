package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
	"github.com/kirillkom/journal-assistant/internal/core/ports"
)

const (
	embeddingCandidateFactor = 5
	keywordCandidateFactor   = 3
	minVectorSimilarity      = 0.1
	minKeywordSimilarity     = 0.3
	defaultEmbedConcurrency  = 4
)

type SemanticSearcher struct {
	store        ports.EntryStore
	embedder     ports.Embedder
	concurrency  int
	embedTimeout time.Duration
}

var errCandidateEmbeddingStalled = errors.New("candidate embedding timed out")

// NewSemanticSearcher builds a searcher. A nil embedder makes every search
// use keyword similarity.
func NewSemanticSearcher(store ports.EntryStore, embedder ports.Embedder, concurrency int) *SemanticSearcher {
	if concurrency <= 0 {
		concurrency = defaultEmbedConcurrency
	}
	return &SemanticSearcher{
		store:       store,
		embedder:    embedder,
		concurrency: concurrency,
	}
}

// WithEmbedTimeout bounds every embedding call. Zero leaves calls bounded
// only by the caller's context.
func (s *SemanticSearcher) WithEmbedTimeout(timeout time.Duration) *SemanticSearcher {
	s.embedTimeout = timeout
	return s
}

func (s *SemanticSearcher) embed(ctx context.Context, text, modelHint string) ([]float32, error) {
	if s.embedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.embedTimeout)
		defer cancel()
	}
	return s.embedder.Embed(ctx, text, modelHint)
}

type scoredCandidate struct {
	entry domain.Entry
	score float64
	ok    bool
}

// Search ranks stored entries by cosine similarity to the query embedding.
// When the query cannot be embedded it ranks by keyword similarity instead
// and reports SemanticModeKeyword. Both paths tag results as vector.
func (s *SemanticSearcher) Search(
	ctx context.Context,
	query string,
	filters domain.SearchFilters,
	limit int,
	modelHint string,
) ([]domain.SearchResult, domain.SemanticMode, error) {
	if limit <= 0 || strings.TrimSpace(query) == "" {
		return nil, domain.SemanticModeEmbedding, nil
	}

	if s.embedder == nil {
		results, err := s.searchByKeywords(ctx, query, filters, limit)
		return results, domain.SemanticModeKeyword, err
	}

	queryVector, err := s.embed(ctx, query, modelHint)
	if err == nil && len(queryVector) == 0 {
		err = domain.ErrEmbeddingUnavailable
	}
	if err != nil {
		// Only the caller's own deadline or cancellation is fatal.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, domain.SemanticModeUnavailable, ctxErr
		}
		slog.Warn("semantic_query_embedding_failed", "error", err)
		return s.keywordFallback(ctx, query, filters, limit)
	}

	candidates, _, err := s.store.ListEntries(ctx, limit*embeddingCandidateFactor, "")
	if err != nil {
		return nil, domain.SemanticModeEmbedding, domain.WrapError(domain.ErrStoreUnavailable, "semantic list candidates", err)
	}

	scored, err := s.scoreCandidates(ctx, candidates, queryVector, modelHint)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, domain.SemanticModeUnavailable, ctxErr
	}
	if err != nil || (len(candidates) > 0 && !anyScored(scored)) {
		slog.Warn("semantic_candidate_embedding_failed", "candidates", len(candidates), "error", err)
		return s.keywordFallback(ctx, query, filters, limit)
	}

	results := rankCandidates(scored, query, minVectorSimilarity)
	return applyFilters(results, filters, limit), domain.SemanticModeEmbedding, nil
}

func (s *SemanticSearcher) keywordFallback(
	ctx context.Context,
	query string,
	filters domain.SearchFilters,
	limit int,
) ([]domain.SearchResult, domain.SemanticMode, error) {
	results, err := s.searchByKeywords(ctx, query, filters, limit)
	return results, domain.SemanticModeKeyword, err
}

func anyScored(scored []scoredCandidate) bool {
	for _, c := range scored {
		if c.ok {
			return true
		}
	}
	return false
}

// scoreCandidates embeds candidates with bounded concurrency. A candidate
// whose embedding fails is skipped; output order follows input order.
// The first candidate that hits the embed timeout cancels the rest and
// errCandidateEmbeddingStalled is returned.
func (s *SemanticSearcher) scoreCandidates(
	ctx context.Context,
	candidates []domain.Entry,
	queryVector []float32,
	modelHint string,
) ([]scoredCandidate, error) {
	scored := make([]scoredCandidate, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, entry := range candidates {
		g.Go(func() error {
			vector, err := s.embed(gctx, entry.Text(), modelHint)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) && gctx.Err() == nil {
					return errCandidateEmbeddingStalled
				}
				slog.Debug("semantic_candidate_skipped", "entry_id", entry.ID, "error", err)
				return nil
			}
			scored[i] = scoredCandidate{
				entry: entry,
				score: cosineSimilarity(queryVector, vector),
				ok:    true,
			}
			return nil
		})
	}
	err := g.Wait()
	return scored, err
}

func (s *SemanticSearcher) searchByKeywords(
	ctx context.Context,
	query string,
	filters domain.SearchFilters,
	limit int,
) ([]domain.SearchResult, error) {
	candidates, _, err := s.store.ListEntries(ctx, limit*keywordCandidateFactor, "")
	if err != nil {
		return nil, domain.WrapError(domain.ErrStoreUnavailable, "keyword list candidates", err)
	}

	scored := make([]scoredCandidate, len(candidates))
	for i, entry := range candidates {
		scored[i] = scoredCandidate{
			entry: entry,
			score: keywordSimilarity(entry.Title, entry.Body, query),
			ok:    true,
		}
	}
	results := rankCandidates(scored, query, minKeywordSimilarity)
	return applyFilters(results, filters, limit), nil
}

// rankCandidates keeps candidates strictly above threshold, best first.
func rankCandidates(scored []scoredCandidate, query string, threshold float64) []domain.SearchResult {
	kept := make([]scoredCandidate, 0, len(scored))
	for _, c := range scored {
		if c.ok && c.score > threshold {
			kept = append(kept, c)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].score > kept[j].score
	})

	results := make([]domain.SearchResult, 0, len(kept))
	for _, c := range kept {
		snippet := querySnippet(c.entry.Body, query, snippetMaxRunes)
		results = append(results, domain.NewSearchResult(c.entry, snippet, clampUnit(c.score), domain.ProvenanceVector))
	}
	return results
}
