package usecase

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
)

type SearchSettings struct {
	RRFK         int
	DefaultLimit int
	MaxLimit     int
}

type SearchUseCase struct {
	lexical  *LexicalSearcher
	semantic *SemanticSearcher
	settings SearchSettings
}

func NewSearchUseCase(lexical *LexicalSearcher, semantic *SemanticSearcher, settings SearchSettings) *SearchUseCase {
	if settings.RRFK <= 0 {
		settings.RRFK = defaultRRFK
	}
	if settings.DefaultLimit <= 0 {
		settings.DefaultLimit = 10
	}
	if settings.MaxLimit < settings.DefaultLimit {
		settings.MaxLimit = max(settings.DefaultLimit, 100)
	}
	return &SearchUseCase{
		lexical:  lexical,
		semantic: semantic,
		settings: settings,
	}
}

func (uc *SearchUseCase) Search(ctx context.Context, req domain.SearchRequest) ([]domain.SearchResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search", fmt.Errorf("query is required"))
	}
	mode := req.Mode
	if mode == "" {
		mode = domain.SearchModeHybrid
	}

	results, _, err := uc.search(ctx, req.Query, mode, req.Filters, uc.clampLimit(req.Limit), "")
	return results, err
}

func (uc *SearchUseCase) clampLimit(limit int) int {
	if limit <= 0 {
		return uc.settings.DefaultLimit
	}
	return min(limit, uc.settings.MaxLimit)
}

func (uc *SearchUseCase) search(
	ctx context.Context,
	query string,
	mode domain.SearchMode,
	filters domain.SearchFilters,
	limit int,
	modelHint string,
) ([]domain.SearchResult, domain.SemanticMode, error) {
	switch mode {
	case domain.SearchModeFullText:
		results, err := uc.lexical.Search(ctx, query, filters, limit)
		return results, "", err
	case domain.SearchModeSemantic:
		return uc.semantic.Search(ctx, query, filters, limit, modelHint)
	case domain.SearchModeHybrid:
		return uc.hybrid(ctx, query, filters, limit, modelHint)
	default:
		return nil, "", domain.WrapError(domain.ErrInvalidInput, "search", fmt.Errorf("%w: %q", domain.ErrUnsupportedSearchMode, mode))
	}
}

// hybrid runs both retrievers on twice the limit with constraint filters
// only, fuses the rankings and applies the full filters to the fused list.
func (uc *SearchUseCase) hybrid(
	ctx context.Context,
	query string,
	filters domain.SearchFilters,
	limit int,
	modelHint string,
) ([]domain.SearchResult, domain.SemanticMode, error) {
	constraints := filters.WithoutMinScore()

	var (
		lexical  []domain.SearchResult
		semantic []domain.SearchResult
		mode     domain.SemanticMode
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lexical, err = uc.lexical.Search(gctx, query, constraints, limit*2)
		return err
	})
	g.Go(func() error {
		var err error
		semantic, mode, err = uc.semantic.Search(gctx, query, constraints, limit*2, modelHint)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, mode, err
	}

	fused := fuseCandidatesRRF(lexical, semantic, uc.settings.RRFK)
	return applyFilters(fused, filters, limit), mode, nil
}
