package usecase

import (
	"slices"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
)

// applyFilters keeps results that satisfy every active constraint, in input
// order, then truncates to limit. Applying it twice gives the same output.
func applyFilters(results []domain.SearchResult, filters domain.SearchFilters, limit int) []domain.SearchResult {
	out := make([]domain.SearchResult, 0, len(results))
	for _, result := range results {
		if !matchesFilters(result, filters) {
			continue
		}
		out = append(out, result)
	}
	return trimResults(out, limit)
}

func matchesFilters(result domain.SearchResult, filters domain.SearchFilters) bool {
	if filters.DateFrom != nil && result.EntryDate.Before(*filters.DateFrom) {
		return false
	}
	if filters.DateTo != nil && result.EntryDate.After(*filters.DateTo) {
		return false
	}
	if len(filters.Tags) > 0 && !slices.ContainsFunc(filters.Tags, func(tag string) bool {
		return slices.Contains(result.Tags, tag)
	}) {
		return false
	}
	if len(filters.SourceTypes) > 0 && !slices.Contains(filters.SourceTypes, result.SourceType) {
		return false
	}
	if filters.MinScore != nil && result.RelevanceScore < *filters.MinScore {
		return false
	}
	return true
}
