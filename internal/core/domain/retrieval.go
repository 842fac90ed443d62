package domain

import (
	"fmt"
	"slices"
	"time"
)

// Provenance records which retriever produced a result.
type Provenance string

const (
	ProvenanceLexical Provenance = "lexical"
	ProvenanceVector  Provenance = "vector"
	ProvenanceHybrid  Provenance = "hybrid"
)

// SearchMode selects the retrieval strategy of a search request.
type SearchMode string

const (
	SearchModeFullText SearchMode = "fulltext"
	SearchModeSemantic SearchMode = "semantic"
	SearchModeHybrid   SearchMode = "hybrid"
)

func ParseSearchMode(raw string) (SearchMode, error) {
	switch SearchMode(raw) {
	case "":
		return SearchModeHybrid, nil
	case SearchModeFullText, SearchModeSemantic, SearchModeHybrid:
		return SearchMode(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSearchMode, raw)
	}
}

// SemanticMode reports how the semantic searcher scored its candidates.
type SemanticMode string

const (
	SemanticModeEmbedding   SemanticMode = "embedding"
	SemanticModeKeyword     SemanticMode = "keyword"
	SemanticModeUnavailable SemanticMode = "unavailable"
)

type SearchResult struct {
	EntryID        string     `json:"entry_id"`
	Title          string     `json:"title"`
	Body           string     `json:"body"`
	Snippet        string     `json:"snippet"`
	EntryDate      time.Time  `json:"entry_date"`
	SourcePath     string     `json:"source_path"`
	SourceType     string     `json:"source_type"`
	Tags           []string   `json:"tags"`
	RelevanceScore float64    `json:"relevance_score"`
	Provenance     Provenance `json:"provenance"`
}

// NewSearchResult copies entry fields into a result with the given score.
func NewSearchResult(entry Entry, snippet string, score float64, provenance Provenance) SearchResult {
	return SearchResult{
		EntryID:        entry.ID,
		Title:          entry.Title,
		Body:           entry.Body,
		Snippet:        snippet,
		EntryDate:      entry.EntryDate,
		SourcePath:     entry.SourcePath,
		SourceType:     entry.SourceType,
		Tags:           slices.Clone(entry.Tags),
		RelevanceScore: score,
		Provenance:     provenance,
	}
}

// SearchFilters narrows a result list. Zero values disable a constraint.
type SearchFilters struct {
	DateFrom    *time.Time `json:"date_from,omitempty"`
	DateTo      *time.Time `json:"date_to,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	SourceTypes []string   `json:"source_types,omitempty"`
	MinScore    *float64   `json:"min_score,omitempty"`
}

// WithoutMinScore returns a copy that keeps only the constraint filters.
func (f SearchFilters) WithoutMinScore() SearchFilters {
	f.MinScore = nil
	return f
}

type SearchRequest struct {
	Query   string        `json:"query"`
	Mode    SearchMode    `json:"search_type"`
	Filters SearchFilters `json:"filters"`
	Limit   int           `json:"limit"`
}
