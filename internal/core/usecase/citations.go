package usecase

import (
	"regexp"
	"strconv"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
)

const (
	citationSnippetRunes      = 200
	fallbackCitationLimit     = 3
	fallbackCitationRelevance = 0.3
)

// citationMarker matches [Entry 3] and the short form [3].
var citationMarker = regexp.MustCompile(`\[(?:Entry\s+)?(\d+)\]`)

// extractCitations resolves 1-based markers in answer against the context.
// Unknown numbers are ignored and each entry is cited once, in order of first
// mention. Without any resolvable marker the first entries above the
// relevance floor are cited instead.
func extractCitations(answer string, entries []domain.ContextEntry) []domain.Citation {
	citations := make([]domain.Citation, 0, 4)
	seen := make(map[int]struct{}, 4)
	for _, match := range citationMarker.FindAllStringSubmatch(answer, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil || n < 1 || n > len(entries) {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		citations = append(citations, newCitation(entries[n-1], n))
	}
	if len(citations) > 0 {
		return citations
	}
	return topContextCitations(entries)
}

func topContextCitations(entries []domain.ContextEntry) []domain.Citation {
	citations := make([]domain.Citation, 0, fallbackCitationLimit)
	for i, entry := range entries[:min(len(entries), fallbackCitationLimit)] {
		if entry.RelevanceScore > fallbackCitationRelevance {
			citations = append(citations, newCitation(entry, i+1))
		}
	}
	return citations
}

func newCitation(entry domain.ContextEntry, number int) domain.Citation {
	snippet := entry.Snippet
	if cut, truncated := truncateRunes(snippet, citationSnippetRunes); truncated {
		snippet = cut + ellipsis
	}
	return domain.Citation{
		EntryID:        entry.EntryID,
		EntryDate:      entry.EntryDate,
		Title:          entry.Title,
		Snippet:        snippet,
		RelevanceScore: entry.RelevanceScore,
		CitationNumber: number,
	}
}
