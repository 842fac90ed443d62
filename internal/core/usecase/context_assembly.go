package usecase

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
)

const fallbackSnippetWords = 50

func assembleContext(results []domain.SearchResult) []domain.ContextEntry {
	entries := make([]domain.ContextEntry, 0, len(results))
	for _, result := range results {
		snippet := strings.TrimSpace(result.Snippet)
		if snippet == "" {
			snippet = firstWords(result.Body, fallbackSnippetWords)
		}
		entries = append(entries, domain.ContextEntry{
			EntryID:        result.EntryID,
			Title:          result.Title,
			Body:           result.Body,
			Snippet:        snippet,
			EntryDate:      result.EntryDate,
			Tags:           slices.Clone(result.Tags),
			RelevanceScore: result.RelevanceScore,
		})
	}
	return entries
}

// renderContext formats entries as numbered prompt lines:
// [Entry n] Date: YYYY-MM-DD | Tags: a, b | Content: snippet
func renderContext(entries []domain.ContextEntry) string {
	var b strings.Builder
	for i, entry := range entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Entry %d] Date: %s | Tags: %s | Content: %s",
			i+1,
			entry.EntryDate.Format("2006-01-02"),
			strings.Join(entry.Tags, ", "),
			entry.Snippet,
		)
	}
	return b.String()
}

func firstWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
