package usecase

import "strings"

const (
	snippetContextRunes = 50
	ellipsis            = "..."
)

// generateSnippet returns a window of content around the first
// case-insensitive occurrence of query, at most maxLen runes long.
// The window shrinks symmetrically so the match survives truncation.
// Without a match it returns the head of content.
func generateSnippet(content, query string, maxLen int) string {
	if maxLen <= len(ellipsis) {
		maxLen = len(ellipsis) + 1
	}
	runes := []rune(content)
	q := lowerRunes(strings.TrimSpace(query))
	pos := -1
	if len(q) > 0 {
		pos = indexRunes(lowerRunes(content), q)
	}

	if pos < 0 {
		if len(runes) <= maxLen {
			return content
		}
		return string(runes[:maxLen-len(ellipsis)]) + ellipsis
	}

	budget := maxLen - len(q) - 2*len(ellipsis)
	if budget < 0 {
		budget = 0
	}
	before := min(snippetContextRunes, budget/2)
	after := min(snippetContextRunes, budget-before)
	// Give unused room on one side to the other.
	if pos < before {
		after = min(snippetContextRunes, after+before-pos)
		before = pos
	}
	if tail := len(runes) - (pos + len(q)); tail < after {
		before = min(pos, min(snippetContextRunes, before+after-tail))
		after = tail
	}

	start := pos - before
	end := pos + len(q) + after

	var b strings.Builder
	if start > 0 {
		b.WriteString(ellipsis)
	}
	b.WriteString(string(runes[start:end]))
	if end < len(runes) {
		b.WriteString(ellipsis)
	}

	snippet := b.String()
	if len([]rune(snippet)) > maxLen {
		cut, _ := truncateRunes(snippet, maxLen-len(ellipsis))
		return cut + ellipsis
	}
	return snippet
}

// querySnippet anchors the snippet on the whole query when it occurs in
// content, otherwise on the longest query term that does.
func querySnippet(content, query string, maxLen int) string {
	lower := strings.ToLower(content)
	trimmed := strings.TrimSpace(query)
	if trimmed != "" && strings.Contains(lower, strings.ToLower(trimmed)) {
		return generateSnippet(content, trimmed, maxLen)
	}

	best := ""
	for _, term := range uniqueTokens(query) {
		if len([]rune(term)) < minKeywordTermRunes || !strings.Contains(lower, term) {
			continue
		}
		if len([]rune(term)) > len([]rune(best)) {
			best = term
		}
	}
	return generateSnippet(content, best, maxLen)
}
