package usecase

import (
	"strings"
)

const (
	minKeywordTermRunes = 3
	keywordPrefixRunes  = 4
	maxPartialMatches   = 3
	exactTermWeight     = 1.0
	partialTermWeight   = 0.5
	adjacencyWeight     = 0.3
)

// keywordSimilarity approximates semantic relatedness without embeddings.
// Each query term of three or more runes earns credit for an exact
// occurrence, for occurrences of its four-rune prefix (capped) and for
// appearing next to another query term. The result is coverage times the
// mean credit of matched terms, capped at 1.
func keywordSimilarity(title, body, query string) float64 {
	terms := splitAlphaNumLower(query)
	if len(terms) == 0 {
		return 0
	}
	content := strings.ToLower(title) + " " + strings.ToLower(body)

	total := 0.0
	matched := 0
	for _, term := range terms {
		runes := []rune(term)
		if len(runes) < minKeywordTermRunes {
			continue
		}

		score := 0.0
		if strings.Contains(content, term) {
			score += exactTermWeight
		}
		prefix := string(runes[:min(len(runes), keywordPrefixRunes)])
		if partial := strings.Count(content, prefix); partial > 0 {
			score += partialTermWeight * float64(min(partial, maxPartialMatches))
		}
		for _, other := range terms {
			if other == term {
				continue
			}
			if strings.Contains(content, term+" "+other) || strings.Contains(content, other+" "+term) {
				score += adjacencyWeight
			}
		}

		if score > 0 {
			matched++
			total += score
		}
	}
	if matched == 0 {
		return 0
	}

	coverage := float64(matched) / float64(len(terms))
	return min(1.0, coverage*(total/float64(matched)))
}

// lexicalFallbackScore scores a match when the store did not rank it:
// term occurrences in the body plus double-weighted occurrences in the
// title, normalised per hundred runes of content and capped at 1.
func lexicalFallbackScore(title, body, query string) float64 {
	terms := make([]string, 0, 8)
	for _, term := range uniqueTokens(query) {
		if len([]rune(term)) >= minKeywordTermRunes {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		terms = uniqueTokens(query)
	}

	score := float64(countTermOccurrences(strings.ToLower(body), terms)) +
		2.0*float64(countTermOccurrences(strings.ToLower(title), terms))

	length := len([]rune(body)) + len([]rune(title))
	score /= max(1.0, float64(length)/100.0)
	return min(1.0, score)
}
