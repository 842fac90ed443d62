package usecase

import (
	"strings"
	"unicode"
)

// splitAlphaNumLower lowercases s and splits it on anything that is not a
// letter or digit.
func splitAlphaNumLower(s string) []string {
	if s == "" {
		return nil
	}

	tokens := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}

func uniqueTokens(s string) []string {
	tokens := splitAlphaNumLower(s)
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, token := range tokens {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

// countTermOccurrences sums the non-overlapping occurrences of every term in
// the already lowercased text.
func countTermOccurrences(lowerText string, terms []string) int {
	total := 0
	for _, term := range terms {
		if term == "" {
			continue
		}
		total += strings.Count(lowerText, term)
	}
	return total
}

func containsAny(lowerText string, needles []string) bool {
	for _, needle := range needles {
		if needle != "" && strings.Contains(lowerText, strings.ToLower(needle)) {
			return true
		}
	}
	return false
}

func hasAnyTag(tags []string, wanted []string) bool {
	for _, tag := range tags {
		for _, w := range wanted {
			if strings.EqualFold(tag, w) {
				return true
			}
		}
	}
	return false
}

// lowerRunes lowercases rune by rune so indexes line up with the original.
func lowerRunes(s string) []rune {
	runes := []rune(s)
	out := make([]rune, len(runes))
	for i, r := range runes {
		out[i] = unicode.ToLower(r)
	}
	return out
}

func indexRunes(haystack, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func truncateRunes(s string, max int) (string, bool) {
	runes := []rune(s)
	if max < 0 || len(runes) <= max {
		return s, false
	}
	return string(runes[:max]), true
}
