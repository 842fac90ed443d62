package usecase

import (
	"sort"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
)

const defaultRRFK = 60

// rankedEntry accumulates the reciprocal-rank contributions of one entry.
type rankedEntry struct {
	result      domain.SearchResult
	lexicalRank int
	vectorRank  int
	score       float64
	order       int
}

// fuseCandidatesRRF merges the lexical and semantic rankings with
// reciprocal rank fusion. An entry at 0-based rank r contributes
// 1/(k+r+1) per list; entries present in both lists become hybrid.
// Fused scores are divided by 2/(k+1), the score of an entry ranked first
// in both lists, so they fall in [0,1]. Ties keep first-seen order with
// lexical results seen before vector results.
func fuseCandidatesRRF(lexical, semantic []domain.SearchResult, rrfK int) []domain.SearchResult {
	if rrfK <= 0 {
		rrfK = defaultRRFK
	}

	acc := make(map[string]*rankedEntry, len(lexical)+len(semantic))
	ordered := make([]*rankedEntry, 0, len(lexical)+len(semantic))

	addList := func(results []domain.SearchResult, lexicalList bool) {
		for rank, result := range results {
			contribution := 1.0 / float64(rrfK+rank+1)
			entry, ok := acc[result.EntryID]
			if !ok {
				entry = &rankedEntry{
					result:      result,
					lexicalRank: -1,
					vectorRank:  -1,
					order:       len(ordered),
				}
				acc[result.EntryID] = entry
				ordered = append(ordered, entry)
			} else if entry.result.Snippet == "" {
				entry.result.Snippet = result.Snippet
			}
			if lexicalList {
				if entry.lexicalRank >= 0 {
					continue
				}
				entry.lexicalRank = rank
			} else {
				if entry.vectorRank >= 0 {
					continue
				}
				entry.vectorRank = rank
			}
			entry.score += contribution
		}
	}

	addList(lexical, true)
	addList(semantic, false)

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].score != ordered[j].score {
			return ordered[i].score > ordered[j].score
		}
		return ordered[i].order < ordered[j].order
	})

	best := 2.0 / float64(rrfK+1)
	out := make([]domain.SearchResult, 0, len(ordered))
	for _, entry := range ordered {
		result := entry.result
		if entry.lexicalRank >= 0 && entry.vectorRank >= 0 {
			result.Provenance = domain.ProvenanceHybrid
		}
		result.RelevanceScore = clampUnit(entry.score / best)
		out = append(out, result)
	}
	return out
}

func trimResults(results []domain.SearchResult, limit int) []domain.SearchResult {
	if limit <= 0 || len(results) <= limit {
		return results
	}
	return results[:limit]
}
