package usecase

import (
	"math"
	"testing"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
)

func lexicalResult(id string) domain.SearchResult {
	return domain.SearchResult{EntryID: id, Provenance: domain.ProvenanceLexical}
}

func vectorResult(id string) domain.SearchResult {
	return domain.SearchResult{EntryID: id, Provenance: domain.ProvenanceVector}
}

func TestFuseCandidatesRRFMergesSharedEntries(t *testing.T) {
	lexical := []domain.SearchResult{lexicalResult("a"), lexicalResult("b")}
	semantic := []domain.SearchResult{vectorResult("b"), vectorResult("c")}

	fused := fuseCandidatesRRF(lexical, semantic, 60)
	if len(fused) != 3 {
		t.Fatalf("expected 3 fused results, got %d", len(fused))
	}
	if fused[0].EntryID != "b" || fused[0].Provenance != domain.ProvenanceHybrid {
		t.Fatalf("expected hybrid b first, got %s (%s)", fused[0].EntryID, fused[0].Provenance)
	}

	// b: 1/62 + 1/61, normalised by 2/61.
	want := (1.0/62 + 1.0/61) / (2.0 / 61)
	if math.Abs(fused[0].RelevanceScore-want) > 1e-9 {
		t.Fatalf("expected score %f, got %f", want, fused[0].RelevanceScore)
	}
	if fused[1].Provenance != domain.ProvenanceLexical || fused[2].Provenance != domain.ProvenanceVector {
		t.Fatalf("single-list entries keep their provenance, got %s and %s", fused[1].Provenance, fused[2].Provenance)
	}
}

func TestFuseCandidatesRRFTieBreakStable(t *testing.T) {
	lexical := []domain.SearchResult{lexicalResult("lex")}
	semantic := []domain.SearchResult{vectorResult("vec")}

	fused := fuseCandidatesRRF(lexical, semantic, 60)
	if len(fused) != 2 {
		t.Fatalf("expected 2 fused results, got %d", len(fused))
	}
	if fused[0].EntryID != "lex" || fused[1].EntryID != "vec" {
		t.Fatalf("expected lexical-first tie-break, got %s, %s", fused[0].EntryID, fused[1].EntryID)
	}
}

func TestFuseCandidatesRRFScoresAreNormalised(t *testing.T) {
	lexical := []domain.SearchResult{lexicalResult("a"), lexicalResult("b"), lexicalResult("c")}
	semantic := []domain.SearchResult{vectorResult("a"), vectorResult("c")}

	fused := fuseCandidatesRRF(lexical, semantic, 0)
	if fused[0].EntryID != "a" || fused[0].RelevanceScore != 1 {
		t.Fatalf("entry first in both lists should score 1, got %s=%f", fused[0].EntryID, fused[0].RelevanceScore)
	}
	for i, r := range fused {
		if r.RelevanceScore < 0 || r.RelevanceScore > 1 {
			t.Fatalf("score out of range: %f", r.RelevanceScore)
		}
		if i > 0 && r.RelevanceScore > fused[i-1].RelevanceScore {
			t.Fatalf("results not sorted descending at %d", i)
		}
	}
}

func TestFuseCandidatesRRFEmptyInputs(t *testing.T) {
	if fused := fuseCandidatesRRF(nil, nil, 60); len(fused) != 0 {
		t.Fatalf("expected empty output, got %d", len(fused))
	}
}
