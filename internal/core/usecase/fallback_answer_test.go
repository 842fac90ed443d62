package usecase

import (
	"strings"
	"testing"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
)

func TestTemplatedAnswerPrefersWorkOverFeelings(t *testing.T) {
	entries := []domain.ContextEntry{
		{EntryID: "w1", EntryDate: day("2024-03-05"), Tags: []string{"work"}, Snippet: "Long sprint review.", RelevanceScore: 0.9},
		{EntryID: "w2", EntryDate: day("2024-03-12"), Tags: []string{"work"}, Snippet: "Planning poker.", RelevanceScore: 0.6},
	}

	answer, citations := templatedAnswer("How do I feel about work?", entries, defaultTemplates())

	if !strings.HasPrefix(answer, "Looking at your work-related journal entries") {
		t.Fatalf("expected work intro, got %q", answer)
	}
	if !strings.Contains(answer, "You wrote about work experiences on March 05 [1].") ||
		!strings.Contains(answer, "You wrote about work experiences on March 12 [2].") {
		t.Fatalf("expected dated work sentences, got %q", answer)
	}
	if len(citations) != 2 || citations[0].EntryID != "w1" || citations[1].CitationNumber != 2 {
		t.Fatalf("unexpected citations: %+v", citations)
	}
}

func TestTemplatedAnswerFallsThroughToNextMentionedCategory(t *testing.T) {
	entries := []domain.ContextEntry{
		{EntryID: "f1", EntryDate: day("2024-01-02"), Snippet: "I was so happy today.", RelevanceScore: 0.8},
	}

	answer, citations := templatedAnswer("How do I feel about work?", entries, defaultTemplates())

	if !strings.Contains(answer, "you mentioned feeling certain emotions [1]") {
		t.Fatalf("expected feelings template, got %q", answer)
	}
	if len(citations) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(citations))
	}
}

func TestTemplatedAnswerGeneralOnlyConsidersFirstThree(t *testing.T) {
	entries := make([]domain.ContextEntry, 5)
	for i := range entries {
		entries[i] = domain.ContextEntry{EntryID: string(rune('a' + i)), EntryDate: day("2024-05-01"), Snippet: "text"}
	}

	answer, citations := templatedAnswer("What happened in May?", entries, defaultTemplates())

	if !strings.HasPrefix(answer, "Based on your journal entries, I found 5 relevant entries") {
		t.Fatalf("expected general intro with count, got %q", answer)
	}
	if len(citations) != 3 {
		t.Fatalf("expected 3 citations, got %d", len(citations))
	}
}

func TestTemplatedAnswerInsufficient(t *testing.T) {
	tpl := defaultTemplates()
	entries := []domain.ContextEntry{{EntryID: "x", Snippet: "groceries", EntryDate: day("2024-01-01")}}

	answer, citations := templatedAnswer("What are my goals?", entries, tpl)
	if answer != tpl.Insufficient {
		t.Fatalf("expected insufficient answer, got %q", answer)
	}
	if len(citations) != 0 {
		t.Fatalf("expected no citations, got %d", len(citations))
	}

	answer, _ = templatedAnswer("Anything?", nil, tpl)
	if answer != tpl.Insufficient {
		t.Fatalf("expected insufficient answer for empty context, got %q", answer)
	}
}

func TestTemplatedAnswerMatchesKeywordsOutsideSnippet(t *testing.T) {
	entries := []domain.ContextEntry{{
		EntryID:        "r1",
		EntryDate:      day("2024-04-09"),
		Snippet:        "Spent the morning on the roadmap draft",
		Body:           "Spent the morning on the roadmap draft. In the afternoon we had a long meeting about hiring.",
		RelevanceScore: 0.7,
	}}

	answer, citations := templatedAnswer("what about work?", entries, defaultTemplates())

	if !strings.HasPrefix(answer, "Looking at your work-related journal entries") {
		t.Fatalf("expected work template from body keywords, got %q", answer)
	}
	if len(citations) != 1 || citations[0].EntryID != "r1" {
		t.Fatalf("unexpected citations: %+v", citations)
	}
}
