package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
	"github.com/kirillkom/journal-assistant/internal/core/ports"
)

func workJournal() *entryStoreFake {
	entries := []domain.Entry{
		{ID: "w1", Title: "Roadmap", Body: "Long meeting at work about the roadmap.", EntryDate: day("2024-03-05"), Tags: []string{"work"}},
		{ID: "w2", Title: "Sprint", Body: "Sprint review at work went fine.", EntryDate: day("2024-03-12"), Tags: []string{"work"}},
		{ID: "g1", Title: "Groceries", Body: "Bought milk and eggs.", EntryDate: day("2024-03-13")},
	}
	return &entryStoreFake{
		hits: []domain.EntryHit{
			{Entry: entries[0], Relevance: scorePtr(0.6)},
			{Entry: entries[1], Relevance: scorePtr(0.5)},
		},
		entries: entries,
	}
}

func newTestQueryUseCase(store *entryStoreFake, embedder ports.Embedder, completer ports.CompletionProvider, publisher ports.AnswerEventPublisher) *QueryUseCase {
	search := NewSearchUseCase(NewLexicalSearcher(store), NewSemanticSearcher(store, embedder, 2), SearchSettings{})
	generator := newTestGenerator(completer, 0)
	return NewQueryUseCase(search, generator, publisher, QuerySettings{})
}

func TestQueryUseCaseWorkQuestionWithProvidersDown(t *testing.T) {
	publisher := &publisherFake{}
	uc := newTestQueryUseCase(
		workJournal(),
		&embedderFake{err: errors.New("embedding service down")},
		&completerFake{err: errors.New("generation service down")},
		publisher,
	)

	resp, err := uc.Answer(context.Background(), domain.RagRequest{Question: "How do I feel about work?"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if !strings.HasPrefix(resp.Answer, "Looking at your work-related journal entries") {
		t.Fatalf("expected work template, got %q", resp.Answer)
	}
	if len(resp.Citations) != 2 {
		t.Fatalf("expected 2 citations, got %+v", resp.Citations)
	}
	for _, c := range resp.Citations {
		if c.EntryID != "w1" && c.EntryID != "w2" {
			t.Fatalf("unexpected cited entry %s", c.EntryID)
		}
	}
	bodies := map[string]string{}
	for _, e := range workJournal().entries {
		bodies[e.ID] = e.Body
	}
	used := map[string]bool{}
	for _, e := range resp.ContextUsed {
		if e.Body == "" || e.Body != bodies[e.EntryID] {
			t.Fatalf("context entry %s must carry the stored body, got %q", e.EntryID, e.Body)
		}
		used[e.EntryID] = true
	}
	for _, c := range resp.Citations {
		if !used[c.EntryID] {
			t.Fatalf("cited entry %s missing from context_used %+v", c.EntryID, resp.ContextUsed)
		}
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	if !strings.Contains(string(raw), `"context_used":[{`) {
		t.Fatalf("expected context_used in encoded response, got %s", raw)
	}
	if resp.Confidence <= 0 || resp.Confidence > 0.95 {
		t.Fatalf("confidence out of range: %f", resp.Confidence)
	}
	if resp.ModelUsed != domain.FallbackModel || resp.FallbackReason != FallbackReasonProviderUnavailable {
		t.Fatalf("expected fallback model, got %q (%s)", resp.ModelUsed, resp.FallbackReason)
	}
	if resp.SemanticMode != domain.SemanticModeKeyword {
		t.Fatalf("expected keyword semantic mode, got %s", resp.SemanticMode)
	}
	if resp.ConversationID == "" || resp.MessageID == "" || resp.ConversationID == resp.MessageID {
		t.Fatalf("expected distinct generated ids, got %q / %q", resp.ConversationID, resp.MessageID)
	}
	if len(publisher.events) != 1 || publisher.events[0].MessageID != resp.MessageID {
		t.Fatalf("expected answered event, got %+v", publisher.events)
	}
}

func TestQueryUseCaseUsesProviderAnswer(t *testing.T) {
	completer := &completerFake{answer: "The roadmap meeting ran long [Entry 1]."}
	uc := newTestQueryUseCase(workJournal(), &embedderFake{fallback: []float32{1, 0}}, completer, nil)

	resp, err := uc.Answer(context.Background(), domain.RagRequest{
		Question:          "What happened with the roadmap?",
		ConversationID:    "conv-1",
		MaxContextEntries: 2,
	})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if resp.ConversationID != "conv-1" {
		t.Fatalf("expected conversation id to be kept, got %q", resp.ConversationID)
	}
	if resp.ModelUsed != "llama3.1:8b" || resp.FallbackReason != "" {
		t.Fatalf("expected provider answer, got %q (%s)", resp.ModelUsed, resp.FallbackReason)
	}
	if len(resp.Citations) != 1 || resp.Citations[0].CitationNumber != 1 {
		t.Fatalf("unexpected citations: %+v", resp.Citations)
	}
	if strings.Count(completer.lastRequest().Prompt, "] Date: ") != 2 {
		t.Fatalf("expected 2 context entries in prompt")
	}
}

func TestQueryUseCaseRejectsEmptyQuestion(t *testing.T) {
	uc := newTestQueryUseCase(workJournal(), nil, &completerFake{}, nil)

	_, err := uc.Answer(context.Background(), domain.RagRequest{Question: "   "})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestQueryUseCasePropagatesStoreFailure(t *testing.T) {
	store := &entryStoreFake{err: errors.New("database is locked")}
	uc := newTestQueryUseCase(store, nil, &completerFake{answer: "x"}, nil)

	_, err := uc.Answer(context.Background(), domain.RagRequest{Question: "work?"})
	if !domain.IsKind(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestQueryUseCaseIgnoresPublishFailure(t *testing.T) {
	uc := newTestQueryUseCase(workJournal(), nil, &completerFake{answer: "ok [Entry 1]"}, &publisherFake{err: errors.New("nats down")})

	if _, err := uc.Answer(context.Background(), domain.RagRequest{Question: "work?"}); err != nil {
		t.Fatalf("publish failure must not fail the answer, got %v", err)
	}
}

func TestQueryUseCaseFallsBackWhenEmbeddingHangs(t *testing.T) {
	store := workJournal()
	semantic := NewSemanticSearcher(store, &embedderFake{hangAll: true}, 2).WithEmbedTimeout(20 * time.Millisecond)
	search := NewSearchUseCase(NewLexicalSearcher(store), semantic, SearchSettings{})
	uc := NewQueryUseCase(search, newTestGenerator(&completerFake{block: true}, 20*time.Millisecond), nil, QuerySettings{})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	resp, err := uc.Answer(ctx, domain.RagRequest{Question: "How do I feel about work?"})
	if err != nil {
		t.Fatalf("a hung embedding provider must not fail the answer, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("answer waited on the caller deadline: %s", elapsed)
	}
	if resp.SemanticMode != domain.SemanticModeKeyword {
		t.Fatalf("expected keyword semantic mode, got %s", resp.SemanticMode)
	}
	if resp.FallbackReason != FallbackReasonTimeout || len(resp.ContextUsed) == 0 {
		t.Fatalf("expected timeout fallback over retrieved context, got %q with %d entries", resp.FallbackReason, len(resp.ContextUsed))
	}
}
