package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
	"github.com/kirillkom/journal-assistant/internal/core/ports"
)

func generationContext() []domain.ContextEntry {
	return []domain.ContextEntry{
		{EntryID: "a", EntryDate: day("2024-02-01"), Tags: []string{"work"}, Snippet: "Shipped the release.", RelevanceScore: 0.9},
		{EntryID: "b", EntryDate: day("2024-02-02"), Snippet: "Rested.", RelevanceScore: 0.5},
	}
}

func newTestGenerator(completer ports.CompletionProvider, timeout time.Duration) *AnswerGenerator {
	return NewAnswerGenerator(
		map[domain.Provider]ports.CompletionProvider{domain.ProviderOllama: completer},
		defaultTemplates(),
		GenerationSettings{
			DefaultProvider: domain.ProviderOllama,
			Profiles: map[domain.Provider]ProviderProfile{
				domain.ProviderOllama: {Model: "llama3.1:8b", MaxTokens: 1000},
			},
			Temperature: 0.3,
			Timeout:     timeout,
		},
	)
}

func TestGenerateUsesProviderAndParsesCitations(t *testing.T) {
	completer := &completerFake{answer: "  You shipped the release [Entry 1].  "}
	gen := newTestGenerator(completer, 0)

	out := gen.Generate(context.Background(), "What did I ship?", generationContext(), "", "")

	if out.text != "You shipped the release [Entry 1]." || out.modelUsed != "llama3.1:8b" || out.fallbackReason != "" {
		t.Fatalf("unexpected generation: %+v", out)
	}
	if len(out.citations) != 1 || out.citations[0].EntryID != "a" {
		t.Fatalf("unexpected citations: %+v", out.citations)
	}

	req := completer.lastRequest()
	if req.Temperature != 0.3 || req.MaxTokens != 1000 || req.Model != "llama3.1:8b" {
		t.Fatalf("unexpected request settings: %+v", req)
	}
	if !strings.Contains(req.Prompt, "[Entry 1] Date: 2024-02-01 | Tags: work | Content: Shipped the release.") {
		t.Fatalf("prompt missing rendered context: %s", req.Prompt)
	}
	if !strings.Contains(req.Prompt, "Use only the provided context") || !strings.Contains(req.Prompt, "What did I ship?") {
		t.Fatalf("prompt missing instructions or question: %s", req.Prompt)
	}
}

func TestGenerateFallsBackOnProviderFailure(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		answer string
		reason string
	}{
		{name: "transport", err: errors.New("connection refused"), reason: FallbackReasonProviderUnavailable},
		{name: "not configured", err: domain.WrapError(domain.ErrProviderNotConfigured, "complete", errors.New("missing key")), reason: FallbackReasonProviderNotConfig},
		{name: "empty output", answer: "   ", reason: FallbackReasonEmptyCompletion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := newTestGenerator(&completerFake{answer: tt.answer, err: tt.err}, 0)

			out := gen.Generate(context.Background(), "How is work?", generationContext(), domain.ProviderOllama, "")
			if out.modelUsed != domain.FallbackModel || out.fallbackReason != tt.reason {
				t.Fatalf("expected fallback with reason %s, got %+v", tt.reason, out)
			}
			if len(out.citations) == 0 {
				t.Fatalf("expected templated citations")
			}
		})
	}
}

func TestGenerateFallsBackOnTimeout(t *testing.T) {
	gen := newTestGenerator(&completerFake{block: true}, 20*time.Millisecond)

	out := gen.Generate(context.Background(), "How is work?", generationContext(), "", "")
	if out.fallbackReason != FallbackReasonTimeout {
		t.Fatalf("expected timeout fallback, got %+v", out)
	}
}

func TestGenerateUnknownProviderFallsBack(t *testing.T) {
	gen := newTestGenerator(&completerFake{answer: "ok"}, 0)

	out := gen.Generate(context.Background(), "How is work?", generationContext(), domain.ProviderOpenAI, "")
	if out.fallbackReason != FallbackReasonProviderMissing {
		t.Fatalf("expected provider_missing fallback, got %+v", out)
	}
}

func TestGenerateWithoutContextSkipsProvider(t *testing.T) {
	completer := &completerFake{answer: "ok"}
	gen := newTestGenerator(completer, 0)

	out := gen.Generate(context.Background(), "Anything?", nil, "", "")
	if out.fallbackReason != FallbackReasonNoContext || len(completer.requests) != 0 {
		t.Fatalf("expected no provider call for empty context, got %+v", out)
	}
}
