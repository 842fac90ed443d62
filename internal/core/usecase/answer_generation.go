package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
	"github.com/kirillkom/journal-assistant/internal/core/ports"
)

const answerSystemPrompt = "You are a helpful assistant that answers questions based on journal entries. " +
	"Always cite specific entries when making claims, using the format [Entry N]. " +
	"Be accurate and only make claims supported by the provided context."

const (
	FallbackReasonNoContext           = "no_context"
	FallbackReasonProviderMissing     = "provider_missing"
	FallbackReasonProviderNotConfig   = "provider_not_configured"
	FallbackReasonProviderUnavailable = "provider_unavailable"
	FallbackReasonEmptyCompletion     = "empty_completion"
	FallbackReasonTimeout             = "timeout"
)

// ProviderProfile holds per-provider generation defaults.
type ProviderProfile struct {
	Model     string
	MaxTokens int
}

type GenerationSettings struct {
	DefaultProvider domain.Provider
	Profiles        map[domain.Provider]ProviderProfile
	Temperature     float64
	Timeout         time.Duration
}

type AnswerGenerator struct {
	providers map[domain.Provider]ports.CompletionProvider
	templates domain.AnswerTemplates
	settings  GenerationSettings
}

func NewAnswerGenerator(
	providers map[domain.Provider]ports.CompletionProvider,
	templates domain.AnswerTemplates,
	settings GenerationSettings,
) *AnswerGenerator {
	if settings.DefaultProvider == "" {
		settings.DefaultProvider = domain.ProviderOllama
	}
	if settings.Temperature <= 0 {
		settings.Temperature = 0.3
	}
	return &AnswerGenerator{
		providers: providers,
		templates: templates,
		settings:  settings,
	}
}

type generatedAnswer struct {
	text           string
	citations      []domain.Citation
	modelUsed      string
	fallbackReason string
}

// Generate asks the selected provider for a grounded answer. Any provider
// failure, including a timeout or an empty completion, yields the templated
// answer instead of an error.
func (g *AnswerGenerator) Generate(
	ctx context.Context,
	question string,
	entries []domain.ContextEntry,
	provider domain.Provider,
	model string,
) generatedAnswer {
	if len(entries) == 0 {
		return g.fallback(question, entries, FallbackReasonNoContext)
	}
	if provider == "" {
		provider = g.settings.DefaultProvider
	}

	completer, ok := g.providers[provider]
	if !ok || completer == nil {
		return g.fallback(question, entries, FallbackReasonProviderMissing)
	}

	profile := g.settings.Profiles[provider]
	if strings.TrimSpace(model) == "" || model == "default" {
		model = profile.Model
	}

	callCtx := ctx
	if g.settings.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.settings.Timeout)
		defer cancel()
	}

	text, err := completer.Complete(callCtx, domain.CompletionRequest{
		Model:       model,
		System:      answerSystemPrompt,
		Prompt:      buildAnswerPrompt(question, renderContext(entries)),
		Temperature: g.settings.Temperature,
		MaxTokens:   profile.MaxTokens,
	})
	if err == nil && strings.TrimSpace(text) == "" {
		err = domain.ErrEmptyCompletion
	}
	if err != nil {
		reason := fallbackReason(err)
		slog.Warn("answer_generation_fallback",
			"provider", string(provider),
			"model", model,
			"reason", reason,
			"error", err,
		)
		return g.fallback(question, entries, reason)
	}

	text = strings.TrimSpace(text)
	return generatedAnswer{
		text:      text,
		citations: extractCitations(text, entries),
		modelUsed: model,
	}
}

func (g *AnswerGenerator) fallback(question string, entries []domain.ContextEntry, reason string) generatedAnswer {
	text, citations := templatedAnswer(question, entries, g.templates)
	return generatedAnswer{
		text:           text,
		citations:      citations,
		modelUsed:      domain.FallbackModel,
		fallbackReason: reason,
	}
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return FallbackReasonTimeout
	case domain.IsKind(err, domain.ErrProviderNotConfigured):
		return FallbackReasonProviderNotConfig
	case domain.IsKind(err, domain.ErrEmptyCompletion):
		return FallbackReasonEmptyCompletion
	default:
		return FallbackReasonProviderUnavailable
	}
}

func buildAnswerPrompt(question, context string) string {
	return fmt.Sprintf(`You are a helpful assistant that answers questions about personal journal entries.
Use only the provided context to answer the question. If the context doesn't contain enough information to answer the question, say so clearly.

When referencing information from the context, include citation numbers in square brackets like [Entry 1], [Entry 2], etc.

Context:
%s

Question: %s

Answer:`, context, question)
}
