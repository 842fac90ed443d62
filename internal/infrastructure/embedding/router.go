package embedding

import (
	"context"
	"strings"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
	"github.com/kirillkom/journal-assistant/internal/core/ports"
)

// Identifier reports the concrete backend and model a hint resolves to,
// so equivalent hints share one identity.
type Identifier interface {
	EmbeddingModel(modelHint string) string
}

// Router dispatches an embedding request by model hint. Unset backends
// fall back to Default.
type Router struct {
	Default   ports.Embedder
	Ollama    ports.Embedder
	OpenAI    ports.Embedder
	Synthetic ports.Embedder
}

func (r *Router) Embed(ctx context.Context, text, modelHint string) ([]float32, error) {
	target := r.pick(modelHint)
	if target == nil {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "embed", domain.ErrProviderNotConfigured)
	}
	return target.Embed(ctx, text, modelHint)
}

func (r *Router) pick(modelHint string) ports.Embedder {
	hint := strings.ToLower(strings.TrimSpace(modelHint))

	var target ports.Embedder
	switch {
	case hint == "" || hint == "default":
	case strings.Contains(hint, "synthetic"), strings.Contains(hint, "mock"):
		target = r.Synthetic
	case strings.Contains(hint, "ollama"), strings.Contains(hint, "llama"), strings.Contains(hint, "nomic"):
		target = r.Ollama
	case strings.HasPrefix(hint, "text-embedding"):
		target = r.OpenAI
	}
	if target == nil {
		return r.Default
	}
	return target
}

// EmbeddingModel names the model the picked backend would use. Backends
// that cannot tell keep the hint.
func (r *Router) EmbeddingModel(modelHint string) string {
	target := r.pick(modelHint)
	if id, ok := target.(Identifier); ok {
		return id.EmbeddingModel(modelHint)
	}
	return modelHint
}
