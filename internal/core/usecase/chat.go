package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
	"github.com/kirillkom/journal-assistant/internal/core/ports"
)

type ChatSettings struct {
	DefaultProvider domain.Provider
	Profiles        map[domain.Provider]ProviderProfile
	Temperature     float64
	Timeout         time.Duration
}

// ChatUseCase forwards a free-form conversation to a provider. Unlike
// question answering it has no templated fallback; failures are returned.
type ChatUseCase struct {
	providers map[domain.Provider]ports.CompletionProvider
	settings  ChatSettings
}

func NewChatUseCase(providers map[domain.Provider]ports.CompletionProvider, settings ChatSettings) *ChatUseCase {
	if settings.DefaultProvider == "" {
		settings.DefaultProvider = domain.ProviderOllama
	}
	if settings.Temperature <= 0 {
		settings.Temperature = 0.7
	}
	return &ChatUseCase{providers: providers, settings: settings}
}

func (uc *ChatUseCase) Chat(ctx context.Context, req domain.ChatRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "chat", fmt.Errorf("messages are required"))
	}
	for i, msg := range req.Messages {
		if strings.TrimSpace(msg.Content) == "" {
			return "", domain.WrapError(domain.ErrInvalidInput, "chat", fmt.Errorf("message %d is empty", i))
		}
	}

	provider := req.Provider
	if provider == "" {
		provider = uc.settings.DefaultProvider
	}
	completer, ok := uc.providers[provider]
	if !ok || completer == nil {
		return "", domain.WrapError(domain.ErrProviderNotConfigured, "chat", fmt.Errorf("provider %q is not available", provider))
	}

	profile := uc.settings.Profiles[provider]
	model := req.Model
	if strings.TrimSpace(model) == "" || model == "default" {
		model = profile.Model
	}

	if uc.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.settings.Timeout)
		defer cancel()
	}

	text, err := completer.Complete(ctx, domain.CompletionRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: uc.settings.Temperature,
		MaxTokens:   profile.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.WrapError(domain.ErrProviderUnavailable, "chat", domain.ErrEmptyCompletion)
	}
	return text, nil
}
