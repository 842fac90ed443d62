package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
	"github.com/kirillkom/journal-assistant/internal/infrastructure/resilience"
)

const (
	DefaultChatModel      = "llama3.1:8b"
	DefaultEmbeddingModel = "nomic-embed-text"
)

type Client struct {
	baseURL    string
	chatModel  string
	embedModel string
	httpClient *http.Client
	exec       *resilience.Executor
}

// New builds a client for an Ollama server. exec may be nil.
func New(baseURL, chatModel, embedModel string, exec *resilience.Executor) *Client {
	if strings.TrimSpace(chatModel) == "" {
		chatModel = DefaultChatModel
	}
	if strings.TrimSpace(embedModel) == "" {
		embedModel = DefaultEmbeddingModel
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		chatModel:  chatModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		exec:       exec,
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	System  string          `json:"system,omitempty"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// Complete runs a non-streaming /api/generate call. Chat messages are
// flattened into a single role-prefixed prompt.
func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	payload := generateRequest{
		Model:  pickModel(req.Model, c.chatModel),
		System: req.System,
		Prompt: req.Prompt,
		Options: generateOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}
	if len(req.Messages) > 0 {
		payload.Prompt = flattenMessages(req.Messages)
	}
	if strings.TrimSpace(payload.Prompt) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "ollama generate", fmt.Errorf("prompt is empty"))
	}

	text, err := resilience.Call(ctx, c.exec, "ollama.generate", func(ctx context.Context) (string, error) {
		var response struct {
			Response string `json:"response"`
		}
		if err := c.roundTrip(ctx, http.MethodPost, "/api/generate", payload, &response, "generate"); err != nil {
			return "", markTemporary("ollama generate", err)
		}
		return strings.TrimSpace(response.Response), nil
	}, classifyError)
	if err != nil {
		return "", domain.WrapError(domain.ErrProviderUnavailable, "ollama generate", err)
	}
	if text == "" {
		return "", domain.WrapError(domain.ErrProviderUnavailable, "ollama generate", domain.ErrEmptyCompletion)
	}
	return text, nil
}

// Embed returns the embedding of text. modelHint overrides the configured
// embedding model unless it is empty or "default".
// EmbeddingModel names the model Embed uses for modelHint.
func (c *Client) EmbeddingModel(modelHint string) string {
	return "ollama/" + pickModel(modelHint, c.embedModel)
}

func (c *Client) Embed(ctx context.Context, text, modelHint string) ([]float32, error) {
	payload := map[string]any{
		"model": pickModel(modelHint, c.embedModel),
		"input": text,
	}

	vector, err := resilience.Call(ctx, c.exec, "ollama.embed", func(ctx context.Context) ([]float32, error) {
		var response struct {
			Embeddings [][]float32 `json:"embeddings"`
		}
		if err := c.roundTrip(ctx, http.MethodPost, "/api/embed", payload, &response, "embed"); err != nil {
			return nil, markTemporary("ollama embed", err)
		}
		if len(response.Embeddings) == 0 || len(response.Embeddings[0]) == 0 {
			return nil, fmt.Errorf("empty embedding result")
		}
		return response.Embeddings[0], nil
	}, classifyError)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "ollama embed", err)
	}
	return vector, nil
}

// Ping reports whether the server answers on /api/tags. A 404 still counts
// as reachable since older builds lack the endpoint.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err := c.roundTrip(ctx, http.MethodGet, "/api/tags", nil, nil, "ping")
	var statusErr *StatusError
	if err == nil || (errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound) {
		return nil
	}
	return domain.WrapError(domain.ErrProviderUnavailable, "ollama ping", err)
}

func pickModel(requested, fallback string) string {
	requested = strings.TrimSpace(requested)
	if requested == "" || requested == "default" {
		return fallback
	}
	return requested
}
