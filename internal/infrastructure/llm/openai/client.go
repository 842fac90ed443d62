package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
	"github.com/kirillkom/journal-assistant/internal/infrastructure/resilience"
)

const (
	DefaultChatModel      = "gpt-4o-mini"
	DefaultEmbeddingModel = string(openai.SmallEmbedding3)

	placeholderAPIKey = "your-openai-api-key"
)

type Config struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
}

// Client talks to the OpenAI API or any compatible endpoint.
type Client struct {
	client     *openai.Client
	chatModel  string
	embedModel string
	configured bool
	exec       *resilience.Executor
}

func New(cfg Config, exec *resilience.Executor) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if strings.TrimSpace(cfg.BaseURL) != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	chatModel := strings.TrimSpace(cfg.ChatModel)
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	embedModel := strings.TrimSpace(cfg.EmbeddingModel)
	if embedModel == "" {
		embedModel = DefaultEmbeddingModel
	}

	key := strings.TrimSpace(cfg.APIKey)
	return &Client{
		client:     openai.NewClientWithConfig(clientCfg),
		chatModel:  chatModel,
		embedModel: embedModel,
		configured: key != "" && key != placeholderAPIKey,
		exec:       exec,
	}
}

// Configured reports whether a usable API key was supplied.
func (c *Client) Configured() bool { return c.configured }

func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	if !c.configured {
		return "", domain.WrapError(domain.ErrProviderNotConfigured, "openai chat", errors.New("api key is not set"))
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       pickModel(req.Model, c.chatModel),
		Messages:    chatMessages(req),
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	}

	text, err := resilience.Call(ctx, c.exec, "openai.chat", func(ctx context.Context) (string, error) {
		resp, err := c.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			return "", parseAPIError(err)
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	}, classifyAPIError)
	if err != nil {
		return "", domain.WrapError(domain.ErrProviderUnavailable, "openai chat", err)
	}
	if text == "" {
		return "", domain.WrapError(domain.ErrProviderUnavailable, "openai chat", domain.ErrEmptyCompletion)
	}
	return text, nil
}

func (c *Client) EmbeddingModel(modelHint string) string {
	return "openai/" + pickModel(modelHint, c.embedModel)
}

func (c *Client) Embed(ctx context.Context, text, modelHint string) ([]float32, error) {
	if !c.configured {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "openai embed", domain.ErrProviderNotConfigured)
	}

	embReq := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          openai.EmbeddingModel(pickModel(modelHint, c.embedModel)),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}

	vector, err := resilience.Call(ctx, c.exec, "openai.embed", func(ctx context.Context) ([]float32, error) {
		resp, err := c.client.CreateEmbeddings(ctx, embReq)
		if err != nil {
			return nil, parseAPIError(err)
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return nil, errors.New("empty embedding response")
		}
		return resp.Data[0].Embedding, nil
	}, classifyAPIError)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "openai embed", err)
	}
	return vector, nil
}

// chatMessages keeps explicit chat history as-is; a bare prompt becomes
// a system plus user pair.
func chatMessages(req domain.CompletionRequest) []openai.ChatCompletionMessage {
	if len(req.Messages) > 0 {
		out := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
		for _, msg := range req.Messages {
			out = append(out, openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content})
		}
		return out
	}

	out := make([]openai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	return append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})
}

func pickModel(requested, fallback string) string {
	requested = strings.TrimSpace(requested)
	if requested == "" || requested == "default" {
		return fallback
	}
	return requested
}

// apiStatusError carries the HTTP status of a failed API call so the
// resilience classifier can tell transient failures from bad requests.
type apiStatusError struct {
	StatusCode int
	Message    string
}

func (e *apiStatusError) Error() string {
	return fmt.Sprintf("openai API error %d: %s", e.StatusCode, e.Message)
}

func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := extractDetail(reqErr.Body)
		if msg == "" {
			msg = strings.TrimSpace(string(reqErr.Body))
		}
		return &apiStatusError{StatusCode: reqErr.HTTPStatusCode, Message: msg}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &apiStatusError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}

	return fmt.Errorf("openai request failed: %w", err)
}

// extractDetail reads the "detail" field some compatible servers return.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		return parsed.Detail
	}
	return ""
}

func classifyAPIError(err error) resilience.ErrorClassification {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{}
	}

	var statusErr *apiStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		default:
			return resilience.ErrorClassification{}
		}
	}
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}
