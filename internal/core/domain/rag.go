package domain

import (
	"fmt"
	"time"
)

// Provider names a language-model backend.
type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai"
)

// FallbackModel is reported as model_used when the answer was templated.
const FallbackModel = "template-fallback"

// ChatMessage is one turn of a chat-style completion.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the provider-neutral generation input. When Messages
// is empty, providers build the conversation from System and Prompt.
type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
}

// ChatRequest is a free-form conversation with a language model.
type ChatRequest struct {
	Provider Provider      `json:"provider"`
	Model    string        `json:"model,omitempty"`
	Messages []ChatMessage `json:"messages"`
}

func ParseProvider(raw string) (Provider, error) {
	switch Provider(raw) {
	case ProviderOllama, ProviderOpenAI:
		return Provider(raw), nil
	default:
		return "", fmt.Errorf("%w: unknown provider %q", ErrInvalidInput, raw)
	}
}

type ContextEntry struct {
	EntryID        string    `json:"entry_id"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	Snippet        string    `json:"snippet"`
	EntryDate      time.Time `json:"entry_date"`
	Tags           []string  `json:"tags"`
	RelevanceScore float64   `json:"relevance_score"`
}

type Citation struct {
	EntryID        string    `json:"entry_id"`
	EntryDate      time.Time `json:"entry_date"`
	Title          string    `json:"title"`
	Snippet        string    `json:"snippet"`
	RelevanceScore float64   `json:"relevance_score"`
	CitationNumber int       `json:"citation_number"`
}

type RagRequest struct {
	Question          string        `json:"question"`
	ConversationID    string        `json:"conversation_id,omitempty"`
	MaxContextEntries int           `json:"max_context_entries,omitempty"`
	Filters           SearchFilters `json:"filters"`
	Provider          Provider      `json:"provider,omitempty"`
	Model             string        `json:"model,omitempty"`
	EmbeddingModel    string        `json:"embedding_model,omitempty"`
}

// RagResponse carries the answer together with the entries it was
// grounded on.
type RagResponse struct {
	Answer           string         `json:"answer"`
	Citations        []Citation     `json:"citations"`
	ContextUsed      []ContextEntry `json:"context_used"`
	Confidence       float64        `json:"confidence"`
	ConversationID   string         `json:"conversation_id"`
	MessageID        string         `json:"message_id"`
	ModelUsed        string         `json:"model_used"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
	SemanticMode     SemanticMode   `json:"semantic_mode"`
	FallbackReason   string         `json:"fallback_reason,omitempty"`
}

// AnsweredEvent is published after a question has been answered so that
// conversation history can be persisted elsewhere.
type AnsweredEvent struct {
	ConversationID string     `json:"conversation_id"`
	MessageID      string     `json:"message_id"`
	Question       string     `json:"question"`
	Answer         string     `json:"answer"`
	Citations      []Citation `json:"citations"`
	ModelUsed      string     `json:"model_used"`
	AnsweredAt     time.Time  `json:"answered_at"`
}

// AnswerTemplate describes one category of templated fallback answers.
// Sentence may reference {date} and {n}.
type AnswerTemplate struct {
	Name             string   `yaml:"name"`
	QuestionKeywords []string `yaml:"question_keywords"`
	EntryKeywords    []string `yaml:"entry_keywords"`
	EntryTags        []string `yaml:"entry_tags"`
	Intro            string   `yaml:"intro"`
	Sentence         string   `yaml:"sentence"`
}

// AnswerTemplates is the full fallback configuration. Categories are tried in
// order; General applies when the question matches none of them. General.Intro
// may reference {count}.
type AnswerTemplates struct {
	DateLayout   string           `yaml:"date_layout"`
	MaxEntries   int              `yaml:"max_entries"`
	Categories   []AnswerTemplate `yaml:"categories"`
	General      AnswerTemplate   `yaml:"general"`
	Insufficient string           `yaml:"insufficient"`
}
