package ollama

import (
	"strings"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
)

// flattenMessages renders a chat history for /api/generate, ending with an
// open assistant turn.
func flattenMessages(messages []domain.ChatMessage) string {
	var b strings.Builder
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			b.WriteString("System: ")
		case "user":
			b.WriteString("User: ")
		case "assistant":
			b.WriteString("Assistant: ")
		default:
			b.WriteString(msg.Role + ": ")
		}
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	b.WriteString("Assistant: ")
	return b.String()
}
