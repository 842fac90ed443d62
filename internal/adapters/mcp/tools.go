package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
)

const dateLayout = "2006-01-02"

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("ask_journal",
		mcp.WithDescription("Answer a question from the user's journal entries, citing the entries used."),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question to answer.")),
		mcp.WithString("conversation_id", mcp.Description("Conversation to continue; a new one is started when empty.")),
		mcp.WithNumber("max_context_entries", mcp.Description("How many entries to use as context (default 5).")),
		mcp.WithString("provider", mcp.Description("Language model provider."), mcp.Enum("ollama", "openai")),
		mcp.WithString("date_from", mcp.Description("Only entries on or after this date (YYYY-MM-DD).")),
		mcp.WithString("date_to", mcp.Description("Only entries on or before this date (YYYY-MM-DD).")),
		mcp.WithArray("tags", mcp.Description("Only entries carrying one of these tags."), mcp.Items(map[string]any{"type": "string"})),
	), s.handleAsk)

	s.mcp.AddTool(mcp.NewTool("search_journal",
		mcp.WithDescription("Search journal entries by keyword and meaning."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text.")),
		mcp.WithString("search_type", mcp.Description("Retrieval strategy (default hybrid)."), mcp.Enum("fulltext", "semantic", "hybrid")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10).")),
		mcp.WithString("date_from", mcp.Description("Only entries on or after this date (YYYY-MM-DD).")),
		mcp.WithString("date_to", mcp.Description("Only entries on or before this date (YYYY-MM-DD).")),
		mcp.WithArray("tags", mcp.Description("Only entries carrying one of these tags."), mcp.Items(map[string]any{"type": "string"})),
	), s.handleSearch)
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filters, err := filtersFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := domain.RagRequest{
		Question:          question,
		ConversationID:    request.GetString("conversation_id", ""),
		MaxContextEntries: request.GetInt("max_context_entries", 0),
		Filters:           filters,
	}
	if raw := request.GetString("provider", ""); raw != "" {
		provider, err := domain.ParseProvider(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		req.Provider = provider
	}

	resp, err := s.answerer.Answer(ctx, req)
	if err != nil {
		return toolError("ask_journal", err)
	}
	return jsonResult(resp)
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode, err := domain.ParseSearchMode(request.GetString("search_type", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filters, err := filtersFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results, err := s.searcher.Search(ctx, domain.SearchRequest{
		Query:   query,
		Mode:    mode,
		Filters: filters,
		Limit:   request.GetInt("limit", 0),
	})
	if err != nil {
		return toolError("search_journal", err)
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	return jsonResult(map[string]any{
		"count":   len(results),
		"results": results,
	})
}

func filtersFromRequest(request mcp.CallToolRequest) (domain.SearchFilters, error) {
	var filters domain.SearchFilters
	if raw := strings.TrimSpace(request.GetString("date_from", "")); raw != "" {
		from, err := time.Parse(dateLayout, raw)
		if err != nil {
			return filters, fmt.Errorf("date_from must be YYYY-MM-DD: %w", err)
		}
		filters.DateFrom = &from
	}
	if raw := strings.TrimSpace(request.GetString("date_to", "")); raw != "" {
		to, err := time.Parse(dateLayout, raw)
		if err != nil {
			return filters, fmt.Errorf("date_to must be YYYY-MM-DD: %w", err)
		}
		to = to.Add(24*time.Hour - time.Nanosecond)
		filters.DateTo = &to
	}
	filters.Tags = request.GetStringSlice("tags", nil)
	return filters, nil
}

// toolError reports caller mistakes and outages as tool results; the model
// can read them. Only unexpected failures become protocol errors.
func toolError(tool string, err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnsupportedSearchMode):
		return mcp.NewToolResultError(err.Error()), nil
	case errors.Is(err, domain.ErrStoreUnavailable):
		slog.Warn("mcp_tool_failed", "tool", tool, "error", err)
		return mcp.NewToolResultError("the journal store is unavailable, try again later"), nil
	default:
		slog.Error("mcp_tool_failed", "tool", tool, "error", err)
		return nil, fmt.Errorf("%s: %w", tool, err)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}
