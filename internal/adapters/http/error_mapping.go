package httpadapter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
)

type errorMapping struct {
	kind   error
	status int
	code   string
}

// Order matters: an empty completion is also a provider failure.
var errorMappings = []errorMapping{
	{domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{domain.ErrUnsupportedSearchMode, http.StatusBadRequest, "invalid_input"},
	{domain.ErrProviderNotConfigured, http.StatusBadRequest, "provider_not_configured"},
	{domain.ErrEmptyCompletion, http.StatusBadGateway, "empty_completion"},
	{domain.ErrProviderUnavailable, http.StatusServiceUnavailable, "provider_unavailable"},
	{domain.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
	{domain.ErrTemporary, http.StatusServiceUnavailable, "temporary"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
}

func mapErrorToHTTPStatus(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.kind) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// writeDomainError exposes details only for client errors; everything else
// is reported by kind.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := mapErrorToHTTPStatus(err)
	message := err.Error()
	if status >= 500 {
		slog.Error("http_request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"code", code,
			"error", err,
		)
		message = publicMessage(code)
	}
	writeError(w, status, code, message)
}

func publicMessage(code string) string {
	switch code {
	case "empty_completion":
		return domain.ErrEmptyCompletion.Error()
	case "provider_unavailable":
		return domain.ErrProviderUnavailable.Error()
	case "store_unavailable":
		return domain.ErrStoreUnavailable.Error()
	case "temporary":
		return domain.ErrTemporary.Error()
	case "timeout":
		return "request timed out"
	default:
		return "internal error"
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}
