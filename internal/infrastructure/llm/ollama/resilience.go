package ollama

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
	"github.com/kirillkom/journal-assistant/internal/infrastructure/resilience"
)

// Statuses that mean the server is busy or still loading a model.
var transientStatuses = map[int]struct{}{
	http.StatusRequestTimeout:      {},
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

var (
	transient = resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	permanent = resilience.ErrorClassification{RecordFailure: true}
	ignored   = resilience.ErrorClassification{}
)

// classifyError feeds the executor. Caller deadlines and 4xx answers say
// nothing about server health and do not count against the breaker.
func classifyError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return ignored
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ignored
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if _, ok := transientStatuses[statusErr.StatusCode]; ok {
			return transient
		}
		return ignored
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return transient
	}
	return permanent
}

func markTemporary(operation string, err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) || !classifyError(err).Retryable {
		return err
	}
	return domain.WrapError(domain.ErrTemporary, operation, err)
}
