package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
)

type askReply struct {
	Response *domain.RagResponse `json:"response,omitempty"`
	Error    *replyError         `json:"error,omitempty"`
}

type replyError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var replyErrorKinds = []struct {
	code string
	kind error
}{
	{"invalid_input", domain.ErrInvalidInput},
	{"store_unavailable", domain.ErrStoreUnavailable},
	{"timeout", context.DeadlineExceeded},
}

func newReplyError(err error) *replyError {
	for _, k := range replyErrorKinds {
		if errors.Is(err, k.kind) {
			return &replyError{Code: k.code, Message: err.Error()}
		}
	}
	return &replyError{Code: "internal", Message: err.Error()}
}

func (e *replyError) asError() error {
	for _, k := range replyErrorKinds {
		if k.code == e.Code {
			return domain.WrapError(k.kind, "remote ask", errors.New(e.Message))
		}
	}
	return fmt.Errorf("remote ask: %s", e.Message)
}

// handleAsk decodes one request, runs handler under the request timeout
// and encodes the reply.
func (b *Bus) handleAsk(ctx context.Context, data []byte, handler AskHandler) []byte {
	var reply askReply

	var req domain.RagRequest
	if err := json.Unmarshal(data, &req); err != nil {
		reply.Error = newReplyError(domain.WrapError(domain.ErrInvalidInput, "decode ask request", err))
		return mustMarshal(reply)
	}

	if b.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.requestTimeout)
		defer cancel()
	}

	resp, err := handler(ctx, req)
	if err != nil {
		slog.Warn("nats_ask_failed", "error", err)
		reply.Error = newReplyError(err)
		return mustMarshal(reply)
	}
	reply.Response = resp
	return mustMarshal(reply)
}

func mustMarshal(reply askReply) []byte {
	out, err := json.Marshal(reply)
	if err != nil {
		out, _ = json.Marshal(askReply{Error: &replyError{Code: "internal", Message: err.Error()}})
	}
	return out
}
