package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
	"github.com/kirillkom/journal-assistant/internal/infrastructure/resilience"
)

// AskHandler answers one decoded request.
type AskHandler func(ctx context.Context, req domain.RagRequest) (*domain.RagResponse, error)

// Bus carries question requests and answered events over NATS.
type Bus struct {
	conn            *nats.Conn
	askSubject      string
	answeredSubject string
	queueGroup      string
	requestTimeout  time.Duration
	executor        *resilience.Executor
}

type Options struct {
	AskSubject      string
	AnsweredSubject string
	QueueGroup      string
	RequestTimeout  time.Duration

	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func New(url string, options Options) (*Bus, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("journal-assistant"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return newBus(conn, options), nil
}

func newBus(conn *nats.Conn, options Options) *Bus {
	b := &Bus{
		conn:            conn,
		askSubject:      options.AskSubject,
		answeredSubject: options.AnsweredSubject,
		queueGroup:      options.QueueGroup,
		requestTimeout:  options.RequestTimeout,
		executor:        options.ResilienceExecutor,
	}
	if b.askSubject == "" {
		b.askSubject = "journal.rag.ask"
	}
	if b.answeredSubject == "" {
		b.answeredSubject = "journal.rag.answered"
	}
	if b.queueGroup == "" {
		b.queueGroup = "rag-workers"
	}
	return b
}

func (b *Bus) Close() {
	if b.conn != nil {
		b.conn.Close()
	}
}

// PublishAnswered emits an answered event for conversation storage.
func (b *Bus) PublishAnswered(ctx context.Context, event domain.AnsweredEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal answered event: %w", err)
	}

	err = b.executor.Execute(ctx, "nats.publish", func(context.Context) error {
		if err := b.conn.Publish(b.answeredSubject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}, classifyNATSError)
	return asTemporary(err)
}

// Ask sends a request on the ask subject and waits for the reply.
func (b *Bus) Ask(ctx context.Context, req domain.RagRequest) (*domain.RagResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal ask request: %w", err)
	}
	msg, err := b.conn.RequestWithContext(ctx, b.askSubject, payload)
	if err != nil {
		return nil, asTemporary(fmt.Errorf("nats request: %w", err))
	}

	var reply askReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return nil, fmt.Errorf("decode ask reply: %w", err)
	}
	if reply.Error != nil {
		return nil, reply.Error.asError()
	}
	if reply.Response == nil {
		return nil, errors.New("ask reply carries neither response nor error")
	}
	return reply.Response, nil
}

// ServeAsk answers requests from the queue group until ctx is done, then
// drains the subscription so in-flight requests still get replies.
func (b *Bus) ServeAsk(ctx context.Context, handler AskHandler) error {
	sub, err := b.conn.QueueSubscribe(b.askSubject, b.queueGroup, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}
		reply := b.handleAsk(ctx, msg.Data, handler)
		if msg.Reply == "" {
			return
		}
		if err := msg.Respond(reply); err != nil {
			slog.Warn("nats_reply_failed", "subject", msg.Subject, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := b.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}
	slog.Info("nats_ask_subscribed", "subject", b.askSubject, "queue_group", b.queueGroup)

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := b.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
