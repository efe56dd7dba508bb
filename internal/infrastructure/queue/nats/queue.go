package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/docdesk/internal/core/domain"
	"github.com/kirillkom/docdesk/internal/infrastructure/resilience"
)

const DefaultSubject = "docdesk.actions"

type publisher interface {
	Publish(subject string, data []byte) error
}

// ActionPublisher publishes every journaled action as JSON on one subject.
type ActionPublisher struct {
	conn     *nats.Conn
	pub      publisher
	subject  string
	executor *resilience.Executor
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

func New(url, subject string) (*ActionPublisher, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*ActionPublisher, error) {
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
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("docdesk"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	p := newPublisher(conn, subject, options.ResilienceExecutor)
	p.conn = conn
	return p, nil
}

func newPublisher(pub publisher, subject string, executor *resilience.Executor) *ActionPublisher {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = DefaultSubject
	}
	return &ActionPublisher{pub: pub, subject: subject, executor: executor}
}

func (p *ActionPublisher) Subject() string {
	return p.subject
}

func (p *ActionPublisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.FlushTimeout(5 * time.Second); err != nil {
		slog.Warn("nats_flush_on_close_failed", "error", err)
	}
	p.conn.Close()
}

// Append satisfies the action journal port.
func (p *ActionPublisher) Append(ctx context.Context, event domain.ActionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode action event: %w", err)
	}

	call := func(_ context.Context) error {
		if err := p.pub.Publish(p.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if p.executor != nil {
		err = p.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapUnavailableIfNeeded(err)
	}
	return nil
}
