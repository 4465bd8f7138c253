package natsadapter

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/midzapp/midz/internal/core/domain"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	now  func() time.Time
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure the stream exists
	cfg := &nats.StreamConfig{
		Name:      "MEETUP_PLANS",
		Subjects:  []string{PlanSubject("")},
		Retention: nats.LimitsPolicy,
		MaxAge:    1 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js, now: time.Now}, nil
}

// PublishPlanCompleted implements ports.EventPublisher.
func (p *Publisher) PublishPlanCompleted(ctx context.Context, result *domain.PlanResult) error {
	return p.publish(ctx, PlanEvent{
		SessionID: result.SessionID,
		Status:    StatusComplete,
		Result:    result,
		Timestamp: p.now().UTC(),
	})
}

// PublishPlanFailed implements ports.EventPublisher.
func (p *Publisher) PublishPlanFailed(ctx context.Context, sessionID, reason string) error {
	return p.publish(ctx, PlanEvent{
		SessionID: sessionID,
		Status:    StatusFailed,
		Reason:    reason,
		Timestamp: p.now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, ev PlanEvent) error {
	if !ValidSessionID(ev.SessionID) {
		return fmt.Errorf("invalid session id %q", ev.SessionID)
	}
	data, err := EncodeEvent(ev)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(PlanSubject(ev.SessionID), data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection (e.g. for the WebSocket relay).
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("midz"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
