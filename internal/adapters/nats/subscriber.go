package natsadapter

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

// Subscription is a live follow of one session's events.
type Subscription interface {
	Unsubscribe() error
}

// Subscriber reads plan events back from the MEETUP_PLANS stream.
type Subscriber struct {
	js nats.JetStreamContext
}

// NewSubscriber creates a subscriber on an existing connection.
func NewSubscriber(conn *nats.Conn) (*Subscriber, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{js: js}, nil
}

// FollowSession hands handler every event already stored for sessionID, then
// each new one. A session that ended before the call is still delivered.
func (s *Subscriber) FollowSession(sessionID string, handler func(data []byte)) (Subscription, error) {
	if !ValidSessionID(sessionID) {
		return nil, fmt.Errorf("invalid session id %q", sessionID)
	}
	sub, err := s.js.Subscribe(PlanSubject(sessionID), func(msg *nats.Msg) {
		handler(msg.Data)
	},
		nats.OrderedConsumer(),
		nats.DeliverAll(),
	)
	if err != nil {
		return nil, fmt.Errorf("follow session %s: %w", sessionID, err)
	}
	return sub, nil
}
