package http

import (
	"context"

	"github.com/nats-io/nats.go"

	natsadapter "github.com/midzapp/midz/internal/adapters/nats"
	"github.com/midzapp/midz/internal/adapters/postgres"
	"github.com/midzapp/midz/internal/adapters/valkey"
	"github.com/midzapp/midz/internal/core/domain"
	"github.com/midzapp/midz/internal/core/ports"
	"github.com/midzapp/midz/internal/core/usecases"
)

// AsyncPlanner hands a planning session to a background worker. The result
// is published on the event bus under the request's session ID.
type AsyncPlanner interface {
	StartPlan(ctx context.Context, req domain.PlanRequest) error
}

// PlanFeed replays and follows the events of one planning session.
type PlanFeed interface {
	FollowSession(sessionID string, handler func(data []byte)) (natsadapter.Subscription, error)
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Planner *usecases.MeetupPlanner
	Boards  ports.BoardStore
	Async   AsyncPlanner // nil disables ?async=true
	Feed    PlanFeed     // nil disables /ws subscriptions
	NATS    *nats.Conn
	DB      *postgres.DB
	Cache   *valkey.Cache

	// OpenAPIPath locates the document served at /docs/openapi.yaml.
	OpenAPIPath string
}
