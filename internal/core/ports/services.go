package ports

import (
	"context"

	"github.com/midzapp/midz/internal/core/domain"
)

// Geocoder converts between addresses and coordinates.
type Geocoder interface {
	// Forward returns candidate coordinates for an address, best match first.
	// An empty slice with a nil error means nothing matched.
	Forward(ctx context.Context, address string) ([]domain.GeoPoint, error)
	// Reverse returns the locality name at a point, or "" if there is none.
	Reverse(ctx context.Context, point domain.GeoPoint) (string, error)
}

// VenueSearcher runs free-text place searches around a point.
type VenueSearcher interface {
	Search(ctx context.Context, query string, center domain.GeoPoint, radiusMeters float64) ([]domain.VenueCandidate, error)
}

// EventPublisher publishes planning events to a message broker.
type EventPublisher interface {
	PublishPlanCompleted(ctx context.Context, result *domain.PlanResult) error
	PublishPlanFailed(ctx context.Context, sessionID, reason string) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
