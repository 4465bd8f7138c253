package usecases

import (
	"context"
	"errors"
	"strings"

	"github.com/midzapp/midz/internal/core/domain"
	"github.com/midzapp/midz/internal/core/ports"
	"github.com/midzapp/midz/internal/pkg/metrics"
)

// ErrEmptyAddress is returned when Resolve is called with a blank address.
// Callers are expected to filter these out first.
var ErrEmptyAddress = errors.New("address must not be empty")

// GeoResolver turns addresses into coordinates. It issues exactly one
// geocoding request per call and never retries.
type GeoResolver struct {
	geocoder ports.Geocoder
}

// NewGeoResolver creates a new GeoResolver.
func NewGeoResolver(geocoder ports.Geocoder) *GeoResolver {
	return &GeoResolver{geocoder: geocoder}
}

// Resolve returns the best match for address. Failures are *domain.ResolutionFailure.
func (r *GeoResolver) Resolve(ctx context.Context, address string) (domain.GeoPoint, error) {
	if strings.TrimSpace(address) == "" {
		return domain.GeoPoint{}, ErrEmptyAddress
	}

	points, err := r.geocoder.Forward(ctx, address)
	if err != nil {
		metrics.GeocodeRequests.WithLabelValues("forward", "error").Inc()
		return domain.GeoPoint{}, &domain.ResolutionFailure{Address: address, Reason: domain.ReasonServiceError, Err: err}
	}

	for _, p := range points {
		if p.Valid() {
			metrics.GeocodeRequests.WithLabelValues("forward", "found").Inc()
			return p, nil
		}
	}

	metrics.GeocodeRequests.WithLabelValues("forward", "not_found").Inc()
	return domain.GeoPoint{}, &domain.ResolutionFailure{Address: address, Reason: domain.ReasonNotFound}
}

// ReverseLocality returns the locality name at point; "" means the point is
// not inside any named place.
func (r *GeoResolver) ReverseLocality(ctx context.Context, point domain.GeoPoint) (string, error) {
	locality, err := r.geocoder.Reverse(ctx, point)
	if err != nil {
		metrics.GeocodeRequests.WithLabelValues("reverse", "error").Inc()
		return "", err
	}
	if locality == "" {
		metrics.GeocodeRequests.WithLabelValues("reverse", "not_found").Inc()
	} else {
		metrics.GeocodeRequests.WithLabelValues("reverse", "found").Inc()
	}
	return strings.TrimSpace(locality), nil
}
