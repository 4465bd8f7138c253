package usecases

import (
	"context"
	"math"

	"github.com/midzapp/midz/internal/core/domain"
	"github.com/midzapp/midz/internal/core/ports"
	"github.com/midzapp/midz/internal/pkg/geospatial"
	"github.com/midzapp/midz/internal/pkg/logging"
	"github.com/midzapp/midz/internal/pkg/metrics"
)

// LandValidator decides whether a centroid is usable as a meeting point.
//
// A point that reverse-geocodes to a locality is kept. Otherwise a broad
// point-of-interest search around it is run and the nearest hit becomes the
// meeting point. If that finds nothing too, the original point is returned
// flagged as adjusted. Validate never fails.
type LandValidator struct {
	resolver     *GeoResolver
	searcher     ports.VenueSearcher
	query        string
	radiusMeters float64
}

// NewLandValidator creates a LandValidator. query is the generic category used
// to look for nearby land (e.g. "restaurant").
func NewLandValidator(resolver *GeoResolver, searcher ports.VenueSearcher, query string, radiusMeters float64) *LandValidator {
	return &LandValidator{resolver: resolver, searcher: searcher, query: query, radiusMeters: radiusMeters}
}

// Validate returns the finalized meeting point for point.
func (v *LandValidator) Validate(ctx context.Context, point domain.GeoPoint) domain.MeetingPoint {
	logger := logging.FromContext(ctx)

	locality, err := v.resolver.ReverseLocality(ctx, point)
	if err == nil && locality != "" {
		metrics.MeetingPointsValidated.WithLabelValues("land").Inc()
		return domain.MeetingPoint{Point: point, Locality: locality}
	}
	if err != nil {
		logger.Warn("reverse geocode failed, treating point as unusable", "point", point.String(), "error", err)
	} else {
		logger.Warn("centroid has no locality, searching for nearby land", "point", point.String())
	}

	if ctx.Err() == nil {
		if nearest, ok := v.nearestCandidate(ctx, point); ok {
			metrics.MeetingPointsValidated.WithLabelValues("nearest_poi").Inc()
			logger.Info("meeting point moved to nearest place", "name", nearest.Name, "point", nearest.Location.String())
			return domain.MeetingPoint{Point: nearest.Location, Adjusted: true}
		}
	}

	metrics.MeetingPointsValidated.WithLabelValues("unvalidated").Inc()
	logger.Warn("no land found near centroid, using it unvalidated", "point", point.String())
	return domain.MeetingPoint{Point: point, Adjusted: true}
}

func (v *LandValidator) nearestCandidate(ctx context.Context, point domain.GeoPoint) (domain.VenueCandidate, bool) {
	candidates, err := v.searcher.Search(ctx, v.query, point, v.radiusMeters)
	if err != nil {
		logging.FromContext(ctx).Warn("land search failed", "error", err)
		return domain.VenueCandidate{}, false
	}

	var (
		best     domain.VenueCandidate
		bestDist = math.Inf(1)
		found    bool
	)
	for _, c := range candidates {
		if !c.Location.Valid() {
			continue
		}
		if d := geospatial.Distance(point, c.Location); d < bestDist {
			best, bestDist, found = c, d, true
		}
	}
	return best, found
}
