package usecases

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/midzapp/midz/internal/core/domain"
	"github.com/midzapp/midz/internal/core/ports"
	"github.com/midzapp/midz/internal/pkg/geospatial"
	"github.com/midzapp/midz/internal/pkg/logging"
	"github.com/midzapp/midz/internal/pkg/metrics"
)

const (
	// DefaultMaxVenues caps a ranked list when no other limit is configured.
	DefaultMaxVenues = 10
	// DefaultSearchRadiusMeters scopes the venue search when no radius is given.
	DefaultSearchRadiusMeters = 5000.0
)

// VenueRanker merges saved-board places and live search results into one
// list ordered by distance from the meeting point.
type VenueRanker struct {
	resolver   *GeoResolver
	searcher   ports.VenueSearcher
	maxResults int
}

// NewVenueRanker creates a new VenueRanker. maxResults <= 0 uses DefaultMaxVenues.
func NewVenueRanker(resolver *GeoResolver, searcher ports.VenueSearcher, maxResults int) *VenueRanker {
	if maxResults <= 0 {
		maxResults = DefaultMaxVenues
	}
	return &VenueRanker{resolver: resolver, searcher: searcher, maxResults: maxResults}
}

// Rank returns at most maxResults venues sorted ascending by distance from
// meeting. Equal distances keep generation order: saved venues first, then
// searched ones. Venues outside radiusMeters are dropped (0 disables the
// filter), as are saved places whose address cannot be geocoded and the whole
// search source if the search fails.
func (r *VenueRanker) Rank(ctx context.Context, meeting domain.MeetingPoint, activity string, saved []domain.SavedVenue, radiusMeters float64) []domain.Venue {
	var (
		g        errgroup.Group
		fromSave []domain.Venue
		fromFind []domain.Venue
	)

	g.Go(func() error {
		fromSave = r.savedVenues(ctx, saved)
		return nil
	})
	g.Go(func() error {
		fromFind = r.searchedVenues(ctx, meeting.Point, activity, radiusMeters)
		return nil
	})
	_ = g.Wait()

	all := make([]domain.Venue, 0, len(fromSave)+len(fromFind))
	all = append(all, fromSave...)
	all = append(all, fromFind...)

	ranked := all[:0]
	for _, v := range all {
		v.Distance = geospatial.Distance(meeting.Point, v.Location)
		if radiusMeters > 0 && v.Distance > radiusMeters {
			continue
		}
		v.DistanceLabel = geospatial.FormatDistance(v.Distance)
		ranked = append(ranked, v)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Distance < ranked[j].Distance
	})

	if len(ranked) > r.maxResults {
		ranked = ranked[:r.maxResults]
	}

	metrics.VenuesReturned.Observe(float64(len(ranked)))
	return ranked
}

// savedVenues geocodes saved places concurrently, at most
// MaxConcurrentLookups at a time. Results keep input order.
func (r *VenueRanker) savedVenues(ctx context.Context, saved []domain.SavedVenue) []domain.Venue {
	slots := make([]*domain.Venue, len(saved))

	var g errgroup.Group
	g.SetLimit(MaxConcurrentLookups)
	for i, s := range saved {
		if s.Address == "" {
			continue
		}
		g.Go(func() error {
			point, err := r.resolver.Resolve(ctx, s.Address)
			if err != nil {
				logging.FromContext(ctx).Debug("dropping saved venue", "name", s.Name, "error", err)
				return nil
			}
			slots[i] = &domain.Venue{
				Name:     s.Name,
				Category: s.BoardName,
				Location: point,
				Source:   domain.VenueSourceSaved,
				Address:  s.Address,
				Color:    s.Color,
				Emoji:    s.Emoji,
			}
			return nil
		})
	}
	_ = g.Wait()

	venues := make([]domain.Venue, 0, len(saved))
	for _, v := range slots {
		if v != nil {
			venues = append(venues, *v)
		}
	}
	return venues
}

func (r *VenueRanker) searchedVenues(ctx context.Context, center domain.GeoPoint, activity string, radiusMeters float64) []domain.Venue {
	if activity == "" {
		return nil
	}
	if radiusMeters <= 0 {
		radiusMeters = DefaultSearchRadiusMeters
	}

	candidates, err := r.searcher.Search(ctx, activity, center, radiusMeters)
	if err != nil {
		logging.FromContext(ctx).Warn("venue search failed", "activity", activity, "error", err)
		return nil
	}

	venues := make([]domain.Venue, 0, len(candidates))
	for _, c := range candidates {
		if !c.Location.Valid() {
			continue
		}
		venues = append(venues, domain.Venue{
			Name:     c.Name,
			Category: c.Category,
			Location: c.Location,
			Source:   domain.VenueSourceSearched,
			Address:  c.Address,
		})
	}
	return venues
}
