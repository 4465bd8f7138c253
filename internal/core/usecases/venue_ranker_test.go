package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/midzapp/midz/internal/core/domain"
	"github.com/midzapp/midz/internal/core/usecases"
)

var bilbao = domain.MeetingPoint{Point: domain.GeoPoint{Lat: 43.2630, Lon: -2.9350}, Locality: "Bilbao"}

func candidatesAt(points ...domain.GeoPoint) func(ctx context.Context, q string, c domain.GeoPoint, r float64) ([]domain.VenueCandidate, error) {
	return func(ctx context.Context, q string, c domain.GeoPoint, r float64) ([]domain.VenueCandidate, error) {
		out := make([]domain.VenueCandidate, len(points))
		for i, p := range points {
			out[i] = domain.VenueCandidate{Name: fmt.Sprintf("Place %d", i), Location: p, Category: q}
		}
		return out, nil
	}
}

func TestVenueRanker_SortedAscending(t *testing.T) {
	search := &mockSearcher{searchFn: candidatesAt(
		domain.GeoPoint{Lat: 43.2800, Lon: -2.9350},
		domain.GeoPoint{Lat: 43.2640, Lon: -2.9350},
		domain.GeoPoint{Lat: 43.2700, Lon: -2.9350},
	)}
	r := usecases.NewVenueRanker(usecases.NewGeoResolver(&mockGeocoder{}), search, 10)

	venues := r.Rank(context.Background(), bilbao, "coffee", nil, 5000)
	if len(venues) != 3 {
		t.Fatalf("expected 3 venues, got %d", len(venues))
	}
	for i := 1; i < len(venues); i++ {
		if venues[i-1].Distance > venues[i].Distance {
			t.Errorf("venues not sorted: %f > %f", venues[i-1].Distance, venues[i].Distance)
		}
	}
	if venues[0].Name != "Place 1" {
		t.Errorf("expected Place 1 first, got %s", venues[0].Name)
	}
	if venues[0].DistanceLabel == "" {
		t.Error("expected a distance label")
	}
	if venues[0].Source != domain.VenueSourceSearched {
		t.Errorf("expected searched source, got %s", venues[0].Source)
	}
}

func TestVenueRanker_CapsResults(t *testing.T) {
	var points []domain.GeoPoint
	for i := 0; i < 25; i++ {
		points = append(points, domain.GeoPoint{Lat: 43.2630 + float64(i)*0.001, Lon: -2.9350})
	}
	r := usecases.NewVenueRanker(usecases.NewGeoResolver(&mockGeocoder{}), &mockSearcher{searchFn: candidatesAt(points...)}, 0)

	venues := r.Rank(context.Background(), bilbao, "bar", nil, 0)
	if len(venues) != usecases.DefaultMaxVenues {
		t.Errorf("expected %d venues, got %d", usecases.DefaultMaxVenues, len(venues))
	}
}

func TestVenueRanker_SavedBeforeSearchedOnTie(t *testing.T) {
	spot := domain.GeoPoint{Lat: 43.2650, Lon: -2.9340}
	geo := &mockGeocoder{forwardFn: addressBook(map[string]domain.GeoPoint{"Calle Licenciado Poza 10": spot})}
	search := &mockSearcher{searchFn: candidatesAt(spot)}
	r := usecases.NewVenueRanker(usecases.NewGeoResolver(geo), search, 10)

	saved := []domain.SavedVenue{{Name: "Pintxo bar", Address: "Calle Licenciado Poza 10", BoardName: "Food", Emoji: "🍤", Color: "#ff9900"}}
	venues := r.Rank(context.Background(), bilbao, "bar", saved, 5000)
	if len(venues) != 2 {
		t.Fatalf("expected 2 venues, got %d", len(venues))
	}
	if venues[0].Distance != venues[1].Distance {
		t.Fatalf("expected a tie, got %f and %f", venues[0].Distance, venues[1].Distance)
	}
	if venues[0].Source != domain.VenueSourceSaved || venues[1].Source != domain.VenueSourceSearched {
		t.Errorf("expected saved before searched, got %s then %s", venues[0].Source, venues[1].Source)
	}
	if venues[0].Category != "Food" || venues[0].Emoji != "🍤" {
		t.Errorf("saved venue lost board details: %+v", venues[0])
	}
}

func TestVenueRanker_DropsUngeocodableSaved(t *testing.T) {
	geo := &mockGeocoder{
		forwardFn: func(ctx context.Context, address string) ([]domain.GeoPoint, error) {
			switch address {
			case "good":
				return []domain.GeoPoint{{Lat: 43.2640, Lon: -2.9350}}, nil
			case "broken":
				return nil, errors.New("upstream 500")
			}
			return nil, nil
		},
	}
	r := usecases.NewVenueRanker(usecases.NewGeoResolver(geo), &mockSearcher{}, 10)

	saved := []domain.SavedVenue{
		{Name: "Unknown", Address: "nowhere"},
		{Name: "Good", Address: "good"},
		{Name: "Broken", Address: "broken"},
		{Name: "Empty"},
	}
	venues := r.Rank(context.Background(), bilbao, "", saved, 5000)
	if len(venues) != 1 || venues[0].Name != "Good" {
		t.Fatalf("expected only Good, got %+v", venues)
	}
}

func TestVenueRanker_SearchFailureKeepsSaved(t *testing.T) {
	geo := &mockGeocoder{forwardFn: addressBook(map[string]domain.GeoPoint{"a": {Lat: 43.2640, Lon: -2.9350}})}
	search := &mockSearcher{
		searchFn: func(ctx context.Context, q string, c domain.GeoPoint, r float64) ([]domain.VenueCandidate, error) {
			return nil, errors.New("overpass timeout")
		},
	}
	r := usecases.NewVenueRanker(usecases.NewGeoResolver(geo), search, 10)

	venues := r.Rank(context.Background(), bilbao, "coffee", []domain.SavedVenue{{Name: "A", Address: "a"}}, 5000)
	if len(venues) != 1 || venues[0].Source != domain.VenueSourceSaved {
		t.Fatalf("expected the saved venue only, got %+v", venues)
	}
}

func TestVenueRanker_NoActivitySkipsSearch(t *testing.T) {
	search := &mockSearcher{}
	r := usecases.NewVenueRanker(usecases.NewGeoResolver(&mockGeocoder{}), search, 10)

	venues := r.Rank(context.Background(), bilbao, "", nil, 5000)
	if len(venues) != 0 {
		t.Errorf("expected no venues, got %d", len(venues))
	}
	if search.callCount() != 0 {
		t.Error("search must not run without an activity")
	}
}

func TestVenueRanker_RadiusFilter(t *testing.T) {
	near := domain.GeoPoint{Lat: 43.2640, Lon: -2.9350}
	far := domain.GeoPoint{Lat: 43.4000, Lon: -2.9350}
	geo := &mockGeocoder{forwardFn: addressBook(map[string]domain.GeoPoint{"far away": far})}
	r := usecases.NewVenueRanker(usecases.NewGeoResolver(geo), &mockSearcher{searchFn: candidatesAt(near, far)}, 10)

	venues := r.Rank(context.Background(), bilbao, "coffee", []domain.SavedVenue{{Name: "Far", Address: "far away"}}, 5000)
	if len(venues) != 1 {
		t.Fatalf("expected 1 venue within radius, got %d", len(venues))
	}
	if venues[0].Distance > 5000 {
		t.Errorf("venue outside radius: %f", venues[0].Distance)
	}
}

func TestVenueRanker_BoundsSavedLookups(t *testing.T) {
	var gauge concurrencyGauge
	geo := &mockGeocoder{forwardFn: slowEverywhere(&gauge, 10*time.Millisecond, bilbao.Point)}
	r := usecases.NewVenueRanker(usecases.NewGeoResolver(geo), &mockSearcher{}, 50)

	saved := make([]domain.SavedVenue, 20)
	for i := range saved {
		saved[i] = domain.SavedVenue{Name: fmt.Sprintf("Spot %d", i), Address: fmt.Sprintf("Street %d", i), BoardName: "Pintxos"}
	}

	venues := r.Rank(context.Background(), bilbao, "", saved, 0)
	if len(venues) != 20 {
		t.Fatalf("expected every saved venue, got %d", len(venues))
	}
	if peak := gauge.peak.Load(); peak > usecases.MaxConcurrentLookups {
		t.Errorf("expected at most %d lookups in flight, saw %d", usecases.MaxConcurrentLookups, peak)
	}
	if venues[0].Name != "Spot 0" || venues[19].Name != "Spot 19" {
		t.Errorf("equal distances should keep input order, got %q ... %q", venues[0].Name, venues[19].Name)
	}
}
