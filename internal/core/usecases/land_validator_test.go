package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/midzapp/midz/internal/core/domain"
	"github.com/midzapp/midz/internal/core/usecases"
)

func TestLandValidator_LocalityKeepsPoint(t *testing.T) {
	search := &mockSearcher{}
	v := usecases.NewLandValidator(
		usecases.NewGeoResolver(&mockGeocoder{reverseFn: everywhereIs("Barakaldo")}),
		search, "restaurant", 50000,
	)
	p := domain.GeoPoint{Lat: 43.297, Lon: -2.988}

	mp := v.Validate(context.Background(), p)
	if mp.Adjusted {
		t.Error("expected adjusted=false for a point with a locality")
	}
	if mp.Point != p {
		t.Errorf("expected point unchanged, got %v", mp.Point)
	}
	if mp.Locality != "Barakaldo" {
		t.Errorf("expected locality Barakaldo, got %q", mp.Locality)
	}
	if search.callCount() != 0 {
		t.Error("search must not run when the point is on land")
	}
}

func TestLandValidator_MovesToNearestCandidate(t *testing.T) {
	water := domain.GeoPoint{Lat: 37.70, Lon: -122.35}
	near := domain.GeoPoint{Lat: 37.71, Lon: -122.38}
	far := domain.GeoPoint{Lat: 37.80, Lon: -122.27}

	geo := &mockGeocoder{
		reverseFn: func(ctx context.Context, p domain.GeoPoint) (string, error) {
			if p == water {
				return "", nil
			}
			return "San Francisco", nil
		},
	}
	search := &mockSearcher{
		searchFn: func(ctx context.Context, query string, center domain.GeoPoint, radius float64) ([]domain.VenueCandidate, error) {
			return []domain.VenueCandidate{
				{Name: "Far", Location: far},
				{Name: "Near", Location: near},
			}, nil
		},
	}
	v := usecases.NewLandValidator(usecases.NewGeoResolver(geo), search, "restaurant", 50000)

	mp := v.Validate(context.Background(), water)
	if !mp.Adjusted {
		t.Error("expected adjusted=true")
	}
	if mp.Point != near {
		t.Errorf("expected nearest candidate %v, got %v", near, mp.Point)
	}

	loc, _ := geo.Reverse(context.Background(), mp.Point)
	if loc == "" {
		t.Error("adjusted point should resolve to a locality")
	}

	search.mu.Lock()
	defer search.mu.Unlock()
	if len(search.calls) != 1 {
		t.Fatalf("expected 1 search, got %d", len(search.calls))
	}
	if c := search.calls[0]; c.query != "restaurant" || c.radius != 50000 || c.center != water {
		t.Errorf("unexpected search call: %+v", c)
	}
}

func TestLandValidator_DegradesToOriginalPoint(t *testing.T) {
	tests := []struct {
		name    string
		reverse func(ctx context.Context, p domain.GeoPoint) (string, error)
		search  func(ctx context.Context, q string, c domain.GeoPoint, r float64) ([]domain.VenueCandidate, error)
	}{
		{
			name:    "nothing found",
			reverse: everywhereIs(""),
		},
		{
			name: "both services fail",
			reverse: func(ctx context.Context, p domain.GeoPoint) (string, error) {
				return "", errors.New("reverse down")
			},
			search: func(ctx context.Context, q string, c domain.GeoPoint, r float64) ([]domain.VenueCandidate, error) {
				return nil, errors.New("search down")
			},
		},
		{
			name:    "only invalid candidates",
			reverse: everywhereIs(""),
			search: func(ctx context.Context, q string, c domain.GeoPoint, r float64) ([]domain.VenueCandidate, error) {
				return []domain.VenueCandidate{{Name: "bad", Location: domain.GeoPoint{Lat: 95}}}, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := domain.GeoPoint{Lat: 0, Lon: -140}
			v := usecases.NewLandValidator(
				usecases.NewGeoResolver(&mockGeocoder{reverseFn: tt.reverse}),
				&mockSearcher{searchFn: tt.search}, "restaurant", 50000,
			)

			mp := v.Validate(context.Background(), p)
			if mp.Point != p {
				t.Errorf("expected original point, got %v", mp.Point)
			}
			if !mp.Adjusted {
				t.Error("expected adjusted=true for an unvalidated point")
			}
		})
	}
}

func TestLandValidator_SkipsSearchWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	search := &mockSearcher{}
	v := usecases.NewLandValidator(
		usecases.NewGeoResolver(&mockGeocoder{reverseFn: everywhereIs("")}),
		search, "restaurant", 50000,
	)

	mp := v.Validate(ctx, domain.GeoPoint{Lat: 1, Lon: 1})
	if !mp.Adjusted {
		t.Error("expected adjusted=true")
	}
	if search.callCount() != 0 {
		t.Error("search must not run after cancellation")
	}
}
