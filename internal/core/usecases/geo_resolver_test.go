package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/midzapp/midz/internal/core/domain"
	"github.com/midzapp/midz/internal/core/usecases"
)

func TestGeoResolver_EmptyAddress(t *testing.T) {
	geo := &mockGeocoder{}
	r := usecases.NewGeoResolver(geo)

	_, err := r.Resolve(context.Background(), "   ")
	if !errors.Is(err, usecases.ErrEmptyAddress) {
		t.Fatalf("expected ErrEmptyAddress, got %v", err)
	}
	if geo.forwardCalls.Load() != 0 {
		t.Error("geocoder must not be called for an empty address")
	}
}

func TestGeoResolver_FirstMatch(t *testing.T) {
	geo := &mockGeocoder{
		forwardFn: func(ctx context.Context, address string) ([]domain.GeoPoint, error) {
			return []domain.GeoPoint{{Lat: 43.263, Lon: -2.935}, {Lat: 40.0, Lon: -3.7}}, nil
		},
	}
	r := usecases.NewGeoResolver(geo)

	p, err := r.Resolve(context.Background(), "Plaza Moyua, Bilbao")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != (domain.GeoPoint{Lat: 43.263, Lon: -2.935}) {
		t.Errorf("expected first match, got %v", p)
	}
	if geo.forwardCalls.Load() != 1 {
		t.Errorf("expected exactly 1 geocoding request, got %d", geo.forwardCalls.Load())
	}
}

func TestGeoResolver_SkipsInvalidMatch(t *testing.T) {
	geo := &mockGeocoder{
		forwardFn: func(ctx context.Context, address string) ([]domain.GeoPoint, error) {
			return []domain.GeoPoint{{Lat: 123, Lon: 0}, {Lat: 1, Lon: 2}}, nil
		},
	}
	p, err := usecases.NewGeoResolver(geo).Resolve(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != (domain.GeoPoint{Lat: 1, Lon: 2}) {
		t.Errorf("expected the valid match, got %v", p)
	}
}

func TestGeoResolver_NotFound(t *testing.T) {
	r := usecases.NewGeoResolver(&mockGeocoder{})

	_, err := r.Resolve(context.Background(), "Atlantis")
	var rf *domain.ResolutionFailure
	if !errors.As(err, &rf) {
		t.Fatalf("expected ResolutionFailure, got %v", err)
	}
	if rf.Reason != domain.ReasonNotFound {
		t.Errorf("expected not_found, got %s", rf.Reason)
	}
}

func TestGeoResolver_ServiceError(t *testing.T) {
	boom := errors.New("503 service unavailable")
	geo := &mockGeocoder{
		forwardFn: func(ctx context.Context, address string) ([]domain.GeoPoint, error) {
			return nil, boom
		},
	}

	_, err := usecases.NewGeoResolver(geo).Resolve(context.Background(), "Gran Via 1")
	var rf *domain.ResolutionFailure
	if !errors.As(err, &rf) {
		t.Fatalf("expected ResolutionFailure, got %v", err)
	}
	if rf.Reason != domain.ReasonServiceError {
		t.Errorf("expected service_error, got %s", rf.Reason)
	}
	if !errors.Is(err, boom) {
		t.Error("expected the service error to be wrapped")
	}
	if geo.forwardCalls.Load() != 1 {
		t.Errorf("resolver must not retry, got %d calls", geo.forwardCalls.Load())
	}
}

func TestGeoResolver_ReverseLocality(t *testing.T) {
	r := usecases.NewGeoResolver(&mockGeocoder{reverseFn: everywhereIs(" Bilbao ")})
	loc, err := r.ReverseLocality(context.Background(), domain.GeoPoint{Lat: 43.26, Lon: -2.93})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc != "Bilbao" {
		t.Errorf("expected Bilbao, got %q", loc)
	}
}
