package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/midzapp/midz/internal/core/domain"
	"github.com/midzapp/midz/internal/core/ports"
	"github.com/midzapp/midz/internal/pkg/metrics"
)

// CachedGeocoder is a read-through cache in front of a ports.Geocoder.
// Only successful, non-empty answers are cached.
type CachedGeocoder struct {
	next       ports.Geocoder
	cache      ports.CacheService
	ttlSeconds int
}

// NewCachedGeocoder wraps next. A nil cache disables caching.
func NewCachedGeocoder(next ports.Geocoder, cache ports.CacheService, ttlSeconds int) *CachedGeocoder {
	return &CachedGeocoder{next: next, cache: cache, ttlSeconds: ttlSeconds}
}

// Forward implements ports.Geocoder.
func (g *CachedGeocoder) Forward(ctx context.Context, address string) ([]domain.GeoPoint, error) {
	cacheKey := "geocode:fwd:" + strings.ToLower(strings.Join(strings.Fields(address), " "))
	if g.cache != nil {
		if data, err := g.cache.Get(ctx, cacheKey); err == nil {
			var points []domain.GeoPoint
			if err := json.Unmarshal(data, &points); err == nil {
				metrics.CacheHits.WithLabelValues("geocode_forward").Inc()
				return points, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("geocode_forward").Inc()
	}

	points, err := g.next.Forward(ctx, address)
	if err != nil {
		return nil, err
	}

	if g.cache != nil && len(points) > 0 {
		if data, err := json.Marshal(points); err == nil {
			_ = g.cache.Set(ctx, cacheKey, data, g.ttlSeconds)
		}
	}

	return points, nil
}

// Reverse implements ports.Geocoder.
func (g *CachedGeocoder) Reverse(ctx context.Context, point domain.GeoPoint) (string, error) {
	cacheKey := fmt.Sprintf("geocode:rev:%.4f:%.4f", point.Lat, point.Lon)
	if g.cache != nil {
		if data, err := g.cache.Get(ctx, cacheKey); err == nil && len(data) > 0 {
			metrics.CacheHits.WithLabelValues("geocode_reverse").Inc()
			return string(data), nil
		}
		metrics.CacheMisses.WithLabelValues("geocode_reverse").Inc()
	}

	locality, err := g.next.Reverse(ctx, point)
	if err != nil {
		return "", err
	}

	if g.cache != nil && locality != "" {
		_ = g.cache.Set(ctx, cacheKey, []byte(locality), g.ttlSeconds)
	}

	return locality, nil
}
