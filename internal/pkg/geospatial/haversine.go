package geospatial

import (
	"fmt"
	"math"

	"github.com/midzapp/midz/internal/core/domain"
)

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// Distance is Haversine over two GeoPoints.
func Distance(a, b domain.GeoPoint) float64 {
	return Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

// BoundingBox returns a bounding box around a point with the given radius in meters.
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	latDelta := radiusMeters / 111320.0
	lonDelta := radiusMeters / (111320.0 * math.Cos(toRad(lat)))

	return lat - latDelta, lon - lonDelta, lat + latDelta, lon + lonDelta
}

// Bounds is BoundingBox clamped to valid coordinates.
func Bounds(center domain.GeoPoint, radiusMeters float64) domain.Bounds {
	minLat, minLon, maxLat, maxLon := BoundingBox(center.Lat, center.Lon, radiusMeters)
	return domain.Bounds{
		MinLat: math.Max(minLat, -90),
		MinLon: math.Max(minLon, -180),
		MaxLat: math.Min(maxLat, 90),
		MaxLon: math.Min(maxLon, 180),
	}
}

// FormatDistance renders meters the way the app shows them next to a venue.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%dm from midpoint", int(meters))
	}
	return fmt.Sprintf("%.1fkm from midpoint", meters/1000)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
