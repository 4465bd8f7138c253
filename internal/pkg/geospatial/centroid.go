package geospatial

import (
	"errors"
	"math"
	"sort"

	"github.com/midzapp/midz/internal/core/domain"
)

// ErrNoPoints is returned by Centroid for an empty input.
var ErrNoPoints = errors.New("centroid of zero points")

// minRegionSpan is the smallest map span in degrees.
const minRegionSpan = 0.1

// Centroid returns the spherical centroid of the points: each point becomes a
// unit vector, the vectors are averaged, and the mean is projected back to
// latitude/longitude. A single point is returned unchanged. Antipodal inputs
// produce a well-defined but meaningless point.
func Centroid(points []domain.GeoPoint) (domain.GeoPoint, error) {
	switch len(points) {
	case 0:
		return domain.GeoPoint{}, ErrNoPoints
	case 1:
		return points[0], nil
	}

	var x, y, z float64
	for _, p := range points {
		lat, lon := toRad(p.Lat), toRad(p.Lon)
		x += math.Cos(lat) * math.Cos(lon)
		y += math.Cos(lat) * math.Sin(lon)
		z += math.Sin(lat)
	}
	n := float64(len(points))
	x, y, z = x/n, y/n, z/n

	lon := math.Atan2(y, x)
	lat := math.Atan2(z, math.Sqrt(x*x+y*y))

	return clamp(domain.GeoPoint{Lat: toDeg(lat), Lon: toDeg(lon)}), nil
}

// Region returns a map region centred on center that frames all points, with
// each span twice the points' extent, never below 0.1 degrees and never above
// the whole globe. Longitude extent is measured the short way round, so points
// either side of the antimeridian give a narrow span.
func Region(center domain.GeoPoint, points []domain.GeoPoint) domain.MapRegion {
	if len(points) == 0 {
		points = []domain.GeoPoint{center}
	}

	minLat, maxLat := points[0].Lat, points[0].Lat
	lons := make([]float64, 0, len(points))
	for _, p := range points {
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
		lons = append(lons, p.Lon)
	}

	return domain.MapRegion{
		Center:   center,
		LatDelta: math.Min(math.Max((maxLat-minLat)*2, minRegionSpan), 180),
		LonDelta: math.Min(math.Max(lonExtent(lons)*2, minRegionSpan), 360),
	}
}

// lonExtent is the width of the narrowest longitude band holding every value:
// the full circle minus the widest gap between neighbouring longitudes.
func lonExtent(lons []float64) float64 {
	sort.Float64s(lons)
	widest := lons[0] + 360 - lons[len(lons)-1]
	for i := 1; i < len(lons); i++ {
		widest = math.Max(widest, lons[i]-lons[i-1])
	}
	return 360 - widest
}

// clamp guards against float drift just outside the valid range.
func clamp(p domain.GeoPoint) domain.GeoPoint {
	p.Lat = math.Max(-90, math.Min(90, p.Lat))
	p.Lon = math.Max(-180, math.Min(180, p.Lon))
	return p
}
