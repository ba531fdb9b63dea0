package geo

import (
	"context"
	"math"
)

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Distancer resolves the remaining distance in meters between two points.
// Implementations may call a routing service; Haversine is the zero-dependency
// fallback used when none is configured.
type Distancer interface {
	Distance(ctx context.Context, from, to LatLng) (float64, error)
}

// DistancerFunc adapts a function to the Distancer interface.
type DistancerFunc func(ctx context.Context, from, to LatLng) (float64, error)

// Distance implements Distancer.
func (fn DistancerFunc) Distance(ctx context.Context, from, to LatLng) (float64, error) {
	return fn(ctx, from, to)
}

const earthRadiusMeters = 6371000.0

// Haversine returns the great-circle distance between two points in meters.
func Haversine(from, to LatLng) float64 {
	lat1 := from.Lat * math.Pi / 180
	lat2 := to.Lat * math.Pi / 180
	dLat := (to.Lat - from.Lat) * math.Pi / 180
	dLng := (to.Lng - from.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// HaversineDistancer wraps Haversine as a Distancer.
func HaversineDistancer() Distancer {
	return DistancerFunc(func(_ context.Context, from, to LatLng) (float64, error) {
		return Haversine(from, to), nil
	})
}
