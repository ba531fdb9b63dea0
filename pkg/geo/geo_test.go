package geo

import (
	"context"
	"math"
	"testing"
)

func TestHaversineZeroDistance(t *testing.T) {
	t.Parallel()

	p := LatLng{Lat: 19.4326, Lng: -99.1332}
	if d := Haversine(p, p); d != 0 {
		t.Fatalf("expected zero distance, got %f", d)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	t.Parallel()

	// Mexico City Zocalo to Angel de la Independencia, roughly 4.1km.
	zocalo := LatLng{Lat: 19.4326, Lng: -99.1332}
	angel := LatLng{Lat: 19.4270, Lng: -99.1677}

	d := Haversine(zocalo, angel)
	if d < 3500 || d > 4500 {
		t.Fatalf("expected ~4km, got %f meters", d)
	}
}

func TestHaversineSymmetry(t *testing.T) {
	t.Parallel()

	a := LatLng{Lat: 19.4326, Lng: -99.1332}
	b := LatLng{Lat: 19.3000, Lng: -99.2000}

	if diff := math.Abs(Haversine(a, b) - Haversine(b, a)); diff > 1e-6 {
		t.Fatalf("distance not symmetric, diff %f", diff)
	}
}

func TestHaversineDistancer(t *testing.T) {
	t.Parallel()

	d := HaversineDistancer()
	got, err := d.Distance(context.Background(), LatLng{}, LatLng{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected zero distance, got %f", got)
	}
}
