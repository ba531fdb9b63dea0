package maps

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mesaviva/mesaviva-backend/pkg/geo"
)

func TestNewClientRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewClient("  "); err == nil {
		t.Fatal("expected error for empty api key")
	}
}

func TestDistanceParsesRoutes(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/directions/v2:computeRoutes" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Goog-Api-Key") == "" {
			t.Error("missing api key header")
		}
		fmt.Fprint(w, `{"routes":[{"distanceMeters":4150,"duration":"600s"}]}`)
	}))
	defer server.Close()

	client, err := NewClient("test-key", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	meters, err := client.Distance(context.Background(), geo.LatLng{Lat: 1, Lng: 2}, geo.LatLng{Lat: 3, Lng: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meters != 4150 {
		t.Fatalf("expected 4150 meters, got %f", meters)
	}
}

func TestDistanceErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := NewClient("test-key", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := client.Distance(context.Background(), geo.LatLng{}, geo.LatLng{}); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestWithFallback(t *testing.T) {
	t.Parallel()

	failing := geo.DistancerFunc(func(ctx context.Context, from, to geo.LatLng) (float64, error) {
		return 0, fmt.Errorf("routing down")
	})

	d := WithFallback(failing, geo.HaversineDistancer())
	meters, err := d.Distance(context.Background(), geo.LatLng{Lat: 19.4326, Lng: -99.1332}, geo.LatLng{Lat: 19.4270, Lng: -99.1677})
	if err != nil {
		t.Fatalf("fallback should have absorbed the error: %v", err)
	}
	if meters <= 0 {
		t.Fatalf("expected positive fallback distance, got %f", meters)
	}
}
