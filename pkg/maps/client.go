package maps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/mesaviva/mesaviva-backend/pkg/errors"
	"github.com/mesaviva/mesaviva-backend/pkg/geo"
)

const (
	defaultBaseURL             = "https://routes.googleapis.com"
	routesFieldMask            = "routes.distanceMeters,routes.duration"
	requestBodyReadLimit int64 = 1024
)

var errAPIKeyRequired = errors.New("google maps api key is required")

// Client wraps the Google Routes API used to refine driving distance. The
// tracking core only needs meters between two points; when no key is
// configured the caller falls back to great-circle distance.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured Routes base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the routing client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

type waypoint struct {
	Location struct {
		LatLng struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"latLng"`
	} `json:"location"`
}

type computeRoutesRequest struct {
	Origin      waypoint `json:"origin"`
	Destination waypoint `json:"destination"`
	TravelMode  string   `json:"travelMode"`
}

func makeWaypoint(point geo.LatLng) waypoint {
	var w waypoint
	w.Location.LatLng.Latitude = point.Lat
	w.Location.LatLng.Longitude = point.Lng
	return w
}

// Distance implements geo.Distancer using the Routes computeRoutes endpoint.
func (c *Client) Distance(ctx context.Context, from, to geo.LatLng) (float64, error) {
	if c == nil {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "maps client not configured")
	}

	payload, err := json.Marshal(computeRoutesRequest{
		Origin:      makeWaypoint(from),
		Destination: makeWaypoint(to),
		TravelMode:  "DRIVE",
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal routes request")
	}

	url := fmt.Sprintf("%s/directions/v2:computeRoutes", strings.TrimRight(c.baseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build routes request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", c.apiKey)
	httpReq.Header.Set("X-Goog-FieldMask", routesFieldMask)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute routes request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "routes request failed")
	}

	var apiResp struct {
		Routes []struct {
			DistanceMeters float64 `json:"distanceMeters"`
		} `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode routes response")
	}
	if len(apiResp.Routes) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "routes response contained no routes")
	}

	return apiResp.Routes[0].DistanceMeters, nil
}

// WithFallback returns a Distancer that degrades to the fallback when the
// routing service fails. Tracking must keep producing distances offline.
func WithFallback(primary, fallback geo.Distancer) geo.Distancer {
	return geo.DistancerFunc(func(ctx context.Context, from, to geo.LatLng) (float64, error) {
		if primary == nil {
			return fallback.Distance(ctx, from, to)
		}
		meters, err := primary.Distance(ctx, from, to)
		if err != nil && fallback != nil {
			return fallback.Distance(ctx, from, to)
		}
		return meters, err
	})
}
