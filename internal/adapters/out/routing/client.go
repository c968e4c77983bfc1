// Package routing implements the geospatial routing collaborator client:
// geocoding at order intake and route metrics for pricing, over JSON HTTP.
package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

const requestTimeout = 5 * time.Second

// Client calls the routing collaborator. Implements ports.RoutingClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a routing client for the given base URL.
func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		return nil, errs.NewValueIsRequiredError("baseURL")
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}, nil
}

type geocodeRequest struct {
	Address string `json:"address"`
}

type geocodeResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geocode resolves free-form address text to coordinates.
func (c *Client) Geocode(ctx context.Context, addressText string) (kernel.Location, error) {
	if addressText == "" {
		return kernel.Location{}, errs.NewValueIsRequiredError("addressText")
	}

	var resp geocodeResponse
	if err := c.post(ctx, "/geocode", geocodeRequest{Address: addressText}, &resp); err != nil {
		return kernel.Location{}, fmt.Errorf("geocode %q: %w", addressText, err)
	}

	return kernel.NewLocation(resp.Lat, resp.Lng)
}

type waypointDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type routeRequest struct {
	Waypoints []waypointDTO `json:"waypoints"`
}

type routeResponse struct {
	DistanceMeters  int `json:"distanceMeters"`
	DurationSeconds int `json:"durationSeconds"`
}

// Route computes distance and duration along the given waypoints.
func (c *Client) Route(ctx context.Context, waypoints []kernel.Location) (ports.RouteInfo, error) {
	if len(waypoints) < 2 {
		return ports.RouteInfo{}, errs.NewValueIsRequiredError("at least two waypoints")
	}

	req := routeRequest{Waypoints: make([]waypointDTO, 0, len(waypoints))}
	for _, wp := range waypoints {
		req.Waypoints = append(req.Waypoints, waypointDTO{Lat: wp.Latitude(), Lng: wp.Longitude()})
	}

	var resp routeResponse
	if err := c.post(ctx, "/route", req, &resp); err != nil {
		return ports.RouteInfo{}, fmt.Errorf("route: %w", err)
	}

	return ports.RouteInfo{
		DistanceMeters:  resp.DistanceMeters,
		DurationSeconds: resp.DurationSeconds,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("routing service returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
