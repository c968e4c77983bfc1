// Package pricing implements the pricing collaborator client computing the
// client fee and driver remuneration for a mission at intake.
package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

const requestTimeout = 5 * time.Second

// Client calls the pricing collaborator. Implements ports.PricingClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a pricing client for the given base URL.
func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		return nil, errs.NewValueIsRequiredError("baseURL")
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}, nil
}

type feesRequest struct {
	DistanceMeters  int `json:"distanceMeters"`
	DurationSeconds int `json:"durationSeconds"`
	WeightGrams     int `json:"weightGrams"`
}

type feesResponse struct {
	ClientFee          float64 `json:"clientFee"`
	DriverRemuneration float64 `json:"driverRemuneration"`
}

// CalculateFees prices the mission for the computed route and cargo weight.
func (c *Client) CalculateFees(ctx context.Context, route ports.RouteInfo, weightGrams int) (ports.Fees, error) {
	body := feesRequest{
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		WeightGrams:     weightGrams,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return ports.Fees{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/fees", bytes.NewReader(raw))
	if err != nil {
		return ports.Fees{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.Fees{}, fmt.Errorf("calculate fees: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ports.Fees{}, fmt.Errorf("pricing service returned status %d", resp.StatusCode)
	}

	var decoded feesResponse
	if err = json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.Fees{}, err
	}

	return ports.Fees{
		ClientFee:          decoded.ClientFee,
		DriverRemuneration: decoded.DriverRemuneration,
	}, nil
}
