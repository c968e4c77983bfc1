// Package schedule implements the recurring-availability collaborator
// client. It is consulted when a driver's last assignment completes, to
// decide whether they return to the active pool or go inactive.
package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

const requestTimeout = 5 * time.Second

// Client calls the schedule service. Implements ports.AvailabilityChecker.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a schedule service client for the given base URL.
func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		return nil, errs.NewValueIsRequiredError("baseURL")
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}, nil
}

type availabilityResponse struct {
	Available bool `json:"available"`
}

// IsAvailableNow reports whether the driver's recurring schedule covers the
// given instant.
func (c *Client) IsAvailableNow(ctx context.Context, driverID kernel.UUID, at time.Time) (bool, error) {
	if err := driverID.Validate(); err != nil {
		return false, errs.NewValueIsRequiredError("driverID")
	}

	url := fmt.Sprintf("%s/drivers/%s/availability?at=%s",
		c.baseURL, driverID.String(), at.UTC().Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("check availability: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("schedule service returned status %d", resp.StatusCode)
	}

	var payload availabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, fmt.Errorf("decode availability response: %w", err)
	}

	return payload.Available, nil
}
