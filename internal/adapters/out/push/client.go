// Package push implements the push-notification gateway client delivering
// offer notifications to drivers. Delivery reliability is the gateway's
// concern; the offer protocol never depends on a push arriving.
package push

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

// Client calls the push gateway. Implements ports.PushGateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a push gateway client for the given base URL.
func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		return nil, errs.NewValueIsRequiredError("baseURL")
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}, nil
}

type notificationRequest struct {
	Token string            `json:"token"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Enqueue hands the notification to the gateway for delivery.
func (c *Client) Enqueue(ctx context.Context, notification ports.Notification) error {
	if notification.Token == "" {
		return errs.NewValueIsRequiredError("notification token")
	}

	body := notificationRequest{
		Token: notification.Token,
		Title: notification.Title,
		Body:  notification.Body,
		Data:  notification.Data,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/notifications", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}

	return nil
}
