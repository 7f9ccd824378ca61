package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"glowdesk/config"
	"glowdesk/models"
)

// Client fetches authoritative availability for a date and service.
type Client interface {
	AvailableHours(ctx context.Context, date, service string) ([]models.AvailabilitySlot, error)
}

// HTTPClient is the production availability client.
type HTTPClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewHTTPClient builds a client from the loaded app config.
func NewHTTPClient() *HTTPClient {
	return &HTTPClient{
		BaseURL:    config.AppConfig.AvailabilityBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// AvailableHours queries the availability service for bookable slots on a
// date, optionally scoped to a service.
func (c *HTTPClient) AvailableHours(ctx context.Context, date, service string) ([]models.AvailabilitySlot, error) {
	endpoint := fmt.Sprintf("%s/bookings/available-hours/%s", c.BaseURL, date)
	if service != "" {
		endpoint += "?service=" + url.QueryEscape(service)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build availability request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("availability request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("availability service returned status %d", resp.StatusCode)
	}

	var slots []models.AvailabilitySlot
	if err := json.NewDecoder(resp.Body).Decode(&slots); err != nil {
		return nil, fmt.Errorf("failed to decode availability response: %w", err)
	}
	return slots, nil
}
