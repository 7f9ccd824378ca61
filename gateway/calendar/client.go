package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"glowdesk/config"
	"glowdesk/models"
)

// Client creates external calendar events for confirmed bookings.
type Client interface {
	CreateEvent(ctx context.Context, booking *models.Booking) (string, error)
}

// HTTPClient is the production calendar client.
type HTTPClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewHTTPClient builds a client from the loaded app config.
func NewHTTPClient() *HTTPClient {
	return &HTTPClient{
		BaseURL:    config.AppConfig.CalendarBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type createEventRequest struct {
	Summary   string    `json:"summary"`
	Start     time.Time `json:"start"`
	BookingID string    `json:"bookingId"`
}

type createEventResponse struct {
	EventID string `json:"eventId"`
}

// CreateEvent pushes a booking to the external calendar and returns the
// created event ID.
func (c *HTTPClient) CreateEvent(ctx context.Context, booking *models.Booking) (string, error) {
	payload := createEventRequest{
		Summary:   fmt.Sprintf("%s - %s", booking.Service, booking.RecipientName),
		Start:     booking.DateTime,
		BookingID: booking.ID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal calendar event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/calendar/events", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build calendar request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calendar request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("calendar service returned status %d", resp.StatusCode)
	}

	var eventResp createEventResponse
	if err := json.NewDecoder(resp.Body).Decode(&eventResp); err != nil {
		return "", fmt.Errorf("failed to decode calendar response: %w", err)
	}
	if eventResp.EventID == "" {
		return "", fmt.Errorf("calendar service returned no event id")
	}
	return eventResp.EventID, nil
}
