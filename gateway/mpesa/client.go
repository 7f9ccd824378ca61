package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"glowdesk/config"
)

// Gateway triggers STK pushes and reports payment status.
type Gateway interface {
	STKPush(ctx context.Context, phone string, amount float64, reference string) (*STKPushResponse, error)
	QueryStatus(ctx context.Context, checkoutRequestID string) (*StatusResponse, error)
}

// STKPushResponse is the gateway reply to a push request. CheckoutRequestID
// is the opaque handle used for all subsequent status polling; its absence
// means the push cannot be tracked.
type STKPushResponse struct {
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResponseCode      string `json:"ResponseCode"`
	CustomerMessage   string `json:"CustomerMessage"`
}

// StatusResponse is one payment status poll result.
type StatusResponse struct {
	Status  string          `json:"status"`
	Payment json.RawMessage `json:"payment,omitempty"`
}

// DarajaClient talks to the Safaricom Daraja API (or a compatible proxy).
type DarajaClient struct {
	BaseURL    string
	ShortCode  string
	Passkey    string
	HTTPClient *http.Client
}

// NewDarajaClient builds a client from the loaded app config.
func NewDarajaClient() *DarajaClient {
	return &DarajaClient{
		BaseURL:    config.AppConfig.MpesaBaseURL,
		ShortCode:  config.AppConfig.MpesaShortCode,
		Passkey:    config.AppConfig.MpesaPasskey,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// STKPush triggers a mobile-money prompt on the recipient's phone.
func (c *DarajaClient) STKPush(ctx context.Context, phone string, amount float64, reference string) (*STKPushResponse, error) {
	timestamp := time.Now().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(c.ShortCode + c.Passkey + timestamp))

	payload := map[string]interface{}{
		"BusinessShortCode": c.ShortCode,
		"Password":          password,
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            amount,
		"PartyA":            phone,
		"PartyB":            c.ShortCode,
		"PhoneNumber":       phone,
		"AccountReference":  reference,
		"TransactionDesc":   "Booking deposit",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stk push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build stk push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stk push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("stk push gateway error: status %d", resp.StatusCode)
	}

	var pushResp STKPushResponse
	if err := json.NewDecoder(resp.Body).Decode(&pushResp); err != nil {
		return nil, fmt.Errorf("failed to decode stk push response: %w", err)
	}
	return &pushResp, nil
}

// QueryStatus fetches the current status of a tracked push.
func (c *DarajaClient) QueryStatus(ctx context.Context, checkoutRequestID string) (*StatusResponse, error) {
	url := fmt.Sprintf("%s/mpesa/status/%s", c.BaseURL, checkoutRequestID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment status query returned status %d", resp.StatusCode)
	}

	var statusResp StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&statusResp); err != nil {
		return nil, fmt.Errorf("failed to decode payment status response: %w", err)
	}
	return &statusResp, nil
}
