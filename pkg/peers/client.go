package peers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client performs best-effort peer queries. Failures carry no side
// effects for the caller beyond treating the peer as untrusted.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a peer client with the given per-request timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetStability queries a peer's stability score.
func (c *Client) GetStability(ctx context.Context, address string) (*StabilityResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address+"/v1/stability", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build stability request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stability query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stability query returned status %d", resp.StatusCode)
	}

	var out StabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode stability response: %w", err)
	}
	return &out, nil
}

// Exchange performs the one-shot information exchange with a peer.
func (c *Client) Exchange(ctx context.Context, address string, payload ExchangeRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal exchange payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, address+"/v1/exchange", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("exchange failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("exchange returned status %d", resp.StatusCode)
	}

	var out ExchangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("failed to decode exchange response: %w", err)
	}
	if !out.Accepted {
		return fmt.Errorf("exchange rejected by peer")
	}
	return nil
}
