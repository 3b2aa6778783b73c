package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// userAgent identifies the collector to the relay operator.
const userAgent = "BZCC-Collector/1.0 (+https://github.com/bz2vsr/battlezone-combat-commander)"

// Client fetches lobby list snapshots from the configured relay endpoint.
type Client struct {
	http *http.Client
	url  string
}

// NewClient creates a relay client with a bounded request timeout.
// A timed-out fetch is reported as an error and costs only the current tick.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

// Fetch performs one GET against the relay and decodes the payload. Non-2xx
// responses and malformed JSON are both fetch failures, never a crash. The
// raw body is returned alongside the payload for change detection.
func (c *Client) Fetch(ctx context.Context) (*Payload, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build relay request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch relay payload: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, fmt.Errorf("relay returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read relay body: %w", err)
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil, fmt.Errorf("decode relay payload: %w", err)
	}

	return &payload, body, nil
}
