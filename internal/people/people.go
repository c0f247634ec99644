// Package people is the client for the people-lookup service used to
// populate room membership pickers. Pure request/response, no state.
package people

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client talks to the people-lookup service.
type Client struct {
	parsedURL *url.URL
	http      *http.Client
}

// New creates a people-lookup client for the given base URL.
func New(rawURL string, timeout time.Duration) (*Client, error) {
	if rawURL == "" {
		return nil, errors.New("people lookup URL must not be empty")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("could not parse people lookup URL: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		parsedURL: parsed,
		http:      &http.Client{Timeout: timeout},
	}, nil
}

type searchResponse struct {
	People []string `json:"people"`
}

// Search returns candidate identity strings for a partial name query. An
// empty query returns the full directory (capped by the service).
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	endpoint := c.parsedURL.JoinPath("api", "people")
	q := endpoint.Query()
	if query != "" {
		q.Set("q", query)
	}
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, body)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not decode response: %w", err)
	}
	return result.People, nil
}
