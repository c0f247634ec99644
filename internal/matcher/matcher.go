// Package matcher is the client for the remote face-matching service. The
// service consumes a single still image and returns detected faces with
// bounding boxes, a matched identity (or "Unknown") and a similarity score.
// Its model and embedding storage are opaque to this system.
package matcher

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dormwatch/dormwatch/internal/detect"
)

// ErrTransport marks a failed or unparseable matching-service call. Callers
// skip the current tick and keep prior results instead of clearing them.
var ErrTransport = errors.New("matching service call failed")

// DefaultTimeout bounds a single matching call so a hung service cannot
// stall the sampling cadence forever.
const DefaultTimeout = 10 * time.Second

// Client talks to the face-matching service.
type Client struct {
	parsedURL *url.URL
	http      *http.Client
}

// New creates a matching-service client for the given base URL.
func New(rawURL string, timeout time.Duration) (*Client, error) {
	if rawURL == "" {
		return nil, errors.New("matcher URL must not be empty")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("could not parse matcher URL: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		parsedURL: parsed,
		http:      &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) resolveURL(path string) string {
	return c.parsedURL.JoinPath(path).String()
}

// frameRequest is the process-frame request body: a base64 data URL of the
// encoded still image.
type frameRequest struct {
	Image string `json:"image"`
}

// frameResponse is the process-frame response.
type frameResponse struct {
	Status    string             `json:"status"`
	FaceCount int                `json:"face_count"`
	Faces     []detect.Detection `json:"faces"`
}

// ProcessFrame submits one JPEG-encoded frame and returns the detections.
// Coordinates in the result are in the native pixel space of the submitted
// image. An empty list is a valid response (no faces found). Any failure is
// reported as an ErrTransport-wrapped error.
func (c *Client) ProcessFrame(ctx context.Context, jpegData []byte) ([]detect.Detection, error) {
	payload := frameRequest{
		Image: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegData),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: could not marshal request: %v", ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolveURL("api/process-frame"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: could not create request: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, readErrorBody(resp.Body))
	}

	var result frameResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: could not decode response: %v", ErrTransport, err)
	}
	return result.Faces, nil
}

// Health checks the matching service health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolveURL("api/health"), nil)
	if err != nil {
		return fmt.Errorf("%w: could not create request: %v", ErrTransport, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, readErrorBody(resp.Body))
	}
	return nil
}

// readErrorBody reads the response body for error messages. Returns a
// placeholder if reading fails (we are already in an error path).
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "(could not read error body)"
	}
	return string(body)
}
