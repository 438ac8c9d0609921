package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lairofevil/standings/internal/auth"
)

// HTTPClient talks JSON to the service.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	token   string
}

// StatusError is returned for unexpected response codes.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// newHTTPClient creates a client. With a secret it signs an admin token
// valid for ttl.
func newHTTPClient(cfg *Config, ttl time.Duration) (*HTTPClient, error) {
	c := &HTTPClient{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
	}
	if cfg.Secret != "" {
		tok, err := auth.NewTokenVerifier(cfg.Secret).IssueToken(auth.Principal{
			Subject: "simulator",
			Name:    "Simulator",
			Role:    auth.RoleAdmin,
		}, ttl)
		if err != nil {
			return nil, err
		}
		c.token = tok
	}
	return c, nil
}

// Do sends body as JSON and decodes the response into out when non-nil.
// Any status other than want is a *StatusError.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body, out any, want int) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != want {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
		}
	}
	return nil
}
