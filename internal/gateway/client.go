// Package gateway is the HTTP client for the external crawl engine. Every
// downstream problem, HTTP-level or transport-level, is reported as one
// *Error so callers have a single failure shape to handle.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Error is a failed gateway call. StatusCode is the remote status for
// HTTP-level failures and 502 for transport failures.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway: %s (status %d)", e.Message, e.StatusCode)
}

// Client performs blocking calls against the crawl engine.
type Client struct {
	http   *http.Client
	logger *zap.Logger
}

// NewClient builds a Client. The timeout bounds every call including the
// long-running synchronous crawl endpoint.
func NewClient(timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Crawl submits a crawl config to the engine and blocks until it responds.
func (c *Client) Crawl(ctx context.Context, baseURL string, config json.RawMessage) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, baseURL+"/crawl", config)
}

// Health fetches the engine's health snapshot.
func (c *Client) Health(ctx context.Context, baseURL string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, baseURL+"/monitor/health", nil)
}

// Requests fetches the engine's active/completed request listing.
func (c *Client) Requests(ctx context.Context, baseURL string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, baseURL+"/monitor/requests", nil)
}

// Cleanup triggers the engine's browser-pool cleanup action.
func (c *Client) Cleanup(ctx context.Context, baseURL string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, baseURL+"/monitor/actions/cleanup", nil)
}

func (c *Client) do(ctx context.Context, method, url string, body json.RawMessage) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &Error{StatusCode: http.StatusBadGateway, Message: err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("gateway request failed", zap.String("url", url), zap.Error(err))
		return nil, &Error{StatusCode: http.StatusBadGateway, Message: err.Error()}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{StatusCode: http.StatusBadGateway, Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{StatusCode: resp.StatusCode, Message: extractMessage(payload)}
	}
	if !json.Valid(payload) {
		return nil, &Error{StatusCode: http.StatusBadGateway, Message: "invalid JSON from crawl engine"}
	}
	return payload, nil
}

// extractMessage mines a remote error body for a human-readable message,
// falling back to a generic one when the body is not in the expected shape.
func extractMessage(body []byte) string {
	var remote struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &remote); err == nil {
		switch {
		case remote.Message != "":
			return remote.Message
		case remote.Error != "":
			return remote.Error
		case remote.Detail != "":
			return remote.Detail
		}
	}
	return "Crawl failed"
}
