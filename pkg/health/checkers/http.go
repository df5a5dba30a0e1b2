// Package checkers provides ready-made health checks for common
// dependencies: HTTP endpoints, Redis and Postgres.
package checkers

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HTTPChecker probes an HTTP endpoint with GET. Any response below 500
// counts as healthy; the dependency being up matters, not its semantics.
type HTTPChecker struct {
	url    string
	name   string
	client *http.Client
}

// NewHTTPChecker builds a checker for the given endpoint. An empty name
// falls back to the URL.
func NewHTTPChecker(url string, name string) *HTTPChecker {
	return NewHTTPCheckerWithClient(url, name, &http.Client{Timeout: 10 * time.Second})
}

// NewHTTPCheckerWithClient is NewHTTPChecker with a caller-supplied
// http.Client, for custom transports or tighter timeouts.
func NewHTTPCheckerWithClient(url string, name string, client *http.Client) *HTTPChecker {
	if name == "" {
		name = url
	}
	return &HTTPChecker{url: url, name: name, client: client}
}

func (h *HTTPChecker) Name() string { return h.name }

// Check issues the GET and fails on transport errors or 5xx responses.
func (h *HTTPChecker) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("unhealthy status code: %d", resp.StatusCode)
	}
	return nil
}
