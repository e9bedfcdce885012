package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"coinsort/internal/jobs"
)

// Client talks to a running daemon over its HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for the daemon listening at bind (host:port).
func NewClient(bind string) *Client {
	base := strings.TrimSpace(bind)
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Status fetches the daemon's runtime status.
func (c *Client) Status(ctx context.Context) (*DaemonStatus, error) {
	var status DaemonStatus
	if err := c.getJSON(ctx, "/api/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Jobs fetches all jobs in creation order.
func (c *Client) Jobs(ctx context.Context) ([]jobs.Job, error) {
	var resp JobListResponse
	if err := c.getJSON(ctx, "/api/jobs", &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
