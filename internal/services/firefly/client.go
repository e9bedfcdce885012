// Package firefly is a minimal client for the two finance-service endpoints
// coinsort needs: reading the category taxonomy and committing a category to
// a stored transaction group.
package firefly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"coinsort/internal/services"
	"coinsort/internal/webhook"
)

const userAgent = "coinsort/0.1.0"

// Config captures the runtime settings required to talk to the finance service.
type Config struct {
	BaseURL        string
	AccessToken    string
	TimeoutSeconds int
}

// Client wraps the finance service HTTP API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a finance service client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := 15 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			AccessToken:    strings.TrimSpace(cfg.AccessToken),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type categoriesPage struct {
	Data []struct {
		ID         webhook.FlexibleID `json:"id"`
		Attributes struct {
			Name string `json:"name"`
		} `json:"attributes"`
	} `json:"data"`
	Meta struct {
		Pagination struct {
			TotalPages  int `json:"total_pages"`
			CurrentPage int `json:"current_page"`
		} `json:"pagination"`
	} `json:"meta"`
}

// Categories fetches the current taxonomy as a name-to-id mapping, following
// pagination. The mapping is a per-job snapshot; nothing is cached.
func (c *Client) Categories(ctx context.Context) (map[string]string, error) {
	categories := make(map[string]string)
	for page := 1; ; page++ {
		endpoint := fmt.Sprintf("%s/api/v1/categories?page=%d", c.cfg.BaseURL, page)
		body, err := c.get(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		var parsed categoriesPage
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, services.Wrap(services.ErrBadResponse, "firefly", "categories", "decode page", err)
		}
		for _, entry := range parsed.Data {
			name := strings.TrimSpace(entry.Attributes.Name)
			if name == "" {
				continue
			}
			categories[name] = entry.ID.String()
		}
		if parsed.Meta.Pagination.TotalPages <= page {
			return categories, nil
		}
	}
}

type transactionUpdate struct {
	ApplyRules   bool          `json:"apply_rules"`
	FireWebhooks bool          `json:"fire_webhooks"`
	Transactions []splitUpdate `json:"transactions"`
}

type splitUpdate struct {
	TransactionJournalID string `json:"transaction_journal_id,omitempty"`
	CategoryID           string `json:"category_id"`
}

// SetCategory commits a category against the stored transaction group the
// webhook reported. Rules are re-applied upstream but webhooks are suppressed
// so the commit does not re-trigger this daemon.
func (c *Client) SetCategory(ctx context.Context, contentID string, splits []webhook.Transaction, categoryID string) error {
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return services.Wrap(services.ErrConfiguration, "firefly", "set category", "content id required", nil)
	}
	if strings.TrimSpace(categoryID) == "" {
		return services.Wrap(services.ErrConfiguration, "firefly", "set category", "category id required", nil)
	}

	updates := make([]splitUpdate, 0, len(splits))
	for _, split := range splits {
		updates = append(updates, splitUpdate{
			TransactionJournalID: split.TransactionJournalID.String(),
			CategoryID:           categoryID,
		})
	}
	payload := transactionUpdate{
		ApplyRules:   true,
		FireWebhooks: false,
		Transactions: updates,
	}

	endpoint := fmt.Sprintf("%s/api/v1/transactions/%s", c.cfg.BaseURL, url.PathEscape(contentID))
	encoded, err := json.Marshal(payload)
	if err != nil {
		return services.Wrap(services.ErrBadResponse, "firefly", "set category", "encode body", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return services.Wrap(services.ErrExternalService, "firefly", "set category", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if _, err := c.do(req); err != nil {
		return err
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "firefly", "get", "build request", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "firefly", req.Method, "http error", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "firefly", req.Method, "read body", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, services.Wrap(services.ErrNotFound, "firefly", req.Method, snippet(body), nil)
	case resp.StatusCode >= 300:
		return nil, services.Wrap(services.ErrExternalService, "firefly", req.Method,
			fmt.Sprintf("status %d: %s", resp.StatusCode, snippet(body)), nil)
	}
	return body, nil
}

func snippet(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	const limit = 200
	if len(trimmed) > limit {
		return trimmed[:limit] + "..."
	}
	return trimmed
}
