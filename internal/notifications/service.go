// Package notifications delivers push notifications for pipeline milestones
// through ntfy. An empty topic yields a noop implementation so callers never
// need to nil-check.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"coinsort/internal/config"
)

const userAgent = "coinsort/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyJobFinished(ctx context.Context, destination, category string) error
	NotifyTaskFailed(ctx context.Context, err error, contextLabel string) error
	NotifyTaskTimeout(ctx context.Context, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyJobFinished(ctx context.Context, destination, category string) error {
	destination = strings.TrimSpace(destination)
	category = strings.TrimSpace(category)
	if category == "" {
		category = "no matching category"
	}
	data := payload{
		title:   "Coinsort - Transaction Sorted",
		message: fmt.Sprintf("%s: %s", destination, category),
		tags:    []string{"coinsort", "classify", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyTaskFailed(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Classification failed")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" for ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Coinsort - Error",
		message:  builder.String(),
		tags:     []string{"coinsort", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyTaskTimeout(ctx context.Context, contextLabel string) error {
	contextLabel = strings.TrimSpace(contextLabel)
	data := payload{
		title:    "Coinsort - Timeout",
		message:  fmt.Sprintf("Classification exceeded its budget and was abandoned: %s", contextLabel),
		tags:     []string{"coinsort", "timeout", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Coinsort - Test",
		message:  "Notification system test",
		tags:     []string{"coinsort", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyJobFinished(context.Context, string, string) error { return nil }
func (noopService) NotifyTaskFailed(context.Context, error, string) error   { return nil }
func (noopService) NotifyTaskTimeout(context.Context, string) error         { return nil }
func (noopService) TestNotification(context.Context) error                  { return nil }
