// Package llm classifies transactions into categories through an
// OpenRouter-compatible chat completion API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	jsonResponseType   = "json_object"
	defaultHTTPTimeout = 15 * time.Second
)

// Config captures the runtime settings required to talk to the LLM.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// Client wraps the OpenRouter chat completion API.
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

// NewClient constructs an LLM client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			Referer:        strings.TrimSpace(cfg.Referer),
			Title:          strings.TrimSpace(cfg.Title),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://openrouter.ai/api/v1/chat/completions"
	}
	return client
}

// Classification is the outcome of one classify call. Category is empty when
// the model could not place the transaction in the provided taxonomy; Prompt
// and Response preserve the exchange for job inspection.
type Classification struct {
	Category string
	Prompt   string
	Response string
}

const systemPrompt = "You are a personal finance assistant. Given a withdrawal " +
	"transaction and a fixed list of category names, pick the single best " +
	"matching category. Respond with JSON only, in the form " +
	"{\"category\": \"<name>\"}. Use the empty string when none of the " +
	"categories fit. Never invent a category that is not in the list."

// Classify asks the model to place one transaction into the supplied
// taxonomy. A single request is issued; any failure is returned to the caller
// rather than retried here.
func (c *Client) Classify(ctx context.Context, categories []string, destination, description string) (Classification, error) {
	var empty Classification
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return empty, errors.New("llm classify: api key required")
	}
	if len(categories) == 0 {
		return empty, errors.New("llm classify: at least one category required")
	}

	userPrompt := buildPrompt(categories, destination, description)
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": jsonResponseType},
	}

	content, err := c.sendChatRequest(ctx, payload)
	if err != nil {
		return empty, err
	}

	var parsed struct {
		Category string `json:"category"`
	}
	if err := DecodeJSON(content, &parsed); err != nil {
		return empty, fmt.Errorf("llm classify: parse payload: %w", err)
	}
	if err := validateClassification(content); err != nil {
		return empty, fmt.Errorf("llm classify: %w", err)
	}

	result := Classification{
		Category: matchCategory(parsed.Category, categories),
		Prompt:   userPrompt,
		Response: content,
	}
	return result, nil
}

func buildPrompt(categories []string, destination, description string) string {
	var b strings.Builder
	b.WriteString("Categories:\n")
	for _, name := range categories {
		b.WriteString("- ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	b.WriteString("\nTransaction:\n")
	fmt.Fprintf(&b, "destination: %s\n", strings.TrimSpace(destination))
	fmt.Fprintf(&b, "description: %s\n", strings.TrimSpace(description))
	return b.String()
}

// matchCategory maps the model's answer onto the taxonomy. Exact match wins,
// then a case-insensitive match; anything else is treated as no category.
func matchCategory(answer string, categories []string) string {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return ""
	}
	for _, name := range categories {
		if name == answer {
			return name
		}
	}
	for _, name := range categories {
		if strings.EqualFold(name, answer) {
			return name
		}
	}
	return ""
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) sendChatRequest(ctx context.Context, payload chatCompletionRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("llm request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("llm request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
		req.Header.Set("Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("llm request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("llm request: http %d: %s", resp.StatusCode, summarizePayloadSnippet(string(body)))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("llm request: decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("llm request: api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	for _, choice := range completion.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
	}
	return "", fmt.Errorf("llm request: empty content (snippet: %s)", summarizePayloadSnippet(string(body)))
}

func summarizePayloadSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	clean := strings.Join(strings.Fields(trimmed), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
