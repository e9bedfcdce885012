package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate reports the first configuration problem found. Secrets are not
// required here so read-only CLI commands work without them; the daemon
// re-checks them via ValidateDaemon before starting.
func (c *Config) Validate() error {
	if c.Server.Bind == "" {
		return errors.New("server bind address is required")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging level: unsupported value %q", c.Logging.Level)
	}
	if c.Queue.TaskTimeout <= 0 {
		return errors.New("queue task_timeout must be positive")
	}
	if c.Queue.Capacity <= 0 {
		return errors.New("queue capacity must be positive")
	}
	return nil
}

// ValidateDaemon checks the settings the daemon cannot run without.
func (c *Config) ValidateDaemon() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Firefly.BaseURL == "" {
		return errors.New("firefly base_url is required")
	}
	if !strings.HasPrefix(c.Firefly.BaseURL, "http://") && !strings.HasPrefix(c.Firefly.BaseURL, "https://") {
		return fmt.Errorf("firefly base_url must be an http(s) URL, got %q", c.Firefly.BaseURL)
	}
	if c.Firefly.AccessToken == "" {
		return errors.New("firefly access_token is required (config or FIREFLY_ACCESS_TOKEN)")
	}
	if c.LLM.APIKey == "" {
		return errors.New("llm api_key is required (config or LLM_API_KEY)")
	}
	if c.LLM.Model == "" {
		return errors.New("llm model is required")
	}
	return nil
}
