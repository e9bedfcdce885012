package config

import (
	"os"
	"strings"
)

// normalize trims user-supplied values, expands paths, and applies environment
// fallbacks for secrets so config files never need to embed them.
func (c *Config) normalize() error {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)

	c.Firefly.BaseURL = strings.TrimRight(strings.TrimSpace(c.Firefly.BaseURL), "/")
	c.Firefly.AccessToken = strings.TrimSpace(c.Firefly.AccessToken)
	if c.Firefly.AccessToken == "" {
		c.Firefly.AccessToken = strings.TrimSpace(os.Getenv("FIREFLY_ACCESS_TOKEN"))
	}

	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = strings.TrimSpace(os.Getenv("LLM_API_KEY"))
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)

	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if dir := strings.TrimSpace(c.Logging.Dir); dir != "" {
		expanded, err := expandPath(dir)
		if err != nil {
			return err
		}
		c.Logging.Dir = expanded
	}

	return nil
}
