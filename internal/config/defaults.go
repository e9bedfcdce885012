package config

import "time"

const (
	defaultBind               = "127.0.0.1:7411"
	defaultLogDir             = "~/.local/share/coinsort/logs"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultFireflyTimeout     = 15
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "openai/gpt-4o-mini"
	defaultLLMReferer         = "https://github.com/coinsort/coinsort"
	defaultLLMTitle           = "Coinsort Categorizer"
	defaultLLMTimeoutSeconds  = 20
	defaultTaskTimeoutSeconds = 30
	defaultQueueCapacity      = 128
	defaultNtfyRequestTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind: defaultBind,
		},
		Firefly: Firefly{
			RequestTimeout: defaultFireflyTimeout,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Queue: Queue{
			TaskTimeout: defaultTaskTimeoutSeconds,
			Capacity:    defaultQueueCapacity,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Dir:    defaultLogDir,
		},
	}
}

// TaskTimeout returns the per-task budget as a duration.
func (c *Config) TaskTimeout() time.Duration {
	if c.Queue.TaskTimeout <= 0 {
		return time.Duration(defaultTaskTimeoutSeconds) * time.Second
	}
	return time.Duration(c.Queue.TaskTimeout) * time.Second
}
