package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"coinsort/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsForMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.toml")
	cfg, path, exists, err := config.Load(missing)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists {
		t.Error("exists = true for a missing file")
	}
	if path != missing {
		t.Errorf("path = %q", path)
	}
	if cfg.Server.Bind != "127.0.0.1:7411" {
		t.Errorf("bind = %q", cfg.Server.Bind)
	}
	if cfg.Queue.TaskTimeout != 30 || cfg.Queue.Capacity != 128 {
		t.Errorf("queue defaults = %+v", cfg.Queue)
	}
	if cfg.LLM.BaseURL == "" || cfg.LLM.Model == "" {
		t.Errorf("llm defaults = %+v", cfg.LLM)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := writeConfig(t, `
[server]
bind = "0.0.0.0:9000"

[firefly]
base_url = "https://money.example.org/"
access_token = "tok"

[queue]
task_timeout = 45
capacity = 16
`)

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists {
		t.Fatal("exists = false for a real file")
	}
	if cfg.Server.Bind != "0.0.0.0:9000" {
		t.Errorf("bind = %q", cfg.Server.Bind)
	}
	if cfg.Firefly.BaseURL != "https://money.example.org" {
		t.Errorf("base url not trimmed: %q", cfg.Firefly.BaseURL)
	}
	if cfg.Queue.TaskTimeout != 45 || cfg.Queue.Capacity != 16 {
		t.Errorf("queue = %+v", cfg.Queue)
	}
}

func TestSecretsFallBackToEnvironment(t *testing.T) {
	t.Setenv("FIREFLY_ACCESS_TOKEN", "env-firefly")
	t.Setenv("LLM_API_KEY", "env-llm")

	path := writeConfig(t, `
[firefly]
base_url = "https://money.example.org"
`)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Firefly.AccessToken != "env-firefly" {
		t.Errorf("access token = %q", cfg.Firefly.AccessToken)
	}
	if cfg.LLM.APIKey != "env-llm" {
		t.Errorf("api key = %q", cfg.LLM.APIKey)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantSub string
	}{
		{"empty bind", func(c *config.Config) { c.Server.Bind = "" }, "bind"},
		{"bad format", func(c *config.Config) { c.Logging.Format = "xml" }, "format"},
		{"bad level", func(c *config.Config) { c.Logging.Level = "verbose" }, "level"},
		{"zero timeout", func(c *config.Config) { c.Queue.TaskTimeout = 0 }, "task_timeout"},
		{"zero capacity", func(c *config.Config) { c.Queue.Capacity = -1 }, "capacity"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("err = %v, want mention of %q", err, tc.wantSub)
			}
		})
	}
}

func TestValidateDaemonRequiresSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.Firefly.BaseURL = "https://money.example.org"
	cfg.Firefly.AccessToken = ""
	cfg.LLM.APIKey = ""

	err := cfg.ValidateDaemon()
	if err == nil || !strings.Contains(err.Error(), "access_token") {
		t.Fatalf("err = %v", err)
	}

	cfg.Firefly.AccessToken = "tok"
	err = cfg.ValidateDaemon()
	if err == nil || !strings.Contains(err.Error(), "api_key") {
		t.Fatalf("err = %v", err)
	}

	cfg.LLM.APIKey = "key"
	if err := cfg.ValidateDaemon(); err != nil {
		t.Fatalf("expected valid daemon config, got %v", err)
	}
}

func TestValidateDaemonRejectsNonHTTPBaseURL(t *testing.T) {
	cfg := config.Default()
	cfg.Firefly.BaseURL = "ftp://money.example.org"
	cfg.Firefly.AccessToken = "tok"
	cfg.LLM.APIKey = "key"

	if err := cfg.ValidateDaemon(); err == nil {
		t.Fatal("expected error for non-http base url")
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("create sample: %v", err)
	}

	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if !exists {
		t.Fatal("sample file not found after creation")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config invalid: %v", err)
	}
}

func TestTaskTimeoutDuration(t *testing.T) {
	cfg := config.Default()
	cfg.Queue.TaskTimeout = 45
	if got := cfg.TaskTimeout().Seconds(); got != 45 {
		t.Errorf("timeout = %vs", got)
	}
}
