package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"coinsort/internal/logging"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return string(data)
}

func TestConsoleFormatRendersComponentAndAttrs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{path},
		ErrorOutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	component := logging.NewComponentLogger(logger, "task-queue")
	component.Info("task started",
		logging.String("task", "classify"),
		logging.Duration("elapsed", 1500*time.Millisecond),
		logging.String("note", "two words"),
	)

	line := strings.TrimSpace(readLog(t, path))
	if !strings.Contains(line, " INFO task-queue: task started") {
		t.Errorf("line = %q", line)
	}
	if !strings.Contains(line, "task=classify") {
		t.Errorf("missing plain attr: %q", line)
	}
	if !strings.Contains(line, "elapsed=1.5s") {
		t.Errorf("missing duration attr: %q", line)
	}
	if !strings.Contains(line, `note="two words"`) {
		t.Errorf("value with spaces not quoted: %q", line)
	}
}

func TestJSONFormatUsesCompactKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Level:            "debug",
		Format:           "json",
		OutputPaths:      []string{path},
		ErrorOutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	logger.Warn("queue backed up", logging.Int("depth", 12))

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, path))), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "queue backed up" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["level"] != "warn" {
		t.Errorf("level = %v", entry["level"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Error("missing ts key")
	}
	if entry["depth"] != float64(12) {
		t.Errorf("depth = %v", entry["depth"])
	}
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Level:            "warn",
		Format:           "console",
		OutputPaths:      []string{path},
		ErrorOutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	logger.Info("quiet")
	logger.Warn("loud")

	content := readLog(t, path)
	if strings.Contains(content, "quiet") {
		t.Error("info line emitted at warn level")
	}
	if !strings.Contains(content, "loud") {
		t.Error("warn line missing")
	}
}

func TestUnsupportedFormatIsRejected(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscardsEverything(t *testing.T) {
	logger := logging.NewNop()
	// Must not panic or write anywhere.
	logger.Error("ignored", logging.Error(os.ErrClosed))
}
