package telemetry

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func newFileLogger(t *testing.T, level string) (*Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.log")

	logger, err := NewLogger(LoggingConfig{
		Level:  level,
		Format: "json",
		Output: path,
	})
	if err != nil {
		t.Fatalf("NewLogger() error: %v", err)
	}
	return logger, path
}

func readLogLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer file.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("log line is not JSON: %v", err)
		}
		lines = append(lines, entry)
	}
	return lines
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, path := newFileLogger(t, "warn")

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")
	logger.Error("also kept")

	lines := readLogLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
	if lines[0]["message"] != "kept" {
		t.Errorf("first line = %v", lines[0])
	}
}

func TestLogger_ComponentAndFields(t *testing.T) {
	logger, path := newFileLogger(t, "info")

	logger.NewComponentLogger("extractor").
		WithStackName("OrdersStack").
		WithLogicalID("BucketA").
		Info("analyzing")

	lines := readLogLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(lines))
	}

	entry := lines[0]
	if entry["component"] != "extractor" {
		t.Errorf("component = %v", entry["component"])
	}
	if entry["stack_name"] != "OrdersStack" {
		t.Errorf("stack_name = %v", entry["stack_name"])
	}
	if entry["logical_id"] != "BucketA" {
		t.Errorf("logical_id = %v", entry["logical_id"])
	}
}

func TestLogger_ContextRoundTrip(t *testing.T) {
	logger, _ := newFileLogger(t, "info")

	ctx := logger.WithContext(context.Background())
	if got := FromContext(ctx); got == nil {
		t.Fatal("FromContext returned nil for a context carrying a logger")
	}

	// A bare context yields a usable fallback, never nil.
	if got := FromContext(context.Background()); got == nil {
		t.Fatal("FromContext must return a fallback logger")
	}
}

func TestNewNopLogger(t *testing.T) {
	logger := NewNopLogger()

	// Must not panic and must support chaining.
	logger.WithField("k", "v").WithError(nil).Info("discarded")
	logger.NewComponentLogger("x").Warnf("discarded %d", 1)
}

func TestParseLogLevel_UnknownDefaultsToInfo(t *testing.T) {
	logger, path := newFileLogger(t, "nonsense")

	logger.Debug("dropped")
	logger.Info("kept")

	lines := readLogLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("expected info-level default, got %d lines", len(lines))
	}
}
