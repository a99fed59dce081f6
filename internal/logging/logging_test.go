package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tradeplot/internal/config"
)

func TestNewWritesPlainTextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.log")
	log := New(config.LoggingConfig{Level: "info", File: path})
	log.Info("Getting trades and data.")
	log.Debug("hidden")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "INFO") {
		t.Fatalf("expected level in log line, got %q", out)
	}
	if !strings.Contains(out, "Getting trades and data.") {
		t.Fatalf("expected message in log line, got %q", out)
	}
	if !strings.Contains(out, "logging/logging_test.go:") {
		t.Fatalf("expected caller in log line, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected debug line to be filtered at info level")
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("expected console encoding, got json: %q", out)
	}
}

func TestNewDebugLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.log")
	log := New(config.LoggingConfig{Level: "debug", File: path})
	log.Debug("visible")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "visible") {
		t.Fatalf("expected debug line, got %q", string(data))
	}
}
