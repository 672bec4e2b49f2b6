package slogutil

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"blemap/internal/config"
)

func TestHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("Corpus loaded", "apps", 3, "identifiers", 42)

	output := buf.String()

	if !strings.Contains(output, "[info]") {
		t.Errorf("expected [info] in output, got: %s", output)
	}
	if !strings.Contains(output, "Corpus loaded") {
		t.Errorf("expected message in output, got: %s", output)
	}
	if !strings.Contains(output, "apps=3") {
		t.Errorf("expected 'apps=3' in output, got: %s", output)
	}
	if !strings.Contains(output, "identifiers=42") {
		t.Errorf("expected 'identifiers=42' in output, got: %s", output)
	}
	if !strings.Contains(output, " | ") {
		t.Errorf("expected ' | ' separator in output, got: %s", output)
	}
}

func TestHandler_Levels(t *testing.T) {
	tests := []struct {
		logFunc  func(*slog.Logger)
		expected string
	}{
		{func(l *slog.Logger) { l.Debug("debug") }, "[debug]"},
		{func(l *slog.Logger) { l.Info("info") }, "[info]"},
		{func(l *slog.Logger) { l.Warn("warn") }, "[warn]"},
		{func(l *slog.Logger) { l.Error("error") }, "[error]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, slog.LevelDebug)
			tt.logFunc(logger)

			if !strings.Contains(buf.String(), tt.expected) {
				t.Errorf("expected %s in output, got: %s", tt.expected, buf.String())
			}
		})
	}
}

func TestHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	if strings.Contains(output, "debug message") {
		t.Error("debug message should be filtered")
	}
	if strings.Contains(output, "info message") {
		t.Error("info message should be filtered")
	}
	if !strings.Contains(output, "warn message") {
		t.Error("warn message should be included")
	}
	if !strings.Contains(output, "error message") {
		t.Error("error message should be included")
	}
}

func TestHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo).WithGroup("stats").With("phase", "dfu")

	logger.Info("chipset", "apps", 2)

	output := buf.String()
	if !strings.Contains(output, "stats.phase=dfu") {
		t.Errorf("expected grouped attr, got: %s", output)
	}
	if !strings.Contains(output, "stats.apps=2") {
		t.Errorf("expected grouped record attr, got: %s", output)
	}
}

func TestHandler_QuotingAndLists(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("Mapped app",
		"app", "com.example one",
		"ids", []string{"180F", "FE59"},
		"err", fmt.Errorf("no side file"),
		slog.Group("memo", "hits", 3),
	)

	want := ` | app="com.example one" ids=180F,FE59 err="no side file" memo.hits=3`
	if !strings.HasSuffix(strings.TrimRight(buf.String(), "\n"), want) {
		t.Errorf("got %q, want suffix %q", buf.String(), want)
	}
}

func TestNewFileLogger_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "blemap.log")
	logger, f, err := NewFileLogger(path, slog.LevelInfo)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	logger.Info("written")
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "[info] written") {
		t.Errorf("unexpected log file content: %s", data)
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := LevelFromString(tt.input); got != tt.expected {
				t.Errorf("LevelFromString(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTeeHandler(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h1 := NewHandler(&buf1, &slog.HandlerOptions{Level: slog.LevelInfo})
	h2 := NewHandler(&buf2, &slog.HandlerOptions{Level: slog.LevelWarn})

	logger := slog.New(NewTeeHandler(h1, h2))
	logger.Info("info message")
	logger.Warn("warn message")

	if !strings.Contains(buf1.String(), "info message") {
		t.Error("buf1 should contain info message")
	}
	if !strings.Contains(buf1.String(), "warn message") {
		t.Error("buf1 should contain warn message")
	}
	if strings.Contains(buf2.String(), "info message") {
		t.Error("buf2 should not contain info message")
	}
	if !strings.Contains(buf2.String(), "warn message") {
		t.Error("buf2 should contain warn message")
	}
}

func TestNewRunLogger(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "run.log")

	var console bytes.Buffer
	logger, closer, err := NewRunLogger(config.LoggingConfig{Format: "human", Level: "warn", File: logPath}, &console, "debug")
	if err != nil {
		t.Fatalf("NewRunLogger failed: %v", err)
	}

	logger.Debug("debug visible")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if !strings.Contains(console.String(), "debug visible") {
		t.Errorf("cli level should override config level, got: %s", console.String())
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "debug visible") {
		t.Errorf("log file should receive records, got: %s", data)
	}
}

func TestNewRunLogger_JSON(t *testing.T) {
	var console bytes.Buffer
	logger, _, err := NewRunLogger(config.LoggingConfig{Format: "json", Level: "info"}, &console, "")
	if err != nil {
		t.Fatalf("NewRunLogger failed: %v", err)
	}

	logger.Info("hello", "k", "v")
	if !strings.HasPrefix(strings.TrimSpace(console.String()), "{") {
		t.Errorf("expected JSON output, got: %s", console.String())
	}
}

func TestNewDiscardLogger(t *testing.T) {
	logger := NewDiscardLogger()
	logger.Debug("debug")
	logger.Error("error")
}
