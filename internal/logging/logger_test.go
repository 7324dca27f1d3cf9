package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docmonitor/internal/config"
	"docmonitor/internal/logging"
	"docmonitor/internal/services"
)

func TestNewJSONLoggerWritesStandardKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "json.log")

	logger, closeLogs, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { _ = closeLogs() })
	logger.Info("json message", logging.String("k", "v"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &payload); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, content)
	}
	for _, key := range []string{"ts", "level", "msg", "k"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("expected key %q in %v", key, payload)
		}
	}
	if payload["level"] != "info" {
		t.Fatalf("expected lowercase level, got %v", payload["level"])
	}
	if _, ok := payload["source"]; ok {
		t.Fatal("expected no source at info level")
	}
}

func TestConsoleLoggerToFileHasNoColour(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")

	logger, closeLogs, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { _ = closeLogs() })
	logger.Debug("console message", logging.Int("count", 2))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	if strings.Contains(text, "\x1b[") {
		t.Fatalf("expected no ANSI escapes in file output, got %q", text)
	}
	if !strings.Contains(text, "console message") || !strings.Contains(text, "count=2") {
		t.Fatalf("unexpected console output %q", text)
	}
	if !strings.Contains(text, ".go:") {
		t.Fatalf("expected caller information at debug level, got %q", text)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	logger, closeLogs, err := logging.New(logging.Options{Format: "console", Level: "invalid", OutputPaths: []string{filepath.Join(t.TempDir(), "x.log")}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { _ = closeLogs() })
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug disabled")
	}
	if !logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected info enabled")
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	cfg.Logging.Format = "json"
	cfg.Logging.Level = "info"

	logger, closeLogs, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Info("to file")
	if err := closeLogs(); err != nil {
		t.Fatalf("close logs: %v", err)
	}
	logger.Info("after close")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "docmonitor.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "to file") {
		t.Fatalf("expected message in log file, got %q", content)
	}
	if strings.Contains(string(content), "after close") {
		t.Fatalf("expected file closed, got %q", content)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithEntryID(ctx, 123)
	ctx = services.WithStage(ctx, "classify")
	ctx = services.WithRequestID(ctx, "req-xyz")

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WithContext(ctx, logger).Info("contextual log")

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload[logging.FieldEntryID] != float64(123) {
		t.Fatalf("entry id = %v", payload[logging.FieldEntryID])
	}
	if payload[logging.FieldStage] != "classify" {
		t.Fatalf("stage = %v", payload[logging.FieldStage])
	}
	if payload[logging.FieldCorrelationID] != "req-xyz" {
		t.Fatalf("correlation id = %v", payload[logging.FieldCorrelationID])
	}
}

func TestWarnWithContextAddsTriplet(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WarnWithContext(logger, "notify failed", "notify_failed",
		logging.String(logging.FieldErrorHint, "check the webhook"),
	)
	out := buf.String()
	for _, want := range []string{`"event_type":"notify_failed"`, `"error_hint":"check the webhook"`, `"impact"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
}

func TestGroupNestsAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logger.Info("started", logging.Group("environment",
		logging.Int("retry_max", 5),
		logging.String("classifier_model", "gemini"),
	))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	env, ok := payload["environment"].(map[string]any)
	if !ok {
		t.Fatalf("expected environment group, got %v", payload)
	}
	if env["retry_max"] != float64(5) || env["classifier_model"] != "gemini" {
		t.Fatalf("unexpected group contents %v", env)
	}
}
