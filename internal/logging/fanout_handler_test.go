package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}

	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsPerHandlerLevels(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	infoHandler := slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	debugHandler := slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := slog.New(newFanoutHandler(infoHandler, debugHandler)).With(slog.String(FieldComponent, "test"))
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug to be enabled through the debug handler")
	}

	logger.Debug("debug line")
	logger.Info("info line")

	if strings.Contains(infoBuf.String(), "debug line") {
		t.Fatalf("info handler received debug record: %s", infoBuf.String())
	}
	if !strings.Contains(infoBuf.String(), "info line") || !strings.Contains(debugBuf.String(), "info line") {
		t.Fatal("expected info record in both outputs")
	}
	if !strings.Contains(debugBuf.String(), `"component":"test"`) {
		t.Fatalf("expected attrs to propagate, got %s", debugBuf.String())
	}
}
