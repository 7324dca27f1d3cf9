package plugins_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"docmonitor/internal/plugins"
)

func TestIsUnclassified(t *testing.T) {
	for _, id := range []string{"", "  ", "Unclassified", "UNKNOWN", "none", " Null ", "不明", "判定不能"} {
		if !plugins.IsUnclassified(id) {
			t.Errorf("expected %q to be unclassified", id)
		}
	}
	for _, id := range []string{"Invoice", "unknownish", "請求書"} {
		if plugins.IsUnclassified(id) {
			t.Errorf("expected %q to be a real class", id)
		}
	}
}

func TestDispatchSkipsSentinelsWithoutLoading(t *testing.T) {
	registry := plugins.NewRegistry()
	called := false
	registry.Register("Unknown", plugins.HandlerFunc(func(context.Context, map[string]any) error {
		called = true
		return nil
	}))
	loaded := false
	err := registry.Dispatch(context.Background(), "unknown", func(context.Context) (map[string]any, error) {
		loaded = true
		return nil, nil
	})
	if err != nil || called || loaded {
		t.Fatalf("expected sentinel to be skipped, err=%v called=%v loaded=%v", err, called, loaded)
	}
}

func TestDispatchInvokesHandlerWithRow(t *testing.T) {
	registry := plugins.NewRegistry()
	var got map[string]any
	registry.Register("Invoice", plugins.HandlerFunc(func(_ context.Context, row map[string]any) error {
		got = row
		return nil
	}))
	row := map[string]any{"ID": "doc-1", "DocumentClassID": "Invoice"}
	if err := registry.Dispatch(context.Background(), " Invoice ", func(context.Context) (map[string]any, error) {
		return row, nil
	}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if diff := cmp.Diff(row, got); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}

	if err := registry.Dispatch(context.Background(), "Order", nil); !errors.Is(err, plugins.ErrNoHandler) {
		t.Fatalf("expected ErrNoHandler, got %v", err)
	}
}

func TestDispatchPropagatesHandlerError(t *testing.T) {
	registry := plugins.NewRegistry()
	registry.Register("Invoice", plugins.HandlerFunc(func(context.Context, map[string]any) error {
		return errors.New("handler exploded")
	}))
	err := registry.Dispatch(context.Background(), "Invoice", func(context.Context) (map[string]any, error) {
		return map[string]any{}, nil
	})
	if err == nil || !strings.Contains(err.Error(), "handler exploded") {
		t.Fatalf("expected handler error, got %v", err)
	}
}

func writeScript(t *testing.T, path, body string, mode os.FileMode) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), mode); err != nil {
		t.Fatalf("write script: %v", err)
	}
}

func TestDiscoverRegistersExecutables(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell handlers require a POSIX shell")
	}
	dir := t.TempDir()
	out := filepath.Join(dir, "received.json")
	writeScript(t, filepath.Join(dir, "docClassHandler_Invoice.sh"), "cat > "+out, 0o755)
	writeScript(t, filepath.Join(dir, "docClassHandler_Order"), "exit 0", 0o644)
	writeScript(t, filepath.Join(dir, "unrelated.sh"), "exit 0", 0o755)

	registry, err := plugins.Discover(dir, 5*time.Second, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if diff := cmp.Diff([]string{"Invoice"}, registry.Classes()); diff != "" {
		t.Fatalf("registered classes mismatch (-want +got):\n%s", diff)
	}

	row := map[string]any{"ID": "doc-1", "Title": "April"}
	if err := registry.Dispatch(context.Background(), "Invoice", func(context.Context) (map[string]any, error) {
		return row, nil
	}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("handler output: %v", err)
	}
	var received map[string]any
	if err := json.Unmarshal(data, &received); err != nil {
		t.Fatalf("handler stdin was not JSON: %v", err)
	}
	if diff := cmp.Diff(row, received); diff != "" {
		t.Fatalf("stdin mismatch (-want +got):\n%s", diff)
	}
}

func TestExecHandlerFailureAndTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell handlers require a POSIX shell")
	}
	dir := t.TempDir()
	failing := filepath.Join(dir, "fail.sh")
	writeScript(t, failing, "echo broken >&2; exit 3", 0o755)
	slow := filepath.Join(dir, "slow.sh")
	writeScript(t, slow, "exec sleep 5", 0o755)

	err := (&plugins.ExecHandler{Path: failing}).HandleDocument(context.Background(), map[string]any{})
	if err == nil || !strings.Contains(err.Error(), "broken") {
		t.Fatalf("expected stderr in error, got %v", err)
	}

	err = (&plugins.ExecHandler{Path: slow, Timeout: 50 * time.Millisecond}).HandleDocument(context.Background(), map[string]any{})
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestDiscoverMissingDirectory(t *testing.T) {
	registry, err := plugins.Discover(filepath.Join(t.TempDir(), "absent"), time.Second, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(registry.Classes()) != 0 {
		t.Fatalf("expected empty registry, got %v", registry.Classes())
	}
}
