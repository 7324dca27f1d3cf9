package services_test

import (
	"errors"
	"strings"
	"testing"

	"docmonitor/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrClassifier, "classify", "generate", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrClassifier) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"classify", "generate", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestDispositionMapping(t *testing.T) {
	missing := services.Wrap(services.ErrNotFound, "precheck", "stat", "file vanished", nil)
	if got := services.DispositionFor(missing); got != services.DispositionDrop {
		t.Fatalf("expected drop for missing file, got %s", got)
	}

	unsupported := services.Wrap(services.ErrUnsupported, "precheck", "", ".docx", nil)
	if got := services.DispositionFor(unsupported); got != services.DispositionDrop {
		t.Fatalf("expected drop for unsupported type, got %s", got)
	}

	unstable := services.Wrap(services.ErrUnstable, "stability", "wait", "", nil)
	if got := services.DispositionFor(unstable); got != services.DispositionRetry {
		t.Fatalf("expected retry for unstable file, got %s", got)
	}

	if got := services.DispositionFor(errors.New("anything")); got != services.DispositionRetry {
		t.Fatalf("expected retry for unknown error, got %s", got)
	}
}
