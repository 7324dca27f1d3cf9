package classifier_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"docmonitor/internal/classifier"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestGuardReturnsResult(t *testing.T) {
	guard := &classifier.Guard{Poll: time.Millisecond}
	want := &classifier.Result{Payload: map[string]any{"documentClassId": "Invoice"}}
	got, err := guard.Invoke(context.Background(), "a.pdf", func(context.Context) (*classifier.Result, error) {
		return want, nil
	})
	if err != nil || got != want {
		t.Fatalf("unexpected outcome: %v %v", got, err)
	}
}

func TestGuardPropagatesErrorUnchanged(t *testing.T) {
	guard := &classifier.Guard{Poll: time.Millisecond}
	sentinel := errors.New("quota exceeded")
	_, err := guard.Invoke(context.Background(), "a.pdf", func(context.Context) (*classifier.Result, error) {
		return nil, sentinel
	})
	if err != sentinel {
		t.Fatalf("expected sentinel error, got %v", err)
	}
}

func TestGuardRecoversPanic(t *testing.T) {
	guard := &classifier.Guard{Poll: time.Millisecond}
	_, err := guard.Invoke(context.Background(), "a.pdf", func(context.Context) (*classifier.Result, error) {
		panic("boom")
	})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected panic converted to error, got %v", err)
	}
}

func TestGuardLogsProgressWithoutCancelling(t *testing.T) {
	var buf syncBuffer
	guard := &classifier.Guard{
		Progress: 20 * time.Millisecond,
		Poll:     5 * time.Millisecond,
		Logger:   slog.New(slog.NewTextHandler(&buf, nil)),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := guard.Invoke(ctx, "slow.pdf", func(context.Context) (*classifier.Result, error) {
		time.Sleep(120 * time.Millisecond)
		return &classifier.Result{Payload: map[string]any{}}, nil
	})
	if err != nil || res == nil {
		t.Fatalf("expected slow call to complete, got %v %v", res, err)
	}
	if n := strings.Count(buf.String(), "classifier still waiting"); n < 2 {
		t.Fatalf("expected repeated progress lines, got %d:\n%s", n, buf.String())
	}
}
