package stability_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"docmonitor/internal/stability"
	"docmonitor/internal/testsupport"
)

func TestWaitStableAfterConsecutiveChecks(t *testing.T) {
	path := testsupport.WriteFile(t, filepath.Join(t.TempDir(), "a.pdf"), 128)
	probe := &stability.Probe{Checks: 3, Interval: 5 * time.Millisecond, Timeout: time.Second}

	start := time.Now()
	if !probe.Wait(context.Background(), path) {
		t.Fatal("expected stable file")
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Fatalf("expected at least three intervals, returned after %v", elapsed)
	}
}

func TestWaitFalseWhenSizeKeepsChanging(t *testing.T) {
	path := testsupport.WriteFile(t, filepath.Join(t.TempDir(), "growing.pdf"), 1)
	probe := &stability.Probe{Checks: 2, Interval: 10 * time.Millisecond, Timeout: 150 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return
		}
		defer f.Close()
		ticker := time.NewTicker(2 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = f.Write([]byte("x"))
			}
		}
	}()

	stable := probe.Wait(context.Background(), path)
	cancel()
	wg.Wait()
	if stable {
		t.Fatal("expected growing file to never stabilize")
	}
}

func TestWaitRetriesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "late.pdf")
	probe := &stability.Probe{Checks: 2, Interval: 10 * time.Millisecond, Timeout: 2 * time.Second}

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(path, []byte("done"), 0o644)
	}()

	if !probe.Wait(context.Background(), path) {
		t.Fatal("expected file created later to become stable")
	}
}

func TestWaitMissingFileTimesOut(t *testing.T) {
	probe := &stability.Probe{Checks: 1, Interval: 5 * time.Millisecond, Timeout: 30 * time.Millisecond}
	if probe.Wait(context.Background(), filepath.Join(t.TempDir(), "never.pdf")) {
		t.Fatal("expected missing file to time out")
	}
}

func TestWaitStopsOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never.pdf")
	probe := &stability.Probe{Checks: 1, Interval: 5 * time.Millisecond, Timeout: time.Minute}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if probe.Wait(ctx, path) {
		t.Fatal("expected false after cancellation")
	}
}
