package daemon_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"docmonitor/internal/classifier"
	"docmonitor/internal/config"
	"docmonitor/internal/daemon"
	"docmonitor/internal/queue"
	"docmonitor/internal/testsupport"
	"docmonitor/internal/workflow"
)

func newDaemon(t *testing.T, cfg *config.Config) (*daemon.Daemon, *queue.Store) {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	clf := classifier.Func(func(context.Context, classifier.Request) (*classifier.Result, error) {
		return &classifier.Result{Payload: map[string]any{"documentClassId": "Notice"}}, nil
	})
	coord := workflow.New(cfg, store, clf, nil)
	d, err := daemon.New(cfg, store, nil, coord)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)
	return d, store
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, _ := newDaemon(t, cfg)
	ctx := context.Background()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := d.Status(ctx)
	if !status.Running || !status.Workflow.Running {
		t.Fatalf("expected daemon and coordinator to report running: %+v", status)
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestSecondInstanceIsRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, _ := newDaemon(t, cfg)
	second, _ := newDaemon(t, cfg)
	ctx := context.Background()

	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := second.Start(ctx); !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	first.Stop()
	if err := second.Start(ctx); err != nil {
		t.Fatalf("second Start after release: %v", err)
	}
}

func TestPIDFileFollowsLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, _ := newDaemon(t, cfg)
	second, _ := newDaemon(t, cfg)
	ctx := context.Background()
	pidPath := daemon.PIDPath(cfg)

	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	want := strconv.Itoa(os.Getpid())
	if got := readPID(t, pidPath); got != want {
		t.Fatalf("expected pid %s, got %q", want, got)
	}
	if err := os.WriteFile(pidPath, []byte("4242\n"), 0o644); err != nil {
		t.Fatalf("seed pid file: %v", err)
	}

	if err := second.Start(ctx); !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	second.Stop()
	if got := readPID(t, pidPath); got != "4242" {
		t.Fatalf("rejected instance touched the pid file: %q", got)
	}

	first.Stop()
	if _, err := os.Stat(pidPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected pid file removed on stop, got %v", err)
	}
}

func TestAcquireLockRejectsHeldLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	held, err := daemon.AcquireLock(daemon.LockPath(cfg))
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if _, err := daemon.AcquireLock(daemon.LockPath(cfg)); !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if err := held.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	again, err := daemon.AcquireLock(daemon.LockPath(cfg))
	if err != nil {
		t.Fatalf("AcquireLock after release: %v", err)
	}
	_ = again.Unlock()
}

func readPID(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pid file: %v", err)
	}
	return strings.TrimSpace(string(data))
}

func TestRunProcessesExistingAndNewFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Watch.InitialScan = true
	inbox := testsupport.InboxDir(cfg)
	testsupport.WriteFile(t, filepath.Join(inbox, "before.pdf"), 512)

	d, store := newDaemon(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	waitForDocuments(t, store, 1)
	testsupport.WriteFile(t, filepath.Join(inbox, "after.pdf"), 512)
	waitForDocuments(t, store, 2)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func waitForDocuments(t *testing.T, store *queue.Store, want int) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if count, err := store.CountDocuments(context.Background()); err == nil && count >= want {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatalf("expected %d documents before deadline", want)
}
