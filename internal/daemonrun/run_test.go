package daemonrun

import (
	"testing"

	"docmonitor/internal/testsupport"
)

func TestApplyOptionsOverridesDirectoriesAndScan(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Watch.InitialScan = true
	dir := t.TempDir()

	applyOptions(cfg, Options{LogLevel: "debug", Directories: []string{dir}, NoInitialScan: true})

	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Logging.Level)
	}
	if len(cfg.Watch.Directories) != 1 || cfg.Watch.Directories[0] != dir {
		t.Fatalf("unexpected directories %v", cfg.Watch.Directories)
	}
	if cfg.Watch.InitialScan {
		t.Fatal("expected initial scan disabled")
	}
}

func TestApplyOptionsKeepsConfigWhenEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	before := append([]string(nil), cfg.Watch.Directories...)
	applyOptions(cfg, Options{})
	if len(cfg.Watch.Directories) != len(before) || cfg.Watch.Directories[0] != before[0] {
		t.Fatalf("directories changed: %v -> %v", before, cfg.Watch.Directories)
	}
}
