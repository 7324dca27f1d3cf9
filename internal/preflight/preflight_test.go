package preflight

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"docmonitor/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFileReadable(t *testing.T) {
	f := filepath.Join(t.TempDir(), "creds.json")
	if err := os.WriteFile(f, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if result := CheckFileReadable("creds", f); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckFileReadable("creds", filepath.Dir(f)); result.Passed {
		t.Fatal("expected failure for directory")
	}
	if result := CheckFileReadable("creds", f+".missing"); result.Passed {
		t.Fatal("expected failure for missing file")
	}
}

func TestCheckEndpoint_Reachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("endpoint check must not send a request")
	}))
	defer srv.Close()

	result := CheckEndpoint(context.Background(), "webhook", srv.URL+"/api/internal/documents-inserted")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckEndpoint_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	result := CheckEndpoint(context.Background(), "webhook", "http://"+addr+"/hook")
	if result.Passed {
		t.Fatal("expected failure for closed port")
	}
}

func TestCheckEndpoint_InvalidURL(t *testing.T) {
	if result := CheckEndpoint(context.Background(), "webhook", "not a url"); result.Passed {
		t.Fatal("expected failure for invalid url")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Watch.Directories = []string{t.TempDir()}
	cfg.Plugins.Enabled = false
	cfg.Notifications.Enabled = false

	results := RunAll(context.Background(), &cfg)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestRunAll_ReportsMissingWatchDirectory(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Watch.Directories = []string{t.TempDir(), filepath.Join(t.TempDir(), "missing")}
	cfg.Plugins.Enabled = true
	cfg.Paths.PluginDir = t.TempDir()
	cfg.Notifications.Enabled = false

	results := RunAll(context.Background(), &cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Watch directory 2" {
		t.Fatalf("expected only second watch directory to fail, got %+v", failed)
	}
}
