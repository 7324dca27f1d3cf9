package daemon

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"docmonitor/internal/testsupport"
	"docmonitor/internal/workflow"
)

func newTestAPI(t *testing.T, token string) (http.Handler, *Daemon) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIToken = token
	store := testsupport.MustOpenStore(t, cfg)
	d, err := New(cfg, store, nil, workflow.New(cfg, store, nil, nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d.api.routes(token), d
}

func TestAPIServerHandleQueue(t *testing.T) {
	handler, d := newTestAPI(t, "")
	if _, err := d.store.Enqueue(context.Background(), "/in/a.pdf", 0); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/queue", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp struct {
		Entries []EntryView `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].SourcePath != "/in/a.pdf" || resp.Entries[0].State != "ready" {
		t.Fatalf("unexpected entries %+v", resp.Entries)
	}
}

func TestAPIServerRejectsNonGet(t *testing.T) {
	handler, _ := newTestAPI(t, "")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/status", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestAPIServerRequiresToken(t *testing.T) {
	handler, _ := newTestAPI(t, "secret")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health must not require a token, got %d", w.Code)
	}
}

func TestAPIServerDocumentsLimitValidation(t *testing.T) {
	handler, _ := newTestAPI(t, "")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/documents?limit=zero", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAPIServerServesMetrics(t *testing.T) {
	handler, d := newTestAPI(t, "")
	if _, err := d.store.Enqueue(context.Background(), "/in/a.pdf", 0); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `docmonitor_queue_depth{state="ready"} 1`) {
		t.Fatalf("queue depth gauge missing from metrics output")
	}
}

func TestAPIServerServeAndShutdown(t *testing.T) {
	_, d := newTestAPI(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.api.serve(ctx) }()

	var addr string
	deadline := time.Now().Add(5 * time.Second)
	for addr == "" && time.Now().Before(deadline) {
		addr = d.api.address()
		time.Sleep(10 * time.Millisecond)
	}
	if addr == "" {
		t.Fatal("server did not start listening")
	}
	resp, err := http.Get("http://" + addr + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
