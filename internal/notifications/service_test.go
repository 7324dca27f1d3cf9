package notifications_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"docmonitor/internal/config"
	"docmonitor/internal/notifications"
)

func webhookConfig(url string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.Enabled = true
	cfg.Notifications.URL = url
	cfg.Notifications.TimeoutSeconds = 3
	return &cfg
}

func TestNewServiceReturnsNoopWhenDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.Enabled = false
	svc := notifications.NewService(&cfg)
	if notifications.Enabled(svc) {
		t.Fatal("expected noop service")
	}
	if err := svc.DocumentInserted(context.Background(), "id", "/in/a.pdf", notifications.ReasonClassified); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestDocumentInsertedPostsEvent(t *testing.T) {
	var (
		got    notifications.Event
		header http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := webhookConfig(srv.URL + "/api/internal/documents-inserted")
	cfg.Notifications.Token = "s3cret"
	svc := notifications.NewService(cfg)
	if !notifications.Enabled(svc) {
		t.Fatal("expected webhook service")
	}

	if err := svc.DocumentInserted(context.Background(), "doc-1", "/in/a.pdf", notifications.ReasonClassified); err != nil {
		t.Fatalf("DocumentInserted: %v", err)
	}
	if got.Event != "documents_inserted" || got.DocumentID != "doc-1" || got.SourcePath != "/in/a.pdf" || got.Reason != "classified" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if _, err := time.Parse(time.RFC3339, got.OccurredAt); err != nil {
		t.Fatalf("occurredAt not RFC3339: %q", got.OccurredAt)
	}
	if header.Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected content type %q", header.Get("Content-Type"))
	}
	if header.Get(notifications.TokenHeader) != "s3cret" {
		t.Fatalf("expected token header, got %q", header.Get(notifications.TokenHeader))
	}
}

func TestDocumentInsertedOmitsEmptyToken(t *testing.T) {
	var present bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header[http.CanonicalHeaderKey(notifications.TokenHeader)]
	}))
	defer srv.Close()

	if err := notifications.NewService(webhookConfig(srv.URL)).DocumentInserted(context.Background(), "d", "/p", "classified"); err != nil {
		t.Fatalf("DocumentInserted: %v", err)
	}
	if present {
		t.Fatal("expected no token header")
	}
}

func TestDocumentInsertedReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := notifications.NewService(webhookConfig(srv.URL)).DocumentInserted(context.Background(), "d", "/p", "classified")
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected 500 error, got %v", err)
	}
}

func TestDocumentInsertedHonoursTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	cfg := webhookConfig(srv.URL)
	cfg.Notifications.TimeoutSeconds = 0.05
	start := time.Now()
	if err := notifications.NewService(cfg).DocumentInserted(context.Background(), "d", "/p", "classified"); err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout not applied, took %v", elapsed)
	}
}

func TestSelfSignedTrustRequiresFlag(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	strict := webhookConfig(srv.URL)
	if err := notifications.NewService(strict).DocumentInserted(context.Background(), "d", "/p", "classified"); err == nil {
		t.Fatal("expected certificate error without trust_self_signed")
	}

	relaxed := webhookConfig(srv.URL)
	relaxed.Notifications.TrustSelfSigned = true
	if err := notifications.NewService(relaxed).DocumentInserted(context.Background(), "d", "/p", "classified"); err != nil {
		t.Fatalf("expected self-addressed TLS to be trusted, got %v", err)
	}
}
