package notifications

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docmonitor/internal/config"
)

const (
	userAgent = "docmonitor/0.1.0"
	// TokenHeader carries the optional shared secret.
	TokenHeader = "X-Monitor-Event-Token"
	// EventDocumentsInserted is the only event type sent.
	EventDocumentsInserted = "documents_inserted"
)

// Reasons attached to documents_inserted events.
const (
	ReasonClassified       = "classified"
	ReasonRetryMaxExceeded = "retry_max_exceeded"
	ReasonTest             = "test"
)

// Service defines the notification surface exposed to workflow components.
type Service interface {
	DocumentInserted(ctx context.Context, documentID, sourcePath, reason string) error
}

// Event is the JSON body posted to the webhook.
type Event struct {
	Event      string `json:"event"`
	DocumentID string `json:"documentId"`
	SourcePath string `json:"sourcePath"`
	Reason     string `json:"reason"`
	OccurredAt string `json:"occurredAt"`
}

// NewService builds the webhook notifier. When notifications are disabled or
// no URL resolves, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil || !cfg.Notifications.Enabled {
		return noopService{}
	}
	endpoint := strings.TrimSpace(cfg.NotifyURL())
	if endpoint == "" {
		return noopService{}
	}

	timeout := cfg.NotifyTimeout()
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	if cfg.Notifications.TrustSelfSigned && IsLocalURL(endpoint) {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // self-addressed URL only
		client.Transport = transport
	}

	return &webhookService{
		endpoint: endpoint,
		token:    strings.TrimSpace(cfg.Notifications.Token),
		client:   client,
		now:      time.Now,
	}
}

// Enabled reports whether svc actually sends requests.
func Enabled(svc Service) bool {
	_, noop := svc.(noopService)
	return svc != nil && !noop
}

type webhookService struct {
	endpoint string
	token    string
	client   *http.Client
	now      func() time.Time
}

func (w *webhookService) DocumentInserted(ctx context.Context, documentID, sourcePath, reason string) error {
	return w.send(ctx, Event{
		Event:      EventDocumentsInserted,
		DocumentID: documentID,
		SourcePath: sourcePath,
		Reason:     reason,
		OccurredAt: w.now().UTC().Format(time.RFC3339),
	})
}

func (w *webhookService) send(ctx context.Context, event Event) error {
	if w == nil || w.client == nil {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set(TokenHeader, w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) DocumentInserted(context.Context, string, string, string) error { return nil }
