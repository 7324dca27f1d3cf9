package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docmonitor/internal/config"
	"docmonitor/internal/logging"
	"docmonitor/internal/metrics"
	"docmonitor/internal/queue"
)

const defaultDocumentLimit = 50

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon
	server *http.Server

	mu   sync.Mutex
	addr net.Addr
}

// EntryView is the JSON shape of a queue entry.
type EntryView struct {
	ID          int64      `json:"id"`
	Retry       int        `json:"retry"`
	LastFailure *time.Time `json:"last_failure,omitempty"`
	SourcePath  string     `json:"source_path"`
	State       string     `json:"state"`
}

// DocumentView is the JSON shape of a stored document without its payload.
type DocumentView struct {
	ID           string    `json:"id"`
	SourcePath   string    `json:"source_path"`
	ClassID      string    `json:"class_id,omitempty"`
	Title        string    `json:"title"`
	Sender       string    `json:"sender,omitempty"`
	Recipient    string    `json:"recipient,omitempty"`
	DateCreated  time.Time `json:"date_created"`
	DateReceived time.Time `json:"date_received"`
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	if cfg == nil || d == nil {
		return nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}
	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(cfg.Paths.APIToken),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes(token string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(token, s.handleStatus))
	mux.HandleFunc("/api/queue", authMiddleware(token, s.handleQueue))
	mux.HandleFunc("/api/documents", authMiddleware(token, s.handleDocuments))
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", s.metricsHandler())
	return mux
}

// serve listens on the configured address until ctx is done.
func (s *apiServer) serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.addr = listener.Addr()
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(listener)
	}()
	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api serve: %w", err)
	}
}

func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addr == nil {
		return ""
	}
	return s.addr.String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()))
}

func (s *apiServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	entries, err := s.daemon.store.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]EntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, entryView(entry))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"entries": views})
}

func (s *apiServer) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit := defaultDocumentLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	docs, err := s.daemon.store.ListDocuments(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]DocumentView, 0, len(docs))
	for _, doc := range docs {
		views = append(views, documentView(doc))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"documents": views})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	health, err := s.daemon.store.CheckHealth(r.Context())
	status := http.StatusOK
	if err != nil || health.IntegrityCheck != "ok" {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, health)
}

// metricsHandler refreshes the queue depth gauges before each scrape.
func (s *apiServer) metricsHandler() http.Handler {
	next := promhttp.Handler()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if stats, err := s.daemon.store.Stats(r.Context()); err == nil {
			metrics.QueueDepth.WithLabelValues("ready").Set(float64(stats.Ready))
			metrics.QueueDepth.WithLabelValues("failed").Set(float64(stats.Failed))
		}
		next.ServeHTTP(w, r)
	})
}

func entryView(entry queue.Entry) EntryView {
	state := "failed"
	if entry.Ready() {
		state = "ready"
	}
	return EntryView{
		ID:          entry.ID,
		Retry:       entry.Retry,
		LastFailure: entry.LastFailure,
		SourcePath:  entry.SourcePath,
		State:       state,
	}
}

func documentView(doc queue.Document) DocumentView {
	return DocumentView{
		ID:           doc.ID,
		SourcePath:   doc.SourcePath,
		ClassID:      doc.ClassID,
		Title:        doc.Title,
		Sender:       doc.Sender,
		Recipient:    doc.Recipient,
		DateCreated:  doc.DateCreated,
		DateReceived: doc.DateReceived,
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
