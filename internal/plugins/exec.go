package plugins

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"docmonitor/internal/logging"
)

const stderrLimit = 4096

// ExecHandler runs an external executable with the document row as JSON on
// stdin.
type ExecHandler struct {
	Path    string
	Timeout time.Duration
	Logger  *slog.Logger
}

// HandleDocument runs the executable and waits for it to exit.
func (h *ExecHandler) HandleDocument(ctx context.Context, row map[string]any) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode document row: %w", err)
	}
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, h.Path)
	cmd.Dir = filepath.Dir(h.Path)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	started := time.Now()
	runErr := cmd.Run()
	if h.Logger != nil {
		h.Logger.Debug("plugin finished",
			logging.String("plugin", filepath.Base(h.Path)),
			logging.Duration("elapsed", time.Since(started)),
			logging.String("stdout", truncate(stdout.String())),
		)
	}
	if runErr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s timed out after %s", filepath.Base(h.Path), h.Timeout)
		}
		return fmt.Errorf("%s: %w: %s", filepath.Base(h.Path), runErr, truncate(stderr.String()))
	}
	return nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrLimit {
		return s[:stderrLimit] + "..."
	}
	return s
}

// Discover registers an ExecHandler for every executable file in dir named
// docClassHandler_<ClassID>, with any extension stripped from the class id.
// A missing directory yields an empty registry.
func Discover(dir string, timeout time.Duration, logger *slog.Logger) (*Registry, error) {
	registry := NewRegistry()
	if strings.TrimSpace(dir) == "" {
		return registry, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return registry, nil
		}
		return nil, fmt.Errorf("read plugin dir: %w", err)
	}

	logger = logging.NewComponentLogger(logger, "plugins")
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, FilePrefix) {
			continue
		}
		classID := strings.TrimSuffix(strings.TrimPrefix(name, FilePrefix), filepath.Ext(name))
		if classID == "" {
			continue
		}
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if unix.Access(path, unix.X_OK) != nil {
			logger.Warn("plugin not executable; skipping",
				logging.String("plugin", name),
				logging.String(logging.FieldEventType, "plugin_not_executable"),
				logging.String(logging.FieldErrorHint, "chmod +x the handler file"),
				logging.String(logging.FieldImpact, "documents of this class are not post-processed"),
			)
			continue
		}
		registry.Register(classID, &ExecHandler{Path: path, Timeout: timeout, Logger: logger})
		logger.Info("plugin registered",
			logging.String(logging.FieldClassID, classID),
			logging.String("plugin", name),
		)
	}
	return registry, nil
}
