package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"docmonitor/internal/logging"
)

// EnqueueFunc receives the absolute path of a candidate file.
type EnqueueFunc func(ctx context.Context, path string) error

// Watcher forwards newly created or moved-in files under its roots to an
// EnqueueFunc. Directories created after Start are watched and scanned.
type Watcher struct {
	roots   []string
	exts    []string
	enqueue EnqueueFunc
	logger  *slog.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// New constructs a watcher for roots limited to the given extensions.
func New(roots, exts []string, enqueue EnqueueFunc, logger *slog.Logger) *Watcher {
	return &Watcher{
		roots:   append([]string(nil), roots...),
		exts:    normalizeExts(exts),
		enqueue: enqueue,
		logger:  logging.NewComponentLogger(logger, "watcher"),
	}
}

// Start creates missing roots, registers every directory beneath them and
// begins forwarding events.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("watcher already running")
	}
	if w.enqueue == nil {
		return errors.New("watcher requires an enqueue function")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	for _, root := range w.roots {
		if err := os.MkdirAll(root, 0o755); err != nil {
			_ = fsw.Close()
			return fmt.Errorf("create watch root %s: %w", root, err)
		}
		if err := addRecursive(fsw, root); err != nil {
			_ = fsw.Close()
			return err
		}
		w.logger.Info("watching directory", logging.String("directory", root))
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.fsw = fsw
	w.cancel = cancel
	w.running = true
	w.wg.Add(1)
	go w.loop(loopCtx)
	return nil
}

// Stop halts event processing and releases the fsnotify watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel := w.cancel
	fsw := w.fsw
	w.mu.Unlock()

	cancel()
	_ = fsw.Close()
	w.wg.Wait()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			// A move into a watched directory arrives as Create.
			if event.Has(fsnotify.Create) {
				w.handleCreate(ctx, event.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.WarnWithContext(w.logger, "filesystem watch error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "events may be missed until the next restart scan"),
			)
		}
	}
}

func (w *Watcher) handleCreate(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.IsDir() {
		if err := addRecursive(w.fsw, path); err != nil {
			w.logger.Warn("watch new directory failed",
				logging.String("directory", path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "watch_add_failed"),
				logging.String(logging.FieldErrorHint, "check directory permissions"),
				logging.String(logging.FieldImpact, "files in this directory are not picked up live"),
			)
		}
		// Files may have landed before the directory was registered.
		if _, err := Scan(ctx, []string{path}, w.exts, w.forward); err != nil {
			w.logger.Debug("scan new directory failed", logging.String("directory", path), logging.Error(err))
		}
		return
	}
	if !info.Mode().IsRegular() || !MatchesExtension(path, w.exts) {
		return
	}
	w.forward(ctx, path)
}

func (w *Watcher) forward(ctx context.Context, path string) error {
	if err := w.enqueue(ctx, path); err != nil {
		w.logger.Warn("enqueue from watch failed",
			logging.String(logging.FieldSourcePath, path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "watch_enqueue_failed"),
			logging.String(logging.FieldErrorHint, "the file is picked up by the next scan"),
			logging.String(logging.FieldImpact, "file processing delayed"),
		)
		return err
	}
	w.logger.Debug("file detected", logging.String(logging.FieldSourcePath, path))
	return nil
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func normalizeExts(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

// MatchesExtension reports whether path ends in one of exts, ignoring case.
// An empty exts matches everything.
func MatchesExtension(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, candidate := range exts {
		if strings.EqualFold(ext, candidate) {
			return true
		}
	}
	return false
}
