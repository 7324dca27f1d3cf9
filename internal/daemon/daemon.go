package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"docmonitor/internal/config"
	"docmonitor/internal/logging"
	"docmonitor/internal/preflight"
	"docmonitor/internal/queue"
	"docmonitor/internal/watcher"
	"docmonitor/internal/workflow"
)

// ErrAlreadyRunning is returned when another instance holds the lock.
var ErrAlreadyRunning = errors.New("another docmonitor instance is already running")

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg         *config.Config
	logger      *slog.Logger
	store       *queue.Store
	coordinator *workflow.Coordinator
	watcher     *watcher.Watcher
	api         *apiServer

	lockPath string
	pidPath  string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool                   `json:"running"`
	PID          int                    `json:"pid"`
	Workflow     workflow.StatusSummary `json:"workflow"`
	DatabasePath string                 `json:"database_path"`
	LockFilePath string                 `json:"lock_file_path"`
	Directories  []string               `json:"directories"`
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, coord *workflow.Coordinator) (*Daemon, error) {
	if cfg == nil || store == nil || coord == nil {
		return nil, errors.New("daemon requires config, store and coordinator")
	}
	logger = logging.NewComponentLogger(logger, "daemon")

	d := &Daemon{
		cfg:         cfg,
		logger:      logger,
		store:       store,
		coordinator: coord,
		lockPath:    LockPath(cfg),
		pidPath:     PIDPath(cfg),
	}
	d.watcher = watcher.New(cfg.Watch.Directories, cfg.Watch.FileTypes, coord.EnqueueFrom("watch"), logger)
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the instance lock, records the pid and launches the
// coordinator and watcher.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	lock, err := AcquireLock(d.lockPath)
	if err != nil {
		return err
	}
	d.lock = lock
	if err := writePIDFile(d.pidPath); err != nil {
		d.releaseLock()
		return fmt.Errorf("write pid file: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.coordinator.Start(runCtx); err != nil {
		cancel()
		d.releaseLock()
		return fmt.Errorf("start coordinator: %w", err)
	}
	if err := d.watcher.Start(runCtx); err != nil {
		d.coordinator.Stop()
		cancel()
		d.releaseLock()
		return fmt.Errorf("start watcher: %w", err)
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("docmonitor started",
		logging.String("lock", d.lockPath),
		logging.Group("environment", d.coordinator.EnvironmentSummary()...),
	)
	d.logPreflight(runCtx)
	return nil
}

func (d *Daemon) logPreflight(ctx context.Context) {
	for _, result := range preflight.Failed(preflight.RunAll(ctx, d.cfg)) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "fix the path or endpoint; affected entries are retried by the sweep"),
			logging.String(logging.FieldImpact, "files may fail to process until resolved"),
		)
	}
}

// Run starts the daemon, serves the status API and performs the initial scan,
// then blocks until ctx is done or the API fails.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	defer d.Stop()

	group, groupCtx := errgroup.WithContext(ctx)
	if d.api != nil {
		group.Go(func() error {
			return d.api.serve(groupCtx)
		})
	}
	if d.cfg.Watch.InitialScan {
		group.Go(func() error {
			d.initialScan(groupCtx)
			return nil
		})
	}
	group.Go(func() error {
		<-groupCtx.Done()
		return nil
	})
	err := group.Wait()
	d.logger.Info("docmonitor shutting down")
	return err
}

func (d *Daemon) initialScan(ctx context.Context) {
	count, err := watcher.Scan(ctx, d.cfg.Watch.Directories, d.cfg.Watch.FileTypes, d.coordinator.EnqueueFrom("scan"))
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.WarnWithContext(d.logger, "initial scan failed", "initial_scan_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the watched directories are readable"),
			logging.String(logging.FieldImpact, "files that arrived while stopped are picked up only when touched"),
		)
		return
	}
	d.logger.Info("initial scan complete", logging.Int("enqueued", count))
}

// Stop stops background processing and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Swap(false) {
		return
	}
	d.watcher.Stop()
	d.coordinator.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.releaseLock()
	d.logger.Info("docmonitor stopped")
}

// releaseLock removes the pid file and drops the instance lock. Both belong
// to this process only while the lock is held.
func (d *Daemon) releaseLock() {
	if d.lock == nil {
		return
	}
	if err := os.Remove(d.pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		d.logger.Debug("failed to remove pid file", logging.Error(err))
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock",
			logging.Error(err),
			logging.String(logging.FieldEventType, "lock_release_failed"),
			logging.String(logging.FieldErrorHint, "remove the lock file if no instance is running"),
			logging.String(logging.FieldImpact, "next start may report another instance"),
		)
	}
	d.lock = nil
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Workflow:     d.coordinator.Status(ctx),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		Directories:  append([]string(nil), d.cfg.Watch.Directories...),
	}
}
