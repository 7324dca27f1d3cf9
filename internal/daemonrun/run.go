// Package daemonrun assembles the runtime shared by the service and the
// one-shot CLI commands.
package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"docmonitor/internal/classifier"
	"docmonitor/internal/config"
	"docmonitor/internal/daemon"
	"docmonitor/internal/logging"
	"docmonitor/internal/plugins"
	"docmonitor/internal/queue"
	"docmonitor/internal/services"
	"docmonitor/internal/workflow"
)

// Options configures service runtime behavior.
type Options struct {
	LogLevel string
	// Directories replaces the configured watch directories when non-empty.
	Directories   []string
	NoInitialScan bool
}

// Runtime bundles the store, classifier and coordinator built from config.
type Runtime struct {
	Config      *config.Config
	Logger      *slog.Logger
	Store       *queue.Store
	Coordinator *workflow.Coordinator

	gemini *classifier.Gemini
}

// Open prepares directories, opens the store, connects the classifier and
// discovers plugins. Close releases everything it opened.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.RequireClassifier(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open queue store: %w", err)
	}
	gemini, err := classifier.NewGemini(ctx, cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	opts := []workflow.Option{}
	if cfg.Plugins.Enabled {
		registry, err := plugins.Discover(cfg.Paths.PluginDir, cfg.PluginTimeout(), logger)
		if err != nil {
			logging.WarnWithContext(logger, "plugin discovery failed", "plugin_discovery_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check paths.plugin_dir permissions"),
				logging.String(logging.FieldImpact, "documents are stored without post-processing"),
			)
		} else {
			opts = append(opts, workflow.WithPlugins(registry))
		}
	}

	return &Runtime{
		Config:      cfg,
		Logger:      logger,
		Store:       store,
		Coordinator: workflow.New(cfg, store, gemini, logger, opts...),
		gemini:      gemini,
	}, nil
}

// Close releases the classifier client and the store.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.gemini != nil {
		errs = append(errs, r.gemini.Close())
	}
	if r.Store != nil {
		errs = append(errs, r.Store.Close())
	}
	return errors.Join(errs...)
}

// Run starts the docmonitor service and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	applyOptions(cfg, opts)

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, closeLogs, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = closeLogs() }()
	runCtx := services.WithRequestID(signalCtx, uuid.NewString())
	logger = logging.WithContext(runCtx, logger)

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	rt, err := Open(runCtx, cfg, logger)
	if err != nil {
		logger.Error("runtime initialisation failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "runtime_init_failed"),
			logging.String(logging.FieldErrorHint, "check classifier settings and database path"),
		)
		return err
	}
	defer rt.Close()

	d, err := daemon.New(cfg, rt.Store, logger, rt.Coordinator)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	return d.Run(runCtx)
}

func applyOptions(cfg *config.Config, opts Options) {
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}
	if len(opts.Directories) > 0 {
		dirs := make([]string, 0, len(opts.Directories))
		for _, dir := range opts.Directories {
			if expanded, err := config.ExpandPath(dir); err == nil && expanded != "" {
				dirs = append(dirs, expanded)
			}
		}
		if len(dirs) > 0 {
			cfg.Watch.Directories = dirs
		}
	}
	if opts.NoInitialScan {
		cfg.Watch.InitialScan = false
	}
}
