package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"docmonitor/internal/classifier"
	"docmonitor/internal/config"
	"docmonitor/internal/logging"
	"docmonitor/internal/metrics"
	"docmonitor/internal/notifications"
	"docmonitor/internal/plugins"
	"docmonitor/internal/queue"
	"docmonitor/internal/stability"
)

// Coordinator drives queue entries through stability, classification,
// persistence and side effects.
type Coordinator struct {
	cfg        *config.Config
	store      *queue.Store
	classifier classifier.Classifier
	notifier   notifications.Service
	plugins    *plugins.Registry
	probe      *stability.Probe
	guard      *classifier.Guard
	logger     *slog.Logger
	now        func() time.Time

	wake      chan struct{}
	processMu sync.Mutex

	mu        sync.RWMutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastErr   error
	lastEntry *queue.Entry
	counts    Counts
}

// Option configures optional Coordinator collaborators.
type Option func(*Coordinator)

// WithNotifier replaces the notifier built from configuration.
func WithNotifier(svc notifications.Service) Option {
	return func(c *Coordinator) {
		if svc != nil {
			c.notifier = svc
		}
	}
}

// WithPlugins sets the per-class handler registry.
func WithPlugins(reg *plugins.Registry) Option {
	return func(c *Coordinator) {
		if reg != nil {
			c.plugins = reg
		}
	}
}

// WithProbe replaces the stability probe built from configuration.
func WithProbe(p *stability.Probe) Option {
	return func(c *Coordinator) {
		if p != nil {
			c.probe = p
		}
	}
}

// WithGuard replaces the classifier invocation guard.
func WithGuard(g *classifier.Guard) Option {
	return func(c *Coordinator) {
		if g != nil {
			c.guard = g
		}
	}
}

// WithClock overrides the time source used for document timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// New constructs a coordinator. The classifier may be nil for callers that
// only enqueue or sweep; Start and DrainOnce require one.
func New(cfg *config.Config, store *queue.Store, clf classifier.Classifier, logger *slog.Logger, opts ...Option) *Coordinator {
	logger = logging.NewComponentLogger(logger, "coordinator")
	c := &Coordinator{
		cfg:        cfg,
		store:      store,
		classifier: clf,
		notifier:   notifications.NewService(cfg),
		plugins:    plugins.NewRegistry(),
		probe:      stability.NewProbe(cfg, logger),
		guard: &classifier.Guard{
			Progress: cfg.ClassifierProgressInterval(),
			Logger:   logger,
		},
		logger: logger,
		now:    time.Now,
		wake:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start launches the drain and retry-sweep loops.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return errors.New("coordinator already running")
	}
	if c.classifier == nil {
		return errors.New("coordinator requires a classifier")
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true
	c.wg.Add(2)
	go c.drainLoop(runCtx)
	go c.sweepLoop(runCtx)
	c.logger.Info("coordinator started",
		logging.Duration("poll_interval", c.pollInterval()),
		logging.Duration("scan_interval", c.scanInterval()),
		logging.Int("retry_max", c.cfg.Queue.RetryMax),
	)
	return nil
}

// Stop cancels both loops and waits for them up to the configured grace
// period. An entry being processed is allowed to finish.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	c.running = false
	c.cancel = nil
	c.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	grace := c.cfg.ShutdownGrace()
	if grace <= 0 {
		grace = 5 * time.Second
	}
	select {
	case <-done:
		c.logger.Info("coordinator stopped")
	case <-time.After(grace):
		logging.WarnWithContext(c.logger, "coordinator did not stop within grace period", "shutdown_grace_exceeded",
			logging.Duration("grace", grace),
			logging.String(logging.FieldErrorHint, "a classification may still be running"),
			logging.String(logging.FieldImpact, "the in-flight entry is retried after restart if it was not committed"),
		)
	}
}

// Wake nudges the drain loop. It never blocks.
func (c *Coordinator) Wake() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Enqueue adds path to the queue with a zero retry counter and wakes the
// drain loop. Files with unwatched extensions are ignored.
func (c *Coordinator) Enqueue(ctx context.Context, path string) error {
	return c.enqueue(ctx, path, "watch")
}

// EnqueueFrom is Enqueue with an explicit origin label for metrics.
func (c *Coordinator) EnqueueFrom(origin string) func(context.Context, string) error {
	return func(ctx context.Context, path string) error {
		return c.enqueue(ctx, path, origin)
	}
}

func (c *Coordinator) enqueue(ctx context.Context, path, origin string) error {
	if !c.cfg.WatchesExtension(filepath.Ext(path)) {
		c.logger.Debug("ignoring unwatched file type", logging.String(logging.FieldSourcePath, path))
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	id, err := c.store.Enqueue(ctx, abs, 0)
	if err != nil {
		return err
	}
	metrics.EntriesEnqueued.WithLabelValues(origin).Inc()
	c.logger.Info("file enqueued",
		logging.Int64(logging.FieldEntryID, id),
		logging.String(logging.FieldSourcePath, abs),
		logging.String("origin", origin),
	)
	c.Wake()
	return nil
}

func (c *Coordinator) pollInterval() time.Duration {
	if d := c.cfg.PollInterval(); d > 0 {
		return d
	}
	return 5 * time.Second
}

func (c *Coordinator) scanInterval() time.Duration {
	if d := c.cfg.ScanInterval(); d > 0 {
		return d
	}
	return 600 * time.Second
}
