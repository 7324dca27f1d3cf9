package stability

import (
	"context"
	"log/slog"
	"os"
	"time"

	"docmonitor/internal/config"
	"docmonitor/internal/logging"
)

const (
	defaultChecks   = 3
	defaultInterval = time.Second
	defaultTimeout  = 120 * time.Second
)

// Probe polls a file's size until it stops changing.
type Probe struct {
	// Checks is the number of consecutive unchanged observations required.
	Checks   int
	Interval time.Duration
	Timeout  time.Duration
	Logger   *slog.Logger
}

// NewProbe builds a probe from the stability section of cfg.
func NewProbe(cfg *config.Config, logger *slog.Logger) *Probe {
	return &Probe{
		Checks:   cfg.Stability.CheckCount,
		Interval: cfg.StabilityInterval(),
		Timeout:  cfg.StabilityTimeout(),
		Logger:   logging.NewComponentLogger(logger, "stability"),
	}
}

// Wait reports whether path kept the same size for Checks consecutive polls
// before Timeout. A missing or unreadable file resets the baseline and is
// polled again. It returns false on timeout or when ctx is done.
func (p *Probe) Wait(ctx context.Context, path string) bool {
	checks, interval, timeout := p.settings()
	logger := p.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		lastSize  int64 = -1
		unchanged int
	)
	for {
		size, ok := readableSize(path)
		switch {
		case !ok:
			lastSize, unchanged = -1, 0
		case size == lastSize:
			unchanged++
		default:
			lastSize, unchanged = size, 0
		}
		if unchanged >= checks {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			logger.Debug("file did not stabilize",
				logging.String(logging.FieldSourcePath, path),
				logging.Int64("last_size", lastSize),
				logging.Duration("timeout", timeout),
			)
			return false
		case <-ticker.C:
		}
	}
}

func (p *Probe) settings() (int, time.Duration, time.Duration) {
	checks, interval, timeout := defaultChecks, defaultInterval, defaultTimeout
	if p != nil {
		if p.Checks > 0 {
			checks = p.Checks
		}
		if p.Interval > 0 {
			interval = p.Interval
		}
		if p.Timeout > 0 {
			timeout = p.Timeout
		}
	}
	return checks, interval, timeout
}

func readableSize(path string) (int64, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return 0, false
	}
	return info.Size(), true
}
