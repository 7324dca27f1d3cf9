package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"docmonitor/internal/logging"
)

const (
	defaultProgressInterval = 60 * time.Second
	defaultPollInterval     = time.Second
)

// Guard runs a classification call in its own goroutine and logs progress
// while waiting. It never cancels the call and imposes no timeout of its own.
type Guard struct {
	// Progress is how often a waiting line is logged.
	Progress time.Duration
	// Poll is the wait cadence.
	Poll   time.Duration
	Logger *slog.Logger
}

// Invoke runs fn and returns its result or error unchanged. A panic inside fn
// is returned as an error.
func (g *Guard) Invoke(ctx context.Context, name string, fn func(context.Context) (*Result, error)) (*Result, error) {
	type outcome struct {
		result *Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("classifier panic: %v\n%s", r, debug.Stack())}
			}
		}()
		res, err := fn(ctx)
		done <- outcome{result: res, err: err}
	}()

	progress, poll := g.intervals()
	logger := logging.NewNop()
	if g != nil && g.Logger != nil {
		logger = g.Logger
	}

	started := time.Now()
	nextProgress := started.Add(progress)
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case out := <-done:
			if out.err == nil && out.result == nil {
				return nil, fmt.Errorf("classifier finished without a result: %s", name)
			}
			return out.result, out.err
		case now := <-ticker.C:
			if now.Before(nextProgress) {
				continue
			}
			logger.Info("classifier still waiting",
				logging.String("file", name),
				logging.Duration("elapsed", now.Sub(started).Round(10*time.Millisecond)),
			)
			nextProgress = now.Add(progress)
		}
	}
}

func (g *Guard) intervals() (time.Duration, time.Duration) {
	progress, poll := defaultProgressInterval, defaultPollInterval
	if g != nil {
		if g.Progress > 0 {
			progress = g.Progress
		}
		if g.Poll > 0 {
			poll = g.Poll
		}
	}
	return progress, poll
}
