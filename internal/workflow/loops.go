package workflow

import (
	"context"
	"errors"
	"time"

	"docmonitor/internal/logging"
	"docmonitor/internal/metrics"
	"docmonitor/internal/queue"
)

func (c *Coordinator) drainLoop(ctx context.Context) {
	defer c.wg.Done()
	for {
		if _, err := c.drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.setLastError(err)
			c.logger.Error("failed to fetch next queue entry",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_fetch_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
		}
		select {
		case <-ctx.Done():
			return
		case <-c.wake:
		case <-time.After(c.pollInterval()):
		}
	}
}

func (c *Coordinator) sweepLoop(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.scanInterval())
	defer ticker.Stop()
	for {
		if err := c.SweepOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.setLastError(err)
			logging.WarnWithContext(c.logger, "retry sweep failed", "sweep_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check queue database access"),
				logging.String(logging.FieldImpact, "failed entries wait for the next sweep"),
			)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// DrainOnce processes ready entries until none remain and returns how many
// were handled. It is used by one-shot CLI scans.
func (c *Coordinator) DrainOnce(ctx context.Context) (int, error) {
	if c.classifier == nil {
		return 0, errors.New("coordinator requires a classifier")
	}
	return c.drain(ctx)
}

// drain claims and processes entries under the processing mutex. An entry
// that comes back ready in the same pass means its outcome could not be
// recorded, so the pass ends rather than spinning on it.
func (c *Coordinator) drain(ctx context.Context) (int, error) {
	c.processMu.Lock()
	defer c.processMu.Unlock()

	seen := make(map[int64]struct{})
	handled := 0
	for {
		if err := ctx.Err(); err != nil {
			return handled, err
		}
		entry, err := c.store.ClaimNextReady(ctx)
		if err != nil {
			return handled, err
		}
		if entry == nil {
			return handled, nil
		}
		if _, dup := seen[entry.ID]; dup {
			c.logger.Warn("entry still ready after processing; pausing drain",
				logging.Int64(logging.FieldEntryID, entry.ID),
				logging.String(logging.FieldSourcePath, entry.SourcePath),
				logging.String(logging.FieldEventType, "drain_stalled"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
				logging.String(logging.FieldImpact, "entry is retried on the next wake or poll"),
			)
			return handled, nil
		}
		seen[entry.ID] = struct{}{}
		c.processEntry(ctx, entry)
		handled++
	}
}

// SweepOnce runs one retry sweep: entries past the ceiling are terminalised
// and acknowledged, promoted entries wake the drain loop.
func (c *Coordinator) SweepOnce(ctx context.Context) error {
	results, err := c.store.Sweep(ctx, c.cfg.RetryCooldown(), c.cfg.Queue.RetryMax)
	if err != nil {
		return err
	}
	requeued := 0
	for _, res := range results {
		switch res.Kind {
		case queue.SweepTerminal:
			c.terminalize(ctx, res)
		case queue.SweepRequeued:
			requeued++
			c.logger.Info("entry requeued for retry",
				logging.Int64(logging.FieldEntryID, res.Entry.ID),
				logging.String(logging.FieldSourcePath, res.Entry.SourcePath),
				logging.Int(logging.FieldRetry, res.Retry),
			)
		}
		metrics.SweepResults.WithLabelValues(string(res.Kind)).Inc()
	}
	if requeued > 0 {
		c.Wake()
	}
	return nil
}
