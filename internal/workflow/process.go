package workflow

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"docmonitor/internal/classifier"
	"docmonitor/internal/logging"
	"docmonitor/internal/metrics"
	"docmonitor/internal/notifications"
	"docmonitor/internal/queue"
	"docmonitor/internal/services"
	"docmonitor/internal/thumbnail"
)

const (
	stageStability = "stability"
	stageClassify  = "classify"
	stagePersist   = "persist"
)

// processEntry handles one claimed entry. Errors are recorded on the queue,
// never returned; panics count as failures.
func (c *Coordinator) processEntry(parent context.Context, entry *queue.Entry) {
	ctx := services.WithEntryID(context.WithoutCancel(parent), entry.ID)
	logger := logging.WithContext(ctx, c.logger).With(logging.String(logging.FieldSourcePath, entry.SourcePath))
	c.setLastEntry(entry)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic while processing entry: %v", r)
			logger.Error("entry processing panicked",
				logging.Error(err),
				logging.String("stack", string(debug.Stack())),
				logging.String(logging.FieldEventType, "entry_panic"),
				logging.String(logging.FieldErrorHint, "report this crash with the log excerpt"),
			)
			c.settle(ctx, logger, entry, err)
		}
	}()

	doc, err := c.classifyEntry(ctx, logger, entry)
	if errors.Is(err, queue.ErrEntryChanged) {
		logger.Info("entry settled by another consumer; result discarded",
			logging.String(logging.FieldEventType, "entry_taken"),
		)
		return
	}
	if err != nil {
		c.settle(ctx, logger, entry, err)
		return
	}

	metrics.EntriesProcessed.WithLabelValues(metrics.OutcomeClassified).Inc()
	c.recordOutcome(func(n *Counts) { n.Classified++ })
	logger.Info("document stored",
		logging.String(logging.FieldDocumentID, doc.ID),
		logging.String(logging.FieldClassID, doc.ClassID),
		logging.String("title", doc.Title),
		logging.String(logging.FieldEventType, "document_classified"),
	)
	c.afterCommit(ctx, logger, doc, notifications.ReasonClassified)
}

// classifyEntry runs every step up to and including the commit. The queue row
// is deleted by the same transaction that stores the document.
func (c *Coordinator) classifyEntry(ctx context.Context, logger *slog.Logger, entry *queue.Entry) (queue.Document, error) {
	path := entry.SourcePath
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return queue.Document{}, services.Wrap(services.ErrNotFound, stageStability, "stat", "source file vanished", err)
		}
		return queue.Document{}, services.Wrap(services.ErrTransient, stageStability, "stat", "", err)
	}
	if !info.Mode().IsRegular() {
		return queue.Document{}, services.Wrap(services.ErrNotFound, stageStability, "stat", "not a regular file", nil)
	}
	if !c.cfg.WatchesExtension(filepath.Ext(path)) {
		return queue.Document{}, services.Wrap(services.ErrUnsupported, stageStability, "", filepath.Ext(path), nil)
	}

	if !c.probe.Wait(services.WithStage(ctx, stageStability), path) {
		return queue.Document{}, services.Wrap(services.ErrUnstable, stageStability, "wait", "file did not settle", nil)
	}

	prompt, err := c.Prompt(ctx)
	if err != nil {
		return queue.Document{}, services.Wrap(services.ErrConfiguration, stageClassify, "prompt", "", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return queue.Document{}, services.Wrap(services.ErrNotFound, stageClassify, "read", "source file vanished", err)
		}
		return queue.Document{}, services.Wrap(services.ErrTransient, stageClassify, "read", "", err)
	}

	req := classifier.Request{
		Path:     path,
		MIMEType: classifier.DetectMIMEType(path),
		Data:     data,
		Prompt:   prompt,
	}
	started := time.Now()
	result, err := c.guard.Invoke(services.WithStage(ctx, stageClassify), filepath.Base(path), func(ctx context.Context) (*classifier.Result, error) {
		return c.classifier.Classify(ctx, req)
	})
	if err != nil {
		metrics.ClassifierLatency.WithLabelValues(metrics.ResultError).Observe(time.Since(started).Seconds())
		return queue.Document{}, services.Wrap(services.ErrClassifier, stageClassify, "invoke", "", err)
	}
	metrics.ClassifierLatency.WithLabelValues(metrics.ResultOK).Observe(time.Since(started).Seconds())
	logger.Debug("classifier returned",
		logging.String(logging.FieldClassID, result.ClassID()),
		logging.Float64("confidence", result.Confidence()),
		logging.Duration("elapsed", time.Since(started)),
	)

	c.attachThumbnail(logger, path, req.MIMEType, result)

	doc, err := documentFromResult(result, path, c.now())
	if err != nil {
		return queue.Document{}, services.Wrap(services.ErrPersistence, stagePersist, "encode", "", err)
	}
	stored, err := c.store.CommitDocument(services.WithStage(ctx, stagePersist), entry.ID, doc)
	if err != nil {
		return queue.Document{}, services.Wrap(services.ErrPersistence, stagePersist, "commit", "", err)
	}
	return stored, nil
}

// settle records err on the queue: vanished and unsupported files are
// acknowledged, everything else is marked failed for the sweep.
func (c *Coordinator) settle(ctx context.Context, logger *slog.Logger, entry *queue.Entry, err error) {
	c.setLastError(err)
	switch services.DispositionFor(err) {
	case services.DispositionDrop:
		metrics.EntriesProcessed.WithLabelValues(metrics.OutcomeDropped).Inc()
		c.recordOutcome(func(n *Counts) { n.Dropped++ })
		logger.Info("entry dropped", logging.Error(err), logging.String(logging.FieldEventType, "entry_dropped"))
		if ackErr := c.store.Ack(ctx, entry.ID); ackErr != nil {
			logging.ErrorWithContext(logger, "failed to remove dropped entry", "queue_ack_failed",
				logging.Error(ackErr),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
		}
	default:
		outcome := metrics.OutcomeFailed
		if errors.Is(err, services.ErrUnstable) {
			outcome = metrics.OutcomeUnstable
		}
		metrics.EntriesProcessed.WithLabelValues(outcome).Inc()
		c.recordOutcome(func(n *Counts) { n.Failed++ })
		logging.WarnWithContext(logger, "entry failed; will retry after cooldown", "entry_failed",
			logging.Error(err),
			logging.Int(logging.FieldRetry, entry.Retry),
			logging.String(logging.FieldErrorHint, hintFor(err)),
			logging.String(logging.FieldImpact, "document is not stored until a retry succeeds"),
		)
		if failErr := c.store.Fail(ctx, entry.ID); failErr != nil {
			logging.ErrorWithContext(logger, "failed to mark entry failed", "queue_fail_failed",
				logging.Error(failErr),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
		}
	}
}

// terminalize writes the unclassified Document for an entry past the retry
// ceiling, then acknowledges it and notifies.
func (c *Coordinator) terminalize(ctx context.Context, res queue.SweepResult) {
	entry := res.Entry
	ctx = services.WithEntryID(ctx, entry.ID)
	logger := logging.WithContext(ctx, c.logger).With(logging.String(logging.FieldSourcePath, entry.SourcePath))

	doc, err := terminalDocument(entry.SourcePath, res.Retry, c.now())
	if err == nil {
		doc, err = c.store.CommitTerminal(ctx, entry, doc)
	}
	if errors.Is(err, queue.ErrEntryChanged) {
		logger.Info("entry re-enqueued during sweep; terminal document skipped")
		return
	}
	if err != nil {
		c.setLastError(err)
		logging.ErrorWithContext(logger, "failed to store terminal document", "terminal_document_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check queue database access; the sweep retries next interval"),
		)
		return
	}
	c.recordOutcome(func(n *Counts) { n.Terminal++ })
	logging.WarnWithContext(logger, "retry limit exceeded; stored unclassified document", "retry_max_exceeded",
		logging.String(logging.FieldDocumentID, doc.ID),
		logging.Int(logging.FieldRetry, res.Retry),
		logging.String(logging.FieldErrorHint, "inspect the classifier logs for this file"),
		logging.String(logging.FieldImpact, "document stored without a class"),
	)
	c.notify(ctx, logger, doc, notifications.ReasonRetryMaxExceeded)
}

func (c *Coordinator) attachThumbnail(logger *slog.Logger, path, mimeType string, result *classifier.Result) {
	if !c.cfg.Thumbnail.Enabled {
		return
	}
	if mimeType != "application/pdf" && mimeType != "image/tiff" {
		return
	}
	encoded, err := thumbnail.Generate(path, c.cfg.Thumbnail.Size)
	if err != nil {
		logger.Debug("thumbnail skipped", logging.Error(err))
		return
	}
	result.Set("thumbnailImage", encoded)
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrUnstable):
		return "file was still being written; it is retried after the cooldown"
	case errors.Is(err, services.ErrClassifier):
		return "check classifier credentials, quota and model settings"
	case errors.Is(err, services.ErrConfiguration):
		return "check classifier.prompt_file"
	case errors.Is(err, services.ErrPersistence):
		return "check queue database access"
	default:
		return "check logs for details"
	}
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
