package workflow

import (
	"context"
	"errors"
	"log/slog"

	"docmonitor/internal/logging"
	"docmonitor/internal/metrics"
	"docmonitor/internal/plugins"
	"docmonitor/internal/queue"
	"docmonitor/internal/services"
)

const (
	stageNotify = "notify"
	stagePlugin = "plugin"
)

// afterCommit fires the side effects of a stored document. Both are best
// effort: failures are logged and the entry stays acknowledged.
func (c *Coordinator) afterCommit(ctx context.Context, logger *slog.Logger, doc queue.Document, reason string) {
	c.notify(ctx, logger, doc, reason)
	c.dispatchPlugin(ctx, logger, doc)
}

func (c *Coordinator) notify(ctx context.Context, logger *slog.Logger, doc queue.Document, reason string) {
	if c.notifier == nil {
		return
	}
	err := c.notifier.DocumentInserted(services.WithStage(ctx, stageNotify), doc.ID, doc.SourcePath, reason)
	if err != nil {
		metrics.Notifications.WithLabelValues(reason, metrics.ResultError).Inc()
		logging.WarnWithContext(logger, "document notification failed", "notify_failed",
			logging.Error(err),
			logging.String(logging.FieldDocumentID, doc.ID),
			logging.String("reason", reason),
			logging.String(logging.FieldErrorHint, "check notifications.url and that the receiver is running"),
			logging.String(logging.FieldImpact, "receiver will not learn about this document until it polls"),
		)
		return
	}
	metrics.Notifications.WithLabelValues(reason, metrics.ResultOK).Inc()
	logger.Debug("document notification sent", logging.String(logging.FieldDocumentID, doc.ID), logging.String("reason", reason))
}

func (c *Coordinator) dispatchPlugin(ctx context.Context, logger *slog.Logger, doc queue.Document) {
	if c.plugins == nil || doc.ClassID == "" {
		return
	}
	ctx = services.WithStage(ctx, stagePlugin)
	err := c.plugins.Dispatch(ctx, doc.ClassID, func(ctx context.Context) (map[string]any, error) {
		return c.store.GetDocumentRow(ctx, doc.ID)
	})
	switch {
	case err == nil:
		if _, ok := c.plugins.Lookup(doc.ClassID); ok {
			metrics.PluginDispatches.WithLabelValues(doc.ClassID, metrics.ResultOK).Inc()
			logger.Info("plugin handled document",
				logging.String(logging.FieldDocumentID, doc.ID),
				logging.String(logging.FieldClassID, doc.ClassID),
			)
		}
	case errors.Is(err, plugins.ErrNoHandler):
		logger.Debug("no plugin for class", logging.String(logging.FieldClassID, doc.ClassID))
	default:
		metrics.PluginDispatches.WithLabelValues(doc.ClassID, metrics.ResultError).Inc()
		logging.WarnWithContext(logger, "plugin handler failed", "plugin_failed",
			logging.Error(err),
			logging.String(logging.FieldDocumentID, doc.ID),
			logging.String(logging.FieldClassID, doc.ClassID),
			logging.String(logging.FieldErrorHint, "run the handler manually with the document row on stdin"),
			logging.String(logging.FieldImpact, "document is stored; only post-processing was skipped"),
		)
	}
}
