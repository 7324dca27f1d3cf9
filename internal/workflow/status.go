package workflow

import (
	"context"
	"fmt"
	"os"
	"strings"

	"docmonitor/internal/classifier"
	"docmonitor/internal/logging"
	"docmonitor/internal/queue"
)

// Counts tallies entry outcomes since the coordinator was created.
type Counts struct {
	Classified int `json:"classified"`
	Dropped    int `json:"dropped"`
	Failed     int `json:"failed"`
	Terminal   int `json:"terminal"`
}

// StatusSummary represents lightweight coordinator diagnostics.
type StatusSummary struct {
	Running    bool         `json:"running"`
	LastError  string       `json:"last_error,omitempty"`
	LastEntry  *queue.Entry `json:"last_entry,omitempty"`
	QueueStats queue.Stats  `json:"queue"`
	Counts     Counts       `json:"counts"`
}

// Status returns the latest coordinator information.
func (c *Coordinator) Status(ctx context.Context) StatusSummary {
	c.mu.RLock()
	summary := StatusSummary{Running: c.running, Counts: c.counts}
	if c.lastErr != nil {
		summary.LastError = c.lastErr.Error()
	}
	if c.lastEntry != nil {
		entry := *c.lastEntry
		summary.LastEntry = &entry
	}
	c.mu.RUnlock()

	stats, err := c.store.Stats(ctx)
	if err != nil {
		c.logger.Warn("failed to read queue stats",
			logging.Error(err),
			logging.String(logging.FieldEventType, "queue_stats_failed"),
			logging.String(logging.FieldErrorHint, "check queue database access"),
			logging.String(logging.FieldImpact, "status omits queue counts"),
		)
	}
	summary.QueueStats = stats
	return summary
}

// Prompt composes the classifier instructions from the base prompt file (or
// the embedded default) and the enabled document classes.
func (c *Coordinator) Prompt(ctx context.Context) (string, error) {
	base, err := classifier.LoadBasePrompt(c.cfg.Classifier.PromptFile)
	if err != nil {
		return "", err
	}
	classes, err := c.store.EnabledClassPrompts(ctx)
	if err != nil {
		return "", fmt.Errorf("load document classes: %w", err)
	}
	return classifier.BuildPrompt(base, classes), nil
}

// EnvironmentSummary describes the effective runtime settings, logged once at
// startup.
func (c *Coordinator) EnvironmentSummary() []logging.Attr {
	notify := "disabled"
	if url := c.cfg.NotifyURL(); c.cfg.Notifications.Enabled && url != "" {
		notify = url
	}
	cwd, _ := os.Getwd()
	return []logging.Attr{
		logging.String("directories", strings.Join(c.cfg.Watch.Directories, ",")),
		logging.String("file_types", strings.Join(c.cfg.Watch.FileTypes, ",")),
		logging.String("database", c.store.Path()),
		logging.String("model", c.cfg.Classifier.Model),
		logging.String("location", c.cfg.Classifier.Location),
		logging.Bool("thumbnail", c.cfg.Thumbnail.Enabled),
		logging.String("notify", notify),
		logging.Int("plugins", len(c.plugins.Classes())),
		logging.Int("retry_max", c.cfg.Queue.RetryMax),
		logging.String("cwd", cwd),
	}
}

func (c *Coordinator) setLastError(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

func (c *Coordinator) setLastEntry(entry *queue.Entry) {
	c.mu.Lock()
	if entry != nil {
		copied := *entry
		c.lastEntry = &copied
	} else {
		c.lastEntry = nil
	}
	c.mu.Unlock()
}

func (c *Coordinator) recordOutcome(update func(*Counts)) {
	c.mu.Lock()
	update(&c.counts)
	c.mu.Unlock()
}
