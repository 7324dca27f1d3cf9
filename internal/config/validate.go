package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTiming(); err != nil {
		return err
	}
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateClassifier(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		return errors.New("paths.database_path must be set")
	}
	if len(c.Watch.FileTypes) == 0 {
		return errors.New("watch.file_types must list at least one extension")
	}
	return nil
}

func (c *Config) validateTiming() error {
	if err := ensurePositiveMap(map[string]int{
		"watch.scan_interval_seconds":          c.Watch.ScanIntervalSeconds,
		"stability.check_count":                c.Stability.CheckCount,
		"queue.retry_cooldown_seconds":         c.Queue.RetryCooldownSeconds,
		"queue.poll_interval_seconds":          c.Queue.PollIntervalSeconds,
		"queue.shutdown_grace_seconds":         c.Queue.ShutdownGraceSeconds,
		"classifier.progress_interval_seconds": c.Classifier.ProgressIntervalSeconds,
		"plugins.timeout_seconds":              c.Plugins.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Stability.CheckIntervalSeconds <= 0 {
		return errors.New("stability.check_interval_seconds must be positive")
	}
	if c.Stability.TimeoutSeconds <= 0 {
		return errors.New("stability.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateQueue() error {
	if c.Queue.RetryMax < 0 {
		return errors.New("queue.retry_max must be >= 0")
	}
	return nil
}

func (c *Config) validateClassifier() error {
	if c.Classifier.Temperature != nil && (*c.Classifier.Temperature < 0 || *c.Classifier.Temperature > 2) {
		return errors.New("classifier.temperature must be between 0 and 2")
	}
	if c.Classifier.TopK != nil && *c.Classifier.TopK <= 0 {
		return errors.New("classifier.top_k must be positive")
	}
	if c.Classifier.TopP != nil && (*c.Classifier.TopP <= 0 || *c.Classifier.TopP > 1) {
		return errors.New("classifier.top_p must be in (0, 1]")
	}
	return nil
}

// RequireClassifier reports whether the classifier can be constructed. Commands
// that never classify (listing, config) skip this check.
func (c *Config) RequireClassifier() error {
	if c.Classifier.Project == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/docmonitor/config.toml"
		}
		return fmt.Errorf("classifier.project is required. Set GOOGLE_CLOUD_PROJECT or edit %s (create with 'docmonitor config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if !c.Notifications.Enabled {
		return nil
	}
	parsed, err := url.Parse(c.NotifyURL())
	if err != nil {
		return fmt.Errorf("notifications.url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("notifications.url must use http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("notifications.url must include a host")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
