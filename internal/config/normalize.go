package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeWatch(); err != nil {
		return err
	}
	if err := c.normalizeStability(); err != nil {
		return err
	}
	if err := c.normalizeQueue(); err != nil {
		return err
	}
	if err := c.normalizeClassifier(); err != nil {
		return err
	}
	if err := c.normalizeThumbnail(); err != nil {
		return err
	}
	if err := c.normalizeNotifications(); err != nil {
		return err
	}
	if err := c.normalizePlugins(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if value, ok := envString("MONITOR_PLUGIN_DIR"); ok {
		c.Paths.PluginDir = value
	}
	if c.Paths.PluginDir, err = expandPath(c.Paths.PluginDir); err != nil {
		return fmt.Errorf("paths.plugin_dir: %w", err)
	}

	if value, ok := envString("DATABASE_PATH"); ok {
		c.Paths.DatabasePath = value
	} else if value, ok := envString("DATABASE_URL"); ok {
		c.Paths.DatabasePath = databasePathFromURL(value)
	}
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		c.Paths.DatabasePath = filepath.Join(c.Paths.DataDir, defaultDatabaseName)
	}
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return fmt.Errorf("paths.database_path: %w", err)
	}

	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if value, ok := envString("MONITOR_API_TOKEN"); ok && c.Paths.APIToken == "" {
		c.Paths.APIToken = value
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func databasePathFromURL(value string) string {
	for _, prefix := range []string{"sqlite:///", "sqlite://", "file:"} {
		if strings.HasPrefix(value, prefix) {
			return strings.TrimPrefix(value, prefix)
		}
	}
	return value
}

func (c *Config) normalizeWatch() error {
	if dirs := watchDirsFromEnv(); len(dirs) > 0 {
		c.Watch.Directories = dirs
	}
	seen := make(map[string]struct{}, len(c.Watch.Directories))
	dirs := make([]string, 0, len(c.Watch.Directories))
	for _, dir := range c.Watch.Directories {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		expanded, err := expandPath(strings.TrimSpace(dir))
		if err != nil {
			return fmt.Errorf("watch.directories: %w", err)
		}
		if _, ok := seen[expanded]; ok {
			continue
		}
		seen[expanded] = struct{}{}
		dirs = append(dirs, expanded)
	}
	c.Watch.Directories = dirs

	if value, ok := envString("MONITOR_FILE_TYPES"); ok {
		c.Watch.FileTypes = splitFileTypes(value)
	}
	c.Watch.FileTypes = normalizeFileTypes(c.Watch.FileTypes)
	if len(c.Watch.FileTypes) == 0 {
		c.Watch.FileTypes = splitFileTypes(defaultFileTypes)
	}

	if err := envInt("MONITOR_SCAN_INTERVAL_SECONDS", &c.Watch.ScanIntervalSeconds); err != nil {
		return err
	}
	if c.Watch.ScanIntervalSeconds <= 0 {
		c.Watch.ScanIntervalSeconds = defaultScanIntervalSeconds
	}
	return nil
}

func normalizeFileTypes(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		ext := strings.ToLower(strings.TrimSpace(value))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

func (c *Config) normalizeStability() error {
	if err := envInt("MONITOR_STABLE_CHECK_COUNT", &c.Stability.CheckCount); err != nil {
		return err
	}
	if err := envFloat("MONITOR_STABLE_CHECK_INTERVAL_SECONDS", &c.Stability.CheckIntervalSeconds); err != nil {
		return err
	}
	if err := envFloat("MONITOR_STABLE_TIMEOUT_SECONDS", &c.Stability.TimeoutSeconds); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizeQueue() error {
	if err := envInt("MONITOR_RETRY_MAX", &c.Queue.RetryMax); err != nil {
		return err
	}
	if c.Queue.RetryCooldownSeconds <= 0 {
		c.Queue.RetryCooldownSeconds = c.Watch.ScanIntervalSeconds
	}
	if c.Queue.PollIntervalSeconds <= 0 {
		c.Queue.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	if c.Queue.ShutdownGraceSeconds <= 0 {
		c.Queue.ShutdownGraceSeconds = defaultShutdownGraceSeconds
	}
	return nil
}

func (c *Config) normalizeClassifier() error {
	if value, ok := envString("GOOGLE_CLOUD_PROJECT"); ok {
		c.Classifier.Project = value
	}
	if value, ok := envString("GOOGLE_CLOUD_LOCATION"); ok {
		c.Classifier.Location = value
	}
	if value, ok := envString("GEMINI_API_MODEL"); ok {
		c.Classifier.Model = value
	}
	if value, ok := envString("GOOGLE_APPLICATION_CREDENTIALS"); ok {
		c.Classifier.CredentialsFile = value
	}
	if value, ok := envString("MONITOR_PROMPT_FILE"); ok {
		c.Classifier.PromptFile = value
	}
	c.Classifier.Project = strings.TrimSpace(c.Classifier.Project)
	c.Classifier.Location = strings.TrimSpace(c.Classifier.Location)
	if c.Classifier.Location == "" {
		c.Classifier.Location = defaultClassifierLocation
	}
	c.Classifier.Model = strings.TrimSpace(c.Classifier.Model)
	if c.Classifier.Model == "" {
		c.Classifier.Model = defaultClassifierModel
	}

	var err error
	if c.Classifier.CredentialsFile, err = expandPath(strings.TrimSpace(c.Classifier.CredentialsFile)); err != nil {
		return fmt.Errorf("classifier.credentials_file: %w", err)
	}
	if c.Classifier.PromptFile, err = expandPath(strings.TrimSpace(c.Classifier.PromptFile)); err != nil {
		return fmt.Errorf("classifier.prompt_file: %w", err)
	}

	// The misspelt names match deployments that predate this service.
	if err := envOptionalFloat("GEMINI_GENNERATION_TEMPERATURE", &c.Classifier.Temperature); err != nil {
		return err
	}
	if err := envOptionalInt("GEMINI_GENNERATION_TOPK", &c.Classifier.TopK); err != nil {
		return err
	}
	if err := envOptionalFloat("GEMINI_GENNERATION_TOPP", &c.Classifier.TopP); err != nil {
		return err
	}

	if err := envInt("MONITOR_GEMINI_PROGRESS_INTERVAL_SECONDS", &c.Classifier.ProgressIntervalSeconds); err != nil {
		return err
	}
	if c.Classifier.ProgressIntervalSeconds == 0 {
		c.Classifier.ProgressIntervalSeconds = defaultProgressIntervalSeconds
	}
	if c.Classifier.ProgressIntervalSeconds < minProgressIntervalSeconds {
		c.Classifier.ProgressIntervalSeconds = minProgressIntervalSeconds
	}
	return nil
}

func (c *Config) normalizeThumbnail() error {
	envBool("THUMBNAIL", &c.Thumbnail.Enabled)
	if err := envInt("THUMBNAIL_SIZE", &c.Thumbnail.Size); err != nil {
		return err
	}
	if c.Thumbnail.Size == 0 {
		c.Thumbnail.Size = defaultThumbnailSize
	}
	if c.Thumbnail.Size < minThumbnailSize {
		c.Thumbnail.Size = minThumbnailSize
	}
	return nil
}

func (c *Config) normalizeNotifications() error {
	envBool("MONITOR_EVENT_NOTIFY_ENABLED", &c.Notifications.Enabled)
	envBool("MONITOR_EVENT_NOTIFY_TRUST_SELF_SIGNED", &c.Notifications.TrustSelfSigned)
	envBool("API_HTTPS", &c.Notifications.APIHTTPS)
	if value, ok := envString("MONITOR_EVENT_NOTIFY_URL"); ok {
		c.Notifications.URL = value
	}
	if value, ok := envString("MONITOR_EVENT_NOTIFY_TOKEN"); ok {
		c.Notifications.Token = value
	}
	if value, ok := envString("API_HOST"); ok {
		c.Notifications.APIHost = value
	}
	if err := envInt("API_PORT", &c.Notifications.APIPort); err != nil {
		return err
	}
	if err := envFloat("MONITOR_EVENT_NOTIFY_TIMEOUT_SECONDS", &c.Notifications.TimeoutSeconds); err != nil {
		return err
	}

	c.Notifications.URL = strings.TrimSpace(c.Notifications.URL)
	c.Notifications.Token = strings.TrimSpace(c.Notifications.Token)
	c.Notifications.APIHost = strings.TrimSpace(c.Notifications.APIHost)
	switch c.Notifications.APIHost {
	case "", "0.0.0.0", "::", "[::]":
		c.Notifications.APIHost = defaultNotifyAPIHost
	}
	if c.Notifications.APIPort <= 0 {
		c.Notifications.APIPort = defaultNotifyAPIPort
	}
	if c.Notifications.TimeoutSeconds <= 0 {
		c.Notifications.TimeoutSeconds = defaultNotifyTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizePlugins() error {
	envBool("MONITOR_PLUGINS_ENABLED", &c.Plugins.Enabled)
	if c.Plugins.TimeoutSeconds <= 0 {
		c.Plugins.TimeoutSeconds = defaultPluginTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizeLogging() {
	if value, ok := envString("LOG_LEVEL"); ok {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// NotifyURL returns the webhook target: the configured URL, or the local API
// endpoint derived from the api host, port and scheme settings.
func (c *Config) NotifyURL() string {
	if c.Notifications.URL != "" {
		return c.Notifications.URL
	}
	scheme := "http"
	if c.Notifications.APIHTTPS {
		scheme = "https"
	}
	host := c.Notifications.APIHost
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]"
	}
	return fmt.Sprintf("%s://%s:%d%s", scheme, host, c.Notifications.APIPort, defaultNotifyPath)
}
