package testsupport

import (
	"path/filepath"
	"testing"

	"docmonitor/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a per-test temp directory. Timings
// are shortened so stability checks and loops complete within milliseconds,
// and notifications are disabled unless WithNotifyURL is applied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.DatabasePath = filepath.Join(base, "data", "docmonitor.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.PluginDir = filepath.Join(base, "plugins")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Watch.Directories = []string{filepath.Join(base, "inbox")}
	cfgVal.Stability.CheckCount = 1
	cfgVal.Stability.CheckIntervalSeconds = 0.01
	cfgVal.Stability.TimeoutSeconds = 2
	cfgVal.Queue.RetryCooldownSeconds = 0
	cfgVal.Queue.PollIntervalSeconds = 1
	cfgVal.Queue.ShutdownGraceSeconds = 2
	cfgVal.Classifier.Project = "test-project"
	cfgVal.Classifier.ProgressIntervalSeconds = 5
	cfgVal.Notifications.Enabled = false
	cfgVal.Plugins.TimeoutSeconds = 5

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithRetryMax overrides the retry ceiling.
func WithRetryMax(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Queue.RetryMax = n
	}
}

// WithNotifyURL enables notifications against url.
func WithNotifyURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.Enabled = true
		b.cfg.Notifications.URL = url
	}
}

// WithFileTypes overrides the watched extensions.
func WithFileTypes(exts ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Watch.FileTypes = exts
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}

// InboxDir returns the first watched directory of the generated config.
func InboxDir(cfg *config.Config) string {
	if len(cfg.Watch.Directories) == 0 {
		return filepath.Join(BaseDir(cfg), "inbox")
	}
	return cfg.Watch.Directories[0]
}
