package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains storage locations and the status API bind address.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	DatabasePath string `toml:"database_path"`
	LogDir       string `toml:"log_dir"`
	PluginDir    string `toml:"plugin_dir"`
	APIBind      string `toml:"api_bind"`
	// APIToken, when set, is required as a bearer token on the status API.
	APIToken     string `toml:"api_token"`
}

// Watch contains the directories and file types fed into the queue.
type Watch struct {
	Directories         []string `toml:"directories"`
	FileTypes           []string `toml:"file_types"`
	ScanIntervalSeconds int      `toml:"scan_interval_seconds"`
	InitialScan         bool     `toml:"initial_scan"`
}

// Stability contains the write-completion heuristic settings.
type Stability struct {
	CheckCount           int     `toml:"check_count"`
	CheckIntervalSeconds float64 `toml:"check_interval_seconds"`
	TimeoutSeconds       float64 `toml:"timeout_seconds"`
}

// Queue contains retry and coordinator timing settings.
type Queue struct {
	RetryMax             int `toml:"retry_max"`
	RetryCooldownSeconds int `toml:"retry_cooldown_seconds"`
	PollIntervalSeconds  int `toml:"poll_interval_seconds"`
	ShutdownGraceSeconds int `toml:"shutdown_grace_seconds"`
}

// Classifier contains Vertex AI Gemini settings.
type Classifier struct {
	Project                 string   `toml:"project"`
	Location                string   `toml:"location"`
	Model                   string   `toml:"model"`
	CredentialsFile         string   `toml:"credentials_file"`
	PromptFile              string   `toml:"prompt_file"`
	Temperature             *float64 `toml:"temperature"`
	TopK                    *int     `toml:"top_k"`
	TopP                    *float64 `toml:"top_p"`
	ProgressIntervalSeconds int      `toml:"progress_interval_seconds"`
}

// Thumbnail contains settings for the optional first-page preview.
type Thumbnail struct {
	Enabled bool `toml:"enabled"`
	Size    int  `toml:"size"`
}

// Notifications contains the document-inserted webhook settings.
type Notifications struct {
	Enabled         bool    `toml:"enabled"`
	URL             string  `toml:"url"`
	Token           string  `toml:"token"`
	TimeoutSeconds  float64 `toml:"timeout_seconds"`
	TrustSelfSigned bool    `toml:"trust_self_signed"`
	APIHost         string  `toml:"api_host"`
	APIPort         int     `toml:"api_port"`
	APIHTTPS        bool    `toml:"api_https"`
}

// Plugins contains post-processing handler settings.
type Plugins struct {
	Enabled        bool `toml:"enabled"`
	TimeoutSeconds int  `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for docmonitor.
//
// Configuration sections by subsystem:
//   - Paths: database, logs, plugins and API bind address
//   - Watch: watched directories, file types and sweep interval
//   - Stability: file write-completion probe
//   - Queue: retry ceiling, cooldown and coordinator timing
//   - Classifier: Vertex AI Gemini connection and prompt
//   - Thumbnail: optional preview attached to document payloads
//   - Notifications: documents_inserted webhook
//   - Plugins: per-class post-processing handlers
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Watch         Watch         `toml:"watch"`
	Stability     Stability     `toml:"stability"`
	Queue         Queue         `toml:"queue"`
	Classifier    Classifier    `toml:"classifier"`
	Thumbnail     Thumbnail     `toml:"thumbnail"`
	Notifications Notifications `toml:"notifications"`
	Plugins       Plugins       `toml:"plugins"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/docmonitor/config.toml")
}

// Load locates, parses, and validates a configuration file. A .env file in
// the working directory is applied first without overriding variables that
// are already set. The returned config has all path fields expanded.
func Load(path string) (*Config, string, bool, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, "", false, err
	}

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("docmonitor.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, log and database directories.
// Watched directories are created by the watcher when it starts.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir, filepath.Dir(c.Paths.DatabasePath)}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ScanInterval is the period of the retry sweep.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Watch.ScanIntervalSeconds) * time.Second
}

// RetryCooldown is the minimum age of a failure marker before the sweep promotes it.
func (c *Config) RetryCooldown() time.Duration {
	return time.Duration(c.Queue.RetryCooldownSeconds) * time.Second
}

// PollInterval bounds how long the drain loop sleeps without a wake signal.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Queue.PollIntervalSeconds) * time.Second
}

// ShutdownGrace bounds how long Stop waits for the loops to exit.
func (c *Config) ShutdownGrace() time.Duration {
	return time.Duration(c.Queue.ShutdownGraceSeconds) * time.Second
}

// StabilityInterval returns the delay between two size observations.
func (c *Config) StabilityInterval() time.Duration {
	return secondsToDuration(c.Stability.CheckIntervalSeconds)
}

// StabilityTimeout returns the overall stability wait budget.
func (c *Config) StabilityTimeout() time.Duration {
	return secondsToDuration(c.Stability.TimeoutSeconds)
}

// ClassifierProgressInterval returns the cadence of classifier wait logs.
func (c *Config) ClassifierProgressInterval() time.Duration {
	return time.Duration(c.Classifier.ProgressIntervalSeconds) * time.Second
}

// NotifyTimeout returns the webhook request timeout.
func (c *Config) NotifyTimeout() time.Duration {
	return secondsToDuration(c.Notifications.TimeoutSeconds)
}

// PluginTimeout returns the per-invocation timeout for external handlers.
func (c *Config) PluginTimeout() time.Duration {
	return time.Duration(c.Plugins.TimeoutSeconds) * time.Second
}

// WatchesExtension reports whether ext (with leading dot) is a watched file type.
func (c *Config) WatchesExtension(ext string) bool {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return false
	}
	for _, candidate := range c.Watch.FileTypes {
		if candidate == ext {
			return true
		}
	}
	return false
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
