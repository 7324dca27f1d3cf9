package preflight

import (
	"context"
	"fmt"

	"docmonitor/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	for i, dir := range cfg.Watch.Directories {
		name := "Watch directory"
		if len(cfg.Watch.Directories) > 1 {
			name = fmt.Sprintf("Watch directory %d", i+1)
		}
		results = append(results, CheckDirectoryAccess(name, dir))
	}

	if cfg.Plugins.Enabled && cfg.Paths.PluginDir != "" {
		results = append(results, CheckDirectoryAccess("Plugin directory", cfg.Paths.PluginDir))
	}

	if cfg.Classifier.CredentialsFile != "" {
		results = append(results, CheckFileReadable("Classifier credentials", cfg.Classifier.CredentialsFile))
	}
	if cfg.Classifier.PromptFile != "" {
		results = append(results, CheckFileReadable("Prompt file", cfg.Classifier.PromptFile))
	}

	if cfg.Notifications.Enabled {
		results = append(results, CheckEndpoint(ctx, "Notification webhook", cfg.NotifyURL()))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
