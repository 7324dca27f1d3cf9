package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"docmonitor/internal/config"
	"docmonitor/internal/daemon"
	"docmonitor/internal/daemonrun"
	"docmonitor/internal/logging"
	"docmonitor/internal/queue"
)

// openRuntime builds the classifier-backed runtime for scan commands.
var openRuntime = daemonrun.Open

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

// openStore opens the queue database for read-mostly commands.
func (c *commandContext) openStore() (*queue.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return queue.Open(cfg)
}

// logger writes human-readable logs to stderr so command output stays clean.
func (c *commandContext) logger() *slog.Logger {
	cfg, err := c.ensureConfig()
	level := "info"
	if err == nil && cfg != nil {
		level = cfg.Logging.Level
	}
	logger, _, err := logging.New(logging.Options{
		Level:       level,
		Format:      "console",
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

func (c *commandContext) withRuntime(cmd *cobra.Command, fn func(context.Context, *daemonrun.Runtime) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	lock, err := daemon.AcquireLock(daemon.LockPath(cfg))
	if err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return fmt.Errorf("queue is owned by the running service; copy files into a watched directory instead: %w", err)
		}
		return err
	}
	defer func() { _ = lock.Unlock() }()

	rt, err := openRuntime(ctx, cfg, c.logger())
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func isTerminalWriter(cmd *cobra.Command) bool {
	file, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	return isTerminalFile(file)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
