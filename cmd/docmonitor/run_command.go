package main

import (
	"github.com/spf13/cobra"

	"docmonitor/internal/daemonrun"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var dirs []string
	var noInitialScan bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch directories and classify new documents until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:      cfg.Logging.Level,
				Directories:   dirs,
				NoInitialScan: noInitialScan,
			})
		},
	}
	cmd.Flags().StringArrayVar(&dirs, "dir", nil, "Directory to watch (repeatable, replaces watch.directories)")
	cmd.Flags().BoolVar(&noInitialScan, "no-initial-scan", false, "Skip the startup scan of watched directories")
	return cmd
}
