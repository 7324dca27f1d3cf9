package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"docmonitor/internal/daemonrun"
	"docmonitor/internal/watcher"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <file|glob>...",
		Short: "Classify the given files or glob matches once",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(runCtx context.Context, rt *daemonrun.Runtime) error {
				var paths []string
				for _, pattern := range args {
					matches, err := watcher.ResolveGlob(pattern)
					if err != nil {
						return fmt.Errorf("resolve %q: %w", pattern, err)
					}
					paths = append(paths, matches...)
				}
				if len(paths) == 0 {
					return errors.New("no files matched")
				}
				enqueue := rt.Coordinator.EnqueueFrom("cli")
				enqueued := 0
				for _, path := range paths {
					if err := enqueue(runCtx, path); err != nil {
						return err
					}
					enqueued++
				}
				return drainAndReport(runCtx, cmd, rt, enqueued)
			})
		},
	}
}

func newScanDirCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scandir [dir]...",
		Short: "Classify every watched file type under the directories once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(runCtx context.Context, rt *daemonrun.Runtime) error {
				dirs := args
				if len(dirs) == 0 {
					dirs = rt.Config.Watch.Directories
				}
				enqueued, err := watcher.Scan(runCtx, dirs, rt.Config.Watch.FileTypes, rt.Coordinator.EnqueueFrom("cli"))
				if err != nil {
					return err
				}
				return drainAndReport(runCtx, cmd, rt, enqueued)
			})
		},
	}
}

func drainAndReport(ctx context.Context, cmd *cobra.Command, rt *daemonrun.Runtime, enqueued int) error {
	processed, err := rt.Coordinator.DrainOnce(ctx)
	if err != nil {
		return err
	}
	status := rt.Coordinator.Status(ctx)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Enqueued %d file(s), processed %d\n", enqueued, processed)
	fmt.Fprintf(out, "Classified: %d  Dropped: %d  Failed: %d\n",
		status.Counts.Classified, status.Counts.Dropped, status.Counts.Failed)
	if status.Counts.Failed > 0 {
		fmt.Fprintln(out, "Failed files stay queued and are retried once the service starts")
	}
	return nil
}
