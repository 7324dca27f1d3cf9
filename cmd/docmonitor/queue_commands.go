package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"docmonitor/internal/queue"
)

type entryView struct {
	ID          int64      `json:"id"`
	State       string     `json:"state"`
	Retry       int        `json:"retry"`
	LastFailure *time.Time `json:"last_failure,omitempty"`
	SourcePath  string     `json:"source_path"`
}

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and maintain the work queue",
	}
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueStatsCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))
	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued files",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			views := make([]entryView, 0, len(entries))
			for _, entry := range entries {
				views = append(views, newEntryView(entry))
			}
			if asJSON {
				return writeJSON(cmd, views)
			}
			if len(views) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, view := range views {
				failed := "-"
				if view.LastFailure != nil {
					failed = view.LastFailure.Local().Format("2006-01-02 15:04:05")
				}
				rows = append(rows, []string{
					strconv.FormatInt(view.ID, 10),
					view.State,
					strconv.Itoa(view.Retry),
					failed,
					view.SourcePath,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "State", "Retry", "Last failure", "Source"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
				isTerminalWriter(cmd),
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newQueueStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show queue counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			docs, err := store.CountDocuments(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, map[string]any{"queue": stats, "documents": docs})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ready:     %d\n", stats.Ready)
			fmt.Fprintf(out, "Failed:    %d\n", stats.Failed)
			fmt.Fprintf(out, "Total:     %d\n", stats.Total)
			fmt.Fprintf(out, "Documents: %d\n", docs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every queued entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d queue entr%s\n", removed, pluralY(removed))
			return nil
		},
	}
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check database health",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			health, err := store.CheckHealth(cmd.Context())
			if asJSON {
				if encErr := writeJSON(cmd, health); encErr != nil {
					return encErr
				}
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database:        %s\n", health.DBPath)
			fmt.Fprintf(out, "Exists:          %s\n", yesNo(health.DatabaseExists))
			fmt.Fprintf(out, "Readable:        %s\n", yesNo(health.DatabaseReadable))
			fmt.Fprintf(out, "Schema version:  %d\n", health.SchemaVersion)
			fmt.Fprintf(out, "Integrity check: %s\n", health.IntegrityCheck)
			if health.Error != "" {
				fmt.Fprintf(out, "Error:           %s\n", health.Error)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newEntryView(entry queue.Entry) entryView {
	state := "failed"
	if entry.Ready() {
		state = "ready"
	}
	return entryView{
		ID:          entry.ID,
		State:       state,
		Retry:       entry.Retry,
		LastFailure: entry.LastFailure,
		SourcePath:  entry.SourcePath,
	}
}

func pluralY(n int64) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
