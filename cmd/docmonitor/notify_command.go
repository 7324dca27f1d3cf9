package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"docmonitor/internal/notifications"
)

func newNotifyCommand(ctx *commandContext) *cobra.Command {
	notifyCmd := &cobra.Command{
		Use:   "notify",
		Short: "Notification utilities",
	}
	notifyCmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Send a test documents_inserted event",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			svc := notifications.NewService(cfg)
			if !notifications.Enabled(svc) {
				fmt.Fprintln(cmd.OutOrStdout(), "Notifications disabled")
				return nil
			}
			id := "test-" + uuid.NewString()
			if err := svc.DocumentInserted(cmd.Context(), id, "", notifications.ReasonTest); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Test notification sent (%s)\n", id)
			return nil
		},
	})
	return notifyCmd
}
