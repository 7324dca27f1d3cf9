package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docmonitor/internal/workflow"
)

func newPromptCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prompt",
		Short: "Print the composed classifier prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			cfg, _ := ctx.ensureConfig()
			prompt, err := workflow.New(cfg, store, nil, nil).Prompt(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), prompt)
			return nil
		},
	}
}
