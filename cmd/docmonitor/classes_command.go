package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"docmonitor/internal/queue"
)

type classView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Priority int    `json:"priority"`
	Enabled  bool   `json:"enabled"`
	Prompt   string `json:"prompt"`
}

func newClassesCommand(ctx *commandContext) *cobra.Command {
	classesCmd := &cobra.Command{
		Use:   "classes",
		Short: "Inspect document classes",
	}

	var asJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List document classes by priority",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			classes, err := store.ListClasses(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				views := make([]classView, 0, len(classes))
				for _, class := range classes {
					views = append(views, classView(class))
				}
				return writeJSON(cmd, views)
			}
			if len(classes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No document classes")
				return nil
			}
			rows := make([][]string, 0, len(classes))
			for _, class := range classes {
				rows = append(rows, []string{
					class.ID,
					class.Name,
					strconv.Itoa(class.Priority),
					yesNo(class.Enabled),
					strconv.Itoa(len([]rune(class.Prompt))),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Priority", "Enabled", "Prompt chars"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight},
				isTerminalWriter(cmd),
			))
			return nil
		},
	}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	classesCmd.AddCommand(listCmd)
	classesCmd.AddCommand(newClassesSetCommand(ctx))
	return classesCmd
}

func newClassesSetCommand(ctx *commandContext) *cobra.Command {
	var (
		name       string
		priority   int
		prompt     string
		promptFile string
		disabled   bool
	)
	setCmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Create a document class or update the given fields of one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if id == "" {
				return errors.New("class id is required")
			}
			if prompt != "" && promptFile != "" {
				return errors.New("--prompt and --prompt-file are mutually exclusive")
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			classes, err := store.ListClasses(cmd.Context())
			if err != nil {
				return err
			}
			class := queue.DocumentClass{ID: id, Name: id, Priority: 100, Enabled: true}
			created := true
			for _, existing := range classes {
				if existing.ID == id {
					class = existing
					created = false
					break
				}
			}

			flags := cmd.Flags()
			if flags.Changed("name") {
				class.Name = name
			}
			if flags.Changed("priority") {
				class.Priority = priority
			}
			if flags.Changed("prompt") {
				class.Prompt = prompt
			}
			if promptFile != "" {
				data, err := os.ReadFile(promptFile)
				if err != nil {
					return fmt.Errorf("read prompt file: %w", err)
				}
				class.Prompt = strings.TrimSpace(string(data))
			}
			if flags.Changed("disabled") {
				class.Enabled = !disabled
			}

			if err := store.UpsertClass(cmd.Context(), class); err != nil {
				return err
			}
			verb := "Updated"
			if created {
				verb = "Created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s class %s (priority %d, %s)\n", verb, class.ID, class.Priority, enabledLabel(class.Enabled))
			return nil
		},
	}
	setCmd.Flags().StringVar(&name, "name", "", "Display name")
	setCmd.Flags().IntVar(&priority, "priority", 100, "Prompt order; lower comes first")
	setCmd.Flags().StringVar(&prompt, "prompt", "", "Classification instructions for this class")
	setCmd.Flags().StringVar(&promptFile, "prompt-file", "", "Read the instructions from a file")
	setCmd.Flags().BoolVar(&disabled, "disabled", false, "Leave the class out of the prompt")
	return setCmd
}

func enabledLabel(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
