package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"docmonitor/internal/queue"
)

type documentView struct {
	ID           string    `json:"id"`
	ClassID      string    `json:"class_id,omitempty"`
	Title        string    `json:"title"`
	Sender       string    `json:"sender,omitempty"`
	DateReceived time.Time `json:"date_received"`
	SourcePath   string    `json:"source_path"`
}

func newDocumentsCommand(ctx *commandContext) *cobra.Command {
	documentsCmd := &cobra.Command{
		Use:   "documents",
		Short: "Inspect stored documents",
	}

	var limit int
	var asJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			docs, err := store.ListDocuments(cmd.Context(), limit)
			if err != nil {
				return err
			}
			views := make([]documentView, 0, len(docs))
			for _, doc := range docs {
				views = append(views, newDocumentView(doc))
			}
			if asJSON {
				return writeJSON(cmd, views)
			}
			if len(views) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No documents")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, view := range views {
				rows = append(rows, []string{
					view.DateReceived.Local().Format("2006-01-02 15:04"),
					valueOrDash(view.ClassID),
					view.Title,
					view.Sender,
					view.ID,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Received", "Class", "Title", "Sender", "ID"},
				rows,
				nil,
				isTerminalWriter(cmd),
			))
			return nil
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of documents (0 for all)")
	listCmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	documentsCmd.AddCommand(listCmd)
	documentsCmd.AddCommand(newDocumentsShowCommand(ctx))
	return documentsCmd
}

type documentDetail struct {
	documentView
	SenderOrganization    string          `json:"sender_organization,omitempty"`
	Recipient             string          `json:"recipient,omitempty"`
	RecipientOrganization string          `json:"recipient_organization,omitempty"`
	DateCreated           time.Time       `json:"date_created"`
	Data                  json.RawMessage `json:"data"`
}

func newDocumentsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one document with its classification payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			doc, err := store.GetDocument(cmd.Context(), args[0])
			if errors.Is(err, queue.ErrDocumentNotFound) {
				return fmt.Errorf("document %s not found", args[0])
			}
			if err != nil {
				return err
			}
			detail := documentDetail{
				documentView:          newDocumentView(*doc),
				SenderOrganization:    doc.SenderOrganization,
				Recipient:             doc.Recipient,
				RecipientOrganization: doc.RecipientOrganization,
				DateCreated:           doc.DateCreated,
				Data:                  doc.Data,
			}
			if asJSON {
				return writeJSON(cmd, detail)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:        %s\n", detail.ID)
			fmt.Fprintf(out, "Class:     %s\n", valueOrDash(detail.ClassID))
			fmt.Fprintf(out, "Title:     %s\n", detail.Title)
			fmt.Fprintf(out, "Sender:    %s\n", valueOrDash(joinNonEmpty(detail.Sender, detail.SenderOrganization)))
			fmt.Fprintf(out, "Recipient: %s\n", valueOrDash(joinNonEmpty(detail.Recipient, detail.RecipientOrganization)))
			fmt.Fprintf(out, "Received:  %s\n", detail.DateReceived.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Created:   %s\n", detail.DateCreated.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Source:    %s\n", detail.SourcePath)
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, detail.Data, "", "  "); err != nil {
				pretty.Reset()
				pretty.Write(detail.Data)
			}
			fmt.Fprintf(out, "Data:\n%s\n", pretty.String())
			return nil
		},
	}
	showCmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return showCmd
}

func valueOrDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func joinNonEmpty(primary, secondary string) string {
	switch {
	case primary == "":
		return secondary
	case secondary == "" || secondary == primary:
		return primary
	default:
		return primary + " (" + secondary + ")"
	}
}

func newDocumentView(doc queue.Document) documentView {
	return documentView{
		ID:           doc.ID,
		ClassID:      doc.ClassID,
		Title:        doc.Title,
		Sender:       doc.Sender,
		DateReceived: doc.DateReceived,
		SourcePath:   doc.SourcePath,
	}
}
