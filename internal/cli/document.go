package cli

import (
	"fmt"

	"github.com/amittambulkar96/nexus/internal/config"
	"github.com/spf13/cobra"
)

func newDocumentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "document",
		Short: "Manage documents (deliverables, research, protocols, notes)",
	}
	cmd.AddCommand(newDocumentAddCmd())
	cmd.AddCommand(newDocumentListCmd())
	return cmd
}

func newDocumentAddCmd() *cobra.Command {
	var (
		title   string
		content string
		docType string
		taskID  int64
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a document, optionally attached to a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				return fmt.Errorf("--title is required")
			}
			home := config.MustHomeFrom(cmd.Context())
			svc, closeFn, err := openService(home)
			if err != nil {
				return err
			}
			defer closeFn()

			var body *string
			if content != "" {
				body = &content
			}
			var task *int64
			if taskID > 0 {
				task = &taskID
			}
			id, err := svc.CreateDocument(cmd.Context(), title, body, docType, task)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created document %d: %s\n", id, title)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Document title")
	cmd.Flags().StringVar(&content, "content", "", "Markdown content")
	cmd.Flags().StringVar(&docType, "type", "note", "Type: deliverable, research, protocol, or note")
	cmd.Flags().Int64Var(&taskID, "task", 0, "Attach to task ID")
	return cmd
}

func newDocumentListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents (newest first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			svc, closeFn, err := openService(home)
			if err != nil {
				return err
			}
			defer closeFn()

			docs, err := svc.ListDocuments(cmd.Context())
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No documents.")
				return nil
			}
			for _, d := range docs {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d [%s] %s\n", d.DocumentID, d.Type, d.Title)
			}
			return nil
		},
	}
	return cmd
}
