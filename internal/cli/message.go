package cli

import (
	"fmt"

	"github.com/amittambulkar96/nexus/internal/config"
	"github.com/spf13/cobra"
)

func newMessageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Post and read task comments",
	}
	cmd.AddCommand(newMessagePostCmd())
	cmd.AddCommand(newMessageListCmd())
	return cmd
}

func newMessagePostCmd() *cobra.Command {
	var (
		taskID  int64
		from    string
		content string
	)
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a comment on a task (@mentions notify agents)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if taskID <= 0 || from == "" || content == "" {
				return fmt.Errorf("--task, --from, and --content are required")
			}
			home := config.MustHomeFrom(cmd.Context())
			svc, closeFn, err := openService(home)
			if err != nil {
				return err
			}
			defer closeFn()

			id, err := svc.PostMessage(cmd.Context(), taskID, from, content)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Posted message %d on task %d\n", id, taskID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&taskID, "task", 0, "Task ID")
	cmd.Flags().StringVar(&from, "from", "", "Author agent ID")
	cmd.Flags().StringVar(&content, "content", "", "Message text")
	return cmd
}

func newMessageListCmd() *cobra.Command {
	var taskID int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a task's comments",
		RunE: func(cmd *cobra.Command, args []string) error {
			if taskID <= 0 {
				return fmt.Errorf("--task is required")
			}
			home := config.MustHomeFrom(cmd.Context())
			svc, closeFn, err := openService(home)
			if err != nil {
				return err
			}
			defer closeFn()

			msgs, err := svc.ListMessagesByTask(cmd.Context(), taskID)
			if err != nil {
				return err
			}
			if len(msgs) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No messages.")
				return nil
			}
			for _, m := range msgs {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s\n", m.CreatedAt.Format("2006-01-02 15:04"), m.FromAgentID, m.Content)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&taskID, "task", 0, "Task ID")
	return cmd
}
