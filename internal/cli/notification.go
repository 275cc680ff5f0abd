package cli

import (
	"fmt"

	"github.com/amittambulkar96/nexus/internal/config"
	"github.com/spf13/cobra"
)

func newNotificationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notification",
		Aliases: []string{"notify"},
		Short:   "Inspect and acknowledge notifications",
	}
	cmd.AddCommand(newNotificationListCmd())
	cmd.AddCommand(newNotificationDeliveredCmd())
	return cmd
}

func newNotificationListCmd() *cobra.Command {
	var agentID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending (undelivered) notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			svc, closeFn, err := openService(home)
			if err != nil {
				return err
			}
			defer closeFn()

			notifs, err := svc.ListPendingNotifications(cmd.Context(), agentID)
			if err != nil {
				return err
			}
			if len(notifs) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No pending notifications.")
				return nil
			}
			for _, n := range notifs {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d -> %s: %s\n", n.NotificationID, n.MentionedAgentID, n.Content)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&agentID, "agent", "", "Filter to one agent ID")
	return cmd
}

func newNotificationDeliveredCmd() *cobra.Command {
	var notifID int64
	cmd := &cobra.Command{
		Use:   "delivered",
		Short: "Mark a notification as delivered",
		RunE: func(cmd *cobra.Command, args []string) error {
			if notifID <= 0 {
				return fmt.Errorf("--id is required")
			}
			home := config.MustHomeFrom(cmd.Context())
			svc, closeFn, err := openService(home)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.MarkNotificationDelivered(cmd.Context(), notifID); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Notification %d marked delivered\n", notifID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&notifID, "id", 0, "Notification ID")
	return cmd
}
