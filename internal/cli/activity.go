package cli

import (
	"fmt"

	"github.com/amittambulkar96/nexus/internal/config"
	"github.com/spf13/cobra"
)

func newActivityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Read the activity feed",
	}
	cmd.AddCommand(newActivityListCmd())
	return cmd
}

func newActivityListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent activities (newest first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			svc, closeFn, err := openService(home)
			if err != nil {
				return err
			}
			defer closeFn()

			activities, err := svc.RecentActivities(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(activities) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No activity.")
				return nil
			}
			for _, a := range activities {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s\n", a.CreatedAt.Format("2006-01-02 15:04"), a.Type, a.Message)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Max entries (0 for all)")
	return cmd
}
