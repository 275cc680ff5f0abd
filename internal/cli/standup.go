package cli

import (
	"fmt"

	"github.com/amittambulkar96/nexus/internal/config"
	"github.com/spf13/cobra"
)

func newStandupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "standup",
		Short: "Print a standup summary (trailing 24h of activity and messages)",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			svc, closeFn, err := openService(home)
			if err != nil {
				return err
			}
			defer closeFn()

			s, err := svc.StandupSummary(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Standup (generated %s)\n\n", s.GeneratedAt.Format("2006-01-02 15:04 MST"))

			_, _ = fmt.Fprintf(out, "Agents (%d):\n", len(s.Agents))
			for _, a := range s.Agents {
				_, _ = fmt.Fprintf(out, "  - %s [%s]\n", a.Name, a.Status)
			}

			_, _ = fmt.Fprintf(out, "\nTasks (%d):\n", len(s.Tasks))
			for _, t := range s.Tasks {
				_, _ = fmt.Fprintf(out, "  %d [%s] %s\n", t.TaskID, t.Status, t.Title)
			}

			_, _ = fmt.Fprintf(out, "\nActivity (last 24h, %d):\n", len(s.Activities))
			for _, a := range s.Activities {
				_, _ = fmt.Fprintf(out, "  [%s] %s\n", a.CreatedAt.Format("15:04"), a.Message)
			}

			_, _ = fmt.Fprintf(out, "\nMessages (last 24h, %d):\n", len(s.Messages))
			for _, m := range s.Messages {
				_, _ = fmt.Fprintf(out, "  [%s] task %d, %s: %s\n", m.CreatedAt.Format("15:04"), m.TaskID, m.FromAgentID, m.Content)
			}
			return nil
		},
	}
	return cmd
}
