package cli

import (
	"errors"
	"fmt"

	"github.com/amittambulkar96/nexus/internal/config"
	"github.com/spf13/cobra"
)

func newAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage agents",
	}
	cmd.AddCommand(newAgentAddCmd())
	cmd.AddCommand(newAgentListCmd())
	cmd.AddCommand(newAgentStatusCmd())
	return cmd
}

func newAgentAddCmd() *cobra.Command {
	var (
		name       string
		role       string
		sessionKey string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return errors.New("--name is required")
			}

			home := config.MustHomeFrom(cmd.Context())
			svc, closeFn, err := openService(home)
			if err != nil {
				return err
			}
			defer closeFn()

			agent, err := svc.CreateAgent(cmd.Context(), name, role, sessionKey)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added agent %q (id=%s, role=%s)\n", agent.Name, agent.AgentID, roleOrDefault(agent.Role))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Agent display name (used for @mentions)")
	cmd.Flags().StringVar(&role, "role", "engineer", "Agent role")
	cmd.Flags().StringVar(&sessionKey, "session-key", "", "Opaque session key")
	return cmd
}

func newAgentListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			svc, closeFn, err := openService(home)
			if err != nil {
				return err
			}
			defer closeFn()

			agents, err := svc.ListAgents(cmd.Context())
			if err != nil {
				return err
			}
			if len(agents) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No agents.")
				return nil
			}
			for _, a := range agents {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "- %s [%s] (%s) %s\n", a.Name, a.Status, roleOrDefault(a.Role), a.AgentID)
			}
			return nil
		},
	}
	return cmd
}

func newAgentStatusCmd() *cobra.Command {
	var (
		agentID string
		status  string
		taskID  int64
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Set an agent's status (and optionally its current task)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if agentID == "" || status == "" {
				return errors.New("--id and --status are required")
			}
			home := config.MustHomeFrom(cmd.Context())
			svc, closeFn, err := openService(home)
			if err != nil {
				return err
			}
			defer closeFn()

			var currentTask *int64
			if taskID > 0 {
				currentTask = &taskID
			}
			if err := svc.UpdateAgentStatus(cmd.Context(), agentID, status, currentTask); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Agent %s status set to %q\n", agentID, status)
			return nil
		},
	}
	cmd.Flags().StringVar(&agentID, "id", "", "Agent ID")
	cmd.Flags().StringVar(&status, "status", "", "New status (idle, active, blocked)")
	cmd.Flags().Int64Var(&taskID, "task", 0, "Current task ID (omit to clear)")
	return cmd
}

func roleOrDefault(role string) string {
	if role == "" {
		return "engineer"
	}
	return role
}
