package cli

import (
	"fmt"
	"strings"

	"github.com/amittambulkar96/nexus/internal/config"
	"github.com/amittambulkar96/nexus/internal/store"
	"github.com/amittambulkar96/nexus/internal/workflow"
	"github.com/amittambulkar96/nexus/pkg/models"
	"github.com/spf13/cobra"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	cmd.AddCommand(newTaskAddCmd())
	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskAssignCmd())
	cmd.AddCommand(newTaskStatusCmd())
	cmd.AddCommand(newTaskCompleteCmd())
	return cmd
}

func newTaskAddCmd() *cobra.Command {
	var (
		title       string
		description string
		assignees   []string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task (status starts at inbox)",
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

			var desc *string
			if description != "" {
				desc = &description
			}
			id, err := svc.CreateTask(cmd.Context(), title, desc, assignees)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created task %d: %s\n", id, title)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Task title")
	cmd.Flags().StringVar(&description, "description", "", "Task description")
	cmd.Flags().StringSliceVar(&assignees, "assignee", nil, "Agent IDs to assign (repeatable)")
	return cmd
}

func newTaskListCmd() *cobra.Command {
	var (
		agentID    string
		unassigned bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks (all, by assignee, or unassigned)",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			svc, closeFn, err := openService(home)
			if err != nil {
				return err
			}
			defer closeFn()

			var tasks []store.Task
			switch {
			case unassigned:
				tasks, err = svc.ListUnassignedTasks(cmd.Context())
			case agentID != "":
				tasks, err = svc.ListTasksByAssignee(cmd.Context(), agentID)
			default:
				tasks, err = svc.ListTasks(cmd.Context())
			}
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No tasks.")
				return nil
			}
			for _, t := range tasks {
				line := fmt.Sprintf("%d [%s] %s", t.TaskID, t.Status, t.Title)
				if len(t.AssigneeIDs) > 0 {
					line += " (" + strings.Join(t.AssigneeIDs, ", ") + ")"
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&agentID, "assignee", "", "Filter to tasks assigned to this agent ID")
	cmd.Flags().BoolVar(&unassigned, "unassigned", false, "Show only tasks with no assignees")
	return cmd
}

func newTaskAssignCmd() *cobra.Command {
	var (
		taskID  int64
		agentID string
	)
	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign a task to an agent (sets status to assigned)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if taskID <= 0 || agentID == "" {
				return fmt.Errorf("--id and --agent are required")
			}
			home := config.MustHomeFrom(cmd.Context())
			svc, closeFn, err := openService(home)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.AssignTask(cmd.Context(), taskID, agentID); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Assigned task %d to %s\n", taskID, agentID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&taskID, "id", 0, "Task ID")
	cmd.Flags().StringVar(&agentID, "agent", "", "Agent ID")
	return cmd
}

func newTaskStatusCmd() *cobra.Command {
	var (
		taskID int64
		status string
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Set task status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if taskID <= 0 || status == "" {
				return fmt.Errorf("--id and --status are required")
			}
			home := config.MustHomeFrom(cmd.Context())
			svc, closeFn, err := openService(home)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.UpdateTaskStatus(cmd.Context(), workflow.StatusUpdate{ID: &taskID, Status: status}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Task %d status set to %q\n", taskID, status)
			return nil
		},
	}
	cmd.Flags().Int64Var(&taskID, "id", 0, "Task ID")
	cmd.Flags().StringVar(&status, "status", "", "New status (inbox, assigned, in_progress, review, done, blocked)")
	return cmd
}

func newTaskCompleteCmd() *cobra.Command {
	var taskID int64

	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Mark a task as done",
		RunE: func(cmd *cobra.Command, args []string) error {
			if taskID <= 0 {
				return fmt.Errorf("--id is required")
			}
			home := config.MustHomeFrom(cmd.Context())
			svc, closeFn, err := openService(home)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.UpdateTaskStatus(cmd.Context(), workflow.StatusUpdate{ID: &taskID, Status: models.TaskStatusDone}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Task %d marked done\n", taskID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&taskID, "id", 0, "Task ID")
	return cmd
}
