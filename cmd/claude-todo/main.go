package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/GS-Bacon/claude-todo/internal/api"
	"github.com/GS-Bacon/claude-todo/internal/mcp"
	"github.com/GS-Bacon/claude-todo/internal/model"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "claude-todo",
		Short:         "Task hub syncing Notion, chat mentions, and notifications",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")

	root.AddCommand(
		newListCmd(&cfgPath),
		newShowCmd(&cfgPath),
		newCompleteCmd(&cfgPath),
		newSyncCmd(&cfgPath),
		newDueTodayCmd(&cfgPath),
		newOverdueCmd(&cfgPath),
		newSummaryCmd(&cfgPath),
		newJobsCmd(&cfgPath),
		newRunJobCmd(&cfgPath),
		newTaskSyncCmd(&cfgPath),
		newServeCmd(&cfgPath),
		newMCPCmd(&cfgPath),
	)
	return root
}

func loadApp(cfgPath *string) (*app, error) {
	return newApp(*cfgPath)
}

// refresh pulls both repositories into the cache so read commands see
// current data.
func refresh(ctx context.Context, a *app) error {
	_, err := a.taskService.SyncAll(ctx)
	return err
}

func newListCmd(cfgPath *string) *cobra.Command {
	var status, priority, assignee string
	var tags []string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cfgPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := refresh(ctx, a); err != nil {
				return err
			}

			filter := &model.TaskFilter{Assignee: assignee, Tags: tags, Limit: limit}
			if status != "" {
				parsed, err := model.ParseStatus(status)
				if err != nil {
					return err
				}
				filter.Status = []model.Status{parsed}
			}
			if priority != "" {
				parsed, err := model.ParsePriority(priority)
				if err != nil {
					return err
				}
				filter.Priority = []model.Priority{parsed}
			}

			tasks, err := a.taskService.ListTasks(ctx, filter)
			if err != nil {
				return err
			}
			printTasks(tasks)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&priority, "priority", "", "filter by priority")
	cmd.Flags().StringVar(&assignee, "assignee", "", "filter by assignee")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "filter by tag (repeatable)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of tasks")
	return cmd
}

func newShowCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cfgPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := refresh(ctx, a); err != nil {
				return err
			}

			task, err := a.taskService.GetTask(ctx, model.TaskID(args[0]))
			if err != nil {
				return err
			}
			if task == nil {
				return fmt.Errorf("task not found: %s", args[0])
			}
			printTaskDetail(*task)
			return nil
		},
	}
}

func newCompleteCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Mark a task as done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cfgPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := refresh(ctx, a); err != nil {
				return err
			}

			task, err := a.taskService.UpdateTaskStatus(ctx, model.TaskID(args[0]), model.StatusDone)
			if err != nil {
				return err
			}
			fmt.Printf("Completed: %s\n", task.Title)
			return nil
		},
	}
}

func newSyncCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh the cache from all repositories",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cfgPath)
			if err != nil {
				return err
			}
			counts, err := a.taskService.SyncAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Synced %d team and %d personal task(s)\n", counts.TeamTasks, counts.PersonalTasks)
			return nil
		},
	}
}

func newDueTodayCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "due-today",
		Short: "List tasks due today",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cfgPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := refresh(ctx, a); err != nil {
				return err
			}
			tasks, err := a.taskService.GetTasksDueToday(ctx)
			if err != nil {
				return err
			}
			printTasks(tasks)
			return nil
		},
	}
}

func newOverdueCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List overdue tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cfgPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := refresh(ctx, a); err != nil {
				return err
			}
			tasks, err := a.taskService.GetOverdueTasks(ctx)
			if err != nil {
				return err
			}
			printTasks(tasks)
			return nil
		},
	}
}

func newSummaryCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show task counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cfgPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := refresh(ctx, a); err != nil {
				return err
			}
			tasks, err := a.taskService.ListTasks(ctx, nil)
			if err != nil {
				return err
			}

			now := time.Now()
			byStatus := map[model.Status]int{}
			var dueToday, overdue int
			for _, t := range tasks {
				byStatus[t.Status]++
				if t.IsDueToday(now) && t.Status != model.StatusDone {
					dueToday++
				}
				if t.IsOverdue(now) {
					overdue++
				}
			}

			fmt.Printf("Total: %d\n", len(tasks))
			for _, status := range []model.Status{model.StatusTodo, model.StatusInProgress, model.StatusDone, model.StatusBlocked} {
				fmt.Printf("  %-12s %d\n", status, byStatus[status])
			}
			fmt.Printf("Due today: %d\nOverdue: %d\n", dueToday, overdue)
			return nil
		},
	}
}

func newJobsCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List scheduled jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cfgPath)
			if err != nil {
				return err
			}
			for _, st := range a.scheduler.Status() {
				state := "enabled"
				if !st.Enabled {
					state = "disabled"
				}
				fmt.Printf("%-28s  %-16s  %-8s  %s\n", st.Name, st.Cron, state, st.Description)
			}
			return nil
		},
	}
}

func newRunJobCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run-job <name>",
		Short: "Run one scheduled job immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cfgPath)
			if err != nil {
				return err
			}
			if err := a.scheduler.Registry().RunJob(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Job %s completed\n", args[0])
			return nil
		},
	}
}

func newTaskSyncCmd(cfgPath *string) *cobra.Command {
	var dryRun bool
	var ruleName string

	cmd := &cobra.Command{
		Use:   "task-sync",
		Short: "Run sync rules replicating team tasks into the personal repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cfgPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if len(a.syncService.ListRules()) == 0 {
				return fmt.Errorf("no sync rules configured (set task_sync.enabled)")
			}

			if dryRun {
				for _, preview := range a.syncService.Preview(ctx, ruleName) {
					fmt.Printf("Rule %s (dry run):\n", preview.RuleName)
					if preview.Err != nil {
						fmt.Printf("  error: %v\n", preview.Err)
						continue
					}
					for _, t := range preview.Create {
						fmt.Printf("  would create: %s\n", t.Title)
					}
					for _, t := range preview.Update {
						fmt.Printf("  would update: %s\n", t.Title)
					}
					fmt.Printf("  skipped: %d\n", preview.Skipped)
				}
				return nil
			}

			for _, result := range a.syncService.Sync(ctx, ruleName) {
				fmt.Printf("Rule %s: created=%d updated=%d skipped=%d\n",
					result.RuleName, result.Created, result.Updated, result.Skipped)
				for _, msg := range result.Errors {
					fmt.Printf("  error: %s\n", msg)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing")
	cmd.Flags().StringVar(&ruleName, "rule", "", "run only the named rule")
	return cmd
}

func newServeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cfgPath)
			if err != nil {
				return err
			}

			if a.cfg.Scheduler.Enabled {
				a.scheduler.Start()
				defer a.scheduler.Stop()
			}

			server := api.NewServer(a.taskService, a.mentions, a.notifications)

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Run(a.cfg.Server.Addr())
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				log.Printf("received %s, shutting down", sig)
				return nil
			}
		},
	}
}

func newMCPCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP tool server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cfgPath)
			if err != nil {
				return err
			}
			if err := refresh(cmd.Context(), a); err != nil {
				log.Printf("initial sync: %v", err)
			}
			return mcp.NewServer(a.taskService).Run(cmd.Context(), os.Stdin, os.Stdout)
		},
	}
}

func printTasks(tasks []model.Task) {
	if len(tasks) == 0 {
		fmt.Println("No tasks.")
		return
	}
	fmt.Printf("%-38s  %-12s  %-8s  %-10s  %s\n", "ID", "STATUS", "PRIORITY", "DUE", "TAGS")
	for _, t := range tasks {
		fmt.Println(formatTaskLine(t))
		fmt.Printf("    %s\n", t.Title)
	}
}

func printTaskDetail(t model.Task) {
	fmt.Printf("ID:        %s\n", t.ID)
	fmt.Printf("Title:     %s\n", t.Title)
	if t.Description != "" {
		fmt.Printf("Desc:      %s\n", t.Description)
	}
	fmt.Printf("Status:    %s\n", t.Status)
	fmt.Printf("Priority:  %s\n", t.Priority)
	fmt.Printf("Source:    %s\n", t.Source)
	if t.DueDate != nil {
		fmt.Printf("Due:       %s\n", t.DueDate.Format("2006-01-02 15:04"))
	}
	if t.Assignee != "" {
		fmt.Printf("Assignee:  %s\n", t.Assignee)
	}
	if len(t.Tags) > 0 {
		fmt.Printf("Tags:      %v\n", t.Tags)
	}
	fmt.Printf("Created:   %s\n", t.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Updated:   %s\n", t.UpdatedAt.Format(time.RFC3339))
}
