// Package cli contains the mcctl cobra commands. Commands hold no
// business logic: they parse flags, call the services on the injected
// App, and print.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/missionctl/internal/core/task"
	"github.com/example/missionctl/internal/ports/primary"
	"github.com/example/missionctl/internal/wire"
)

func cliActor() primary.Actor {
	return primary.Actor{Type: task.ActorOrchestrator, ID: "mcctl"}
}

// TaskCmd returns the task command tree.
func TaskCmd(app *wire.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks (create, assign, claim, complete)",
	}

	cmd.AddCommand(taskCreateCmd(app))
	cmd.AddCommand(taskListCmd(app))
	cmd.AddCommand(taskShowCmd(app))
	cmd.AddCommand(taskAssignCmd(app))
	cmd.AddCommand(taskStatusCmd(app))
	cmd.AddCommand(taskPriorityCmd(app))
	cmd.AddCommand(taskCancelCmd(app))
	cmd.AddCommand(taskClaimCmd(app))
	cmd.AddCommand(taskReleaseCmd(app))
	cmd.AddCommand(taskStartCmd(app))
	cmd.AddCommand(taskCompleteCmd(app))

	return cmd
}

func taskCreateCmd(app *wire.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [title]",
		Short: "Create a new task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			description, _ := cmd.Flags().GetString("description")
			priority, _ := cmd.Flags().GetString("priority")
			requester, _ := cmd.Flags().GetString("requester")
			tags, _ := cmd.Flags().GetStringSlice("tag")
			workerType, _ := cmd.Flags().GetString("assign")
			workerID, _ := cmd.Flags().GetString("worker")

			create := primary.CreateTaskRequest{
				Title:       args[0],
				Description: description,
				Priority:    priority,
				Source:      task.SourceCLI,
				Requester:   requester,
				Tags:        tags,
				Actor:       cliActor(),
			}

			var created *primary.Task
			var err error
			if workerType != "" {
				created, err = app.Orchestrator.CreateAndAssign(ctx, primary.CreateAndAssignRequest{
					Create: create,
					Assign: primary.AssignRequest{
						WorkerType: workerType,
						WorkerID:   workerID,
						Actor:      cliActor(),
					},
				})
			} else {
				created, err = app.Orchestrator.CreateTask(ctx, create)
			}
			if err != nil {
				return err
			}

			fmt.Printf("%s Created task %s: %s\n", okMark(), task.ShortID(created.ID), created.Title)
			fmt.Printf("  Priority: %s\n", created.Priority)
			if workerType != "" {
				fmt.Printf("  Assigned: %s\n", workerType)
			}
			return nil
		},
	}

	cmd.Flags().String("description", "", "Task description")
	cmd.Flags().String("priority", "", "Priority (low, normal, high, urgent)")
	cmd.Flags().String("requester", "", "Who asked for this")
	cmd.Flags().StringSlice("tag", nil, "Tag (repeatable)")
	cmd.Flags().String("assign", "", "Assign to worker type on creation")
	cmd.Flags().String("worker", "", "Pin the assignment to a specific worker id")

	return cmd
}

func taskListCmd(app *wire.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks with assignment and claim state",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			tasks, err := app.Query.ListTasks(context.Background(), limit)
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Println("No tasks found.")
				return nil
			}

			fmt.Printf("Found %d task(s):\n\n", len(tasks))
			for _, t := range tasks {
				printTaskLine(t)
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 50, "Maximum tasks to show")

	return cmd
}

func taskShowCmd(app *wire.App) *cobra.Command {
	return &cobra.Command{
		Use:   "show [task-id]",
		Short: "Show task details and recent events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			t, err := app.Orchestrator.GetTask(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%s %s\n", statusMark(t.Status), t.Title)
			fmt.Printf("  ID:       %s\n", t.ID)
			fmt.Printf("  Status:   %s\n", t.Status)
			fmt.Printf("  Priority: %s\n", t.Priority)
			fmt.Printf("  Source:   %s\n", t.Source)
			if t.Requester != "" {
				fmt.Printf("  Requester: %s\n", t.Requester)
			}
			if t.Description != "" {
				fmt.Printf("  Description: %s\n", t.Description)
			}
			if len(t.Tags) > 0 {
				fmt.Printf("  Tags: %v\n", t.Tags)
			}
			fmt.Printf("  Created: %s\n", t.CreatedAt)
			fmt.Printf("  Updated: %s\n", t.UpdatedAt)

			events, err := app.Query.EventsForTask(ctx, t.ID, 10)
			if err != nil {
				return err
			}
			if len(events) > 0 {
				fmt.Println("\nRecent events:")
				for _, e := range events {
					printEventLine(e)
				}
			}
			return nil
		},
	}
}

func taskAssignCmd(app *wire.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign [task-id] [worker-type]",
		Short: "Route a task to a worker type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			workerID, _ := cmd.Flags().GetString("worker")
			note, _ := cmd.Flags().GetString("note")

			assignment, err := app.Orchestrator.Assign(context.Background(), primary.AssignRequest{
				TaskRef:    args[0],
				WorkerType: args[1],
				WorkerID:   workerID,
				Note:       note,
				Actor:      cliActor(),
			})
			if err != nil {
				return err
			}

			target := assignment.WorkerType
			if assignment.WorkerID != "" {
				target = fmt.Sprintf("%s (%s)", assignment.WorkerType, assignment.WorkerID)
			}
			fmt.Printf("%s Assigned task %s to %s\n", okMark(), task.ShortID(assignment.TaskID), target)
			return nil
		},
	}

	cmd.Flags().String("worker", "", "Pin to a specific worker id")
	cmd.Flags().String("note", "", "Assignment note")

	return cmd
}

func taskStatusCmd(app *wire.App) *cobra.Command {
	return &cobra.Command{
		Use:   "status [task-id] [status]",
		Short: "Change a task's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			change, err := app.Orchestrator.ChangeStatus(context.Background(), args[0], args[1], cliActor())
			if err != nil {
				return err
			}

			fmt.Printf("%s Task %s: %s -> %s\n", okMark(), task.ShortID(change.TaskID), change.From, change.To)
			return nil
		},
	}
}

func taskPriorityCmd(app *wire.App) *cobra.Command {
	return &cobra.Command{
		Use:   "priority [task-id] [priority]",
		Short: "Change a task's priority",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Orchestrator.ChangePriority(context.Background(), args[0], args[1], cliActor()); err != nil {
				return err
			}

			fmt.Printf("%s Task %s priority set to %s\n", okMark(), task.ShortID(args[0]), args[1])
			return nil
		},
	}
}

func taskCancelCmd(app *wire.App) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel [task-id]",
		Short: "Cancel a task and its active assignment",
		Long:  "Cancel a task. Any open claim stays open; use 'task release' to free the worker.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Orchestrator.Cancel(context.Background(), args[0], cliActor()); err != nil {
				return err
			}

			fmt.Printf("%s Canceled task %s\n", okMark(), task.ShortID(args[0]))
			return nil
		},
	}
}

func taskClaimCmd(app *wire.App) *cobra.Command {
	return &cobra.Command{
		Use:   "claim [task-id] [worker-id]",
		Short: "Claim a task for a worker",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			claim, err := app.Orchestrator.Claim(context.Background(), primary.ClaimRequest{
				TaskRef:  args[0],
				WorkerID: args[1],
				Actor:    primary.Actor{Type: task.ActorWorker, ID: args[1]},
			})
			if err != nil {
				return err
			}

			fmt.Printf("%s Task %s claimed by %s\n", okMark(), task.ShortID(claim.TaskID), claim.WorkerID)
			return nil
		},
	}
}

func taskReleaseCmd(app *wire.App) *cobra.Command {
	return &cobra.Command{
		Use:   "release [task-id]",
		Short: "Release the open claim on a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			released, err := app.Orchestrator.Release(context.Background(), primary.ReleaseRequest{
				TaskRef: args[0],
				Actor:   cliActor(),
			})
			if err != nil {
				return err
			}
			if released == nil {
				fmt.Printf("Task %s has no open claim.\n", task.ShortID(args[0]))
				return nil
			}

			fmt.Printf("%s Released claim on task %s (held by %s)\n",
				okMark(), task.ShortID(released.TaskID), released.WorkerID)
			return nil
		},
	}
}
