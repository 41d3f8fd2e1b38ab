package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/missionctl/internal/core/task"
	"github.com/example/missionctl/internal/ports/primary"
	"github.com/example/missionctl/internal/wire"
)

func taskStartCmd(app *wire.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start [worker-id] [title]",
		Short: "Create a task already running and claimed by a worker",
		Long:  "Registers the worker if needed, then creates the task in running status with an active assignment and an open claim, all at once. Useful for back-filling work that is already underway.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			workerType, _ := cmd.Flags().GetString("type")
			description, _ := cmd.Flags().GetString("description")
			priority, _ := cmd.Flags().GetString("priority")

			started, err := app.Orchestrator.StartTask(context.Background(), primary.StartTaskRequest{
				WorkerID:    args[0],
				WorkerType:  workerType,
				Title:       args[1],
				Description: description,
				Priority:    priority,
				Actor:       primary.Actor{Type: task.ActorWorker, ID: args[0]},
			})
			if err != nil {
				return err
			}

			fmt.Printf("%s Started task %s: %s\n", okMark(), task.ShortID(started.ID), started.Title)
			fmt.Printf("  Claimed by: %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().String("type", "", "Worker type (defaults to coder)")
	cmd.Flags().String("description", "", "Task description")
	cmd.Flags().String("priority", "", "Priority (low, normal, high, urgent)")

	return cmd
}

func taskCompleteCmd(app *wire.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete [worker-id] [task-id]",
		Short: "Release the claim and finish a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")

			err := app.Orchestrator.CompleteTask(context.Background(), primary.CompleteTaskRequest{
				WorkerID: args[0],
				TaskRef:  args[1],
				Status:   status,
				Actor:    primary.Actor{Type: task.ActorWorker, ID: args[0]},
			})
			if err != nil {
				return err
			}

			if status == "" {
				status = task.StatusDone
			}
			fmt.Printf("%s Task %s completed as %s\n", okMark(), task.ShortID(args[1]), status)
			return nil
		},
	}

	cmd.Flags().String("status", "", "Terminal status (done, failed, canceled; defaults to done)")

	return cmd
}
