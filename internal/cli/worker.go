package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/missionctl/internal/ports/primary"
	"github.com/example/missionctl/internal/wire"
)

// WorkerCmd returns the worker command tree.
func WorkerCmd(app *wire.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage the worker fleet",
	}

	cmd.AddCommand(workerHeartbeatCmd(app))
	cmd.AddCommand(workerListCmd(app))

	return cmd
}

func workerHeartbeatCmd(app *wire.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "heartbeat [worker-id]",
		Short: "Register or refresh a worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			types, _ := cmd.Flags().GetStringSlice("type")
			status, _ := cmd.Flags().GetString("status")

			worker, err := app.Orchestrator.Heartbeat(context.Background(), primary.HeartbeatRequest{
				WorkerID:    args[0],
				WorkerTypes: types,
				Status:      status,
			})
			if err != nil {
				return err
			}

			fmt.Printf("%s Worker %s is %s\n", okMark(), worker.ID, worker.Status)
			if len(worker.WorkerTypes) > 0 {
				fmt.Printf("  Types: %v\n", worker.WorkerTypes)
			}
			return nil
		},
	}

	cmd.Flags().StringSlice("type", nil, "Worker type (repeatable)")
	cmd.Flags().String("status", "", "Worker status (online, offline, draining)")

	return cmd
}

func workerListCmd(app *wire.App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workers with their current claims",
		RunE: func(cmd *cobra.Command, args []string) error {
			workers, err := app.Query.ListWorkers(context.Background(), 0)
			if err != nil {
				return err
			}
			if len(workers) == 0 {
				fmt.Println("No workers registered.")
				return nil
			}

			for _, w := range workers {
				printWorkerLine(w)
			}
			return nil
		},
	}
}
