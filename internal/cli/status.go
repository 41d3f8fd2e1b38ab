package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/missionctl/internal/wire"
)

// StatusCmd returns the status command: task counts by status.
func StatusCmd(app *wire.App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show task counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := app.Query.CountsByStatus(context.Background())
			if err != nil {
				return err
			}
			if len(counts) == 0 {
				fmt.Println("No tasks yet.")
				return nil
			}

			total := 0
			for _, c := range counts {
				fmt.Printf("%s %-12s %d\n", statusMark(c.Status), c.Status, c.Count)
				total += c.Count
			}
			fmt.Printf("  %-12s %d\n", "total", total)
			return nil
		},
	}
}

// EventsCmd returns the events command: the event log for one task.
func EventsCmd(app *wire.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events [task-id]",
		Short: "Show the event log for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			events, err := app.Query.EventsForTask(context.Background(), args[0], limit)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println("No events.")
				return nil
			}

			for _, e := range events {
				printEventLine(e)
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 50, "Maximum events to show")

	return cmd
}

// StatsCmd returns the stats command: completion tallies.
func StatsCmd(app *wire.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show completion statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			workerID, _ := cmd.Flags().GetString("worker")
			days, _ := cmd.Flags().GetInt("days")

			if workerID != "" {
				daily, err := app.Query.WorkerDaily(ctx, workerID, days)
				if err != nil {
					return err
				}
				if len(daily) == 0 {
					fmt.Printf("No completions for %s in the last %d days.\n", workerID, days)
					return nil
				}
				fmt.Printf("Completions for %s:\n", workerID)
				for _, d := range daily {
					fmt.Printf("  %s  %d\n", d.Day, d.Count)
				}
				return nil
			}

			completed, err := app.Query.CompletedByWorker(ctx)
			if err != nil {
				return err
			}
			if len(completed) == 0 {
				fmt.Println("No completed tasks yet.")
				return nil
			}

			fmt.Println("Completed tasks by worker:")
			for _, c := range completed {
				fmt.Printf("  %-24s %d\n", c.WorkerID, c.Count)
			}
			return nil
		},
	}

	cmd.Flags().String("worker", "", "Show per-day completions for one worker")
	cmd.Flags().Int("days", 30, "Trailing window in days (with --worker)")

	return cmd
}
