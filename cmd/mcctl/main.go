package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/missionctl/internal/cli"
	"github.com/example/missionctl/internal/config"
	"github.com/example/missionctl/internal/db"
	"github.com/example/missionctl/internal/version"
	"github.com/example/missionctl/internal/wire"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}

	dbPath, err := env.ResolvedDBPath()
	if err != nil {
		return err
	}
	database, err := db.Open(dbPath)
	if err != nil {
		return err
	}

	app := wire.New(database)
	defer app.Close()

	rootCmd := &cobra.Command{
		Use:     "mcctl",
		Short:   "Mission Control - task orchestration for a mixed worker fleet",
		Version: version.String(),
		Long: `mcctl manages the Mission Control task ledger: tasks, assignments,
claims, workers and the event log. It also hosts the dashboard API,
the Telegram orchestrator bot, and a local worker runner.`,
	}

	rootCmd.AddCommand(cli.TaskCmd(app))
	rootCmd.AddCommand(cli.WorkerCmd(app))
	rootCmd.AddCommand(cli.StatusCmd(app))
	rootCmd.AddCommand(cli.EventsCmd(app))
	rootCmd.AddCommand(cli.StatsCmd(app))

	// Long-running entry points.
	rootCmd.AddCommand(cli.ServeCmd(app, env))
	rootCmd.AddCommand(cli.BotCmd(app, env))
	rootCmd.AddCommand(cli.RunCmd(app, env))

	return rootCmd.Execute()
}
