package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/missionctl/internal/adapters/httpapi"
	"github.com/example/missionctl/internal/adapters/telegram"
	"github.com/example/missionctl/internal/config"
	"github.com/example/missionctl/internal/wire"
	"github.com/example/missionctl/internal/worker"
)

func newLogger(env *config.Env) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: env.SlogLevel()}))
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// ServeCmd returns the serve command: the dashboard API server.
func ServeCmd(app *wire.App, env *config.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				env.HTTPAddr = addr
			}

			ctx, cancel := signalContext()
			defer cancel()

			server := httpapi.NewServer(env, app.Orchestrator, app.Query, newLogger(env))
			return server.ListenAndServe(ctx)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (overrides MISSION_CONTROL_HTTP_ADDR)")

	return cmd
}

// BotCmd returns the bot command: the Telegram orchestrator bot.
func BotCmd(app *wire.App, env *config.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram orchestrator bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if env.TelegramBotToken == "" {
				return fmt.Errorf("MISSION_CONTROL_TELEGRAM_BOT_TOKEN is not set")
			}

			ctx, cancel := signalContext()
			defer cancel()

			bot := telegram.NewBot(env.TelegramBotToken, app.Orchestrator, app.Query, newLogger(env))
			return bot.Start(ctx)
		},
	}
}

// RunCmd returns the run command: the local worker runner.
func RunCmd(app *wire.App, env *config.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a local worker that heartbeats and picks up assigned tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			workerID := env.WorkerID
			if id, _ := cmd.Flags().GetString("worker"); id != "" {
				workerID = id
			}

			heartbeat, err := time.ParseDuration(env.HeartbeatInterval)
			if err != nil {
				return fmt.Errorf("invalid heartbeat interval %q: %w", env.HeartbeatInterval, err)
			}
			poll, err := time.ParseDuration(env.WorkerPollInterval)
			if err != nil {
				return fmt.Errorf("invalid poll interval %q: %w", env.WorkerPollInterval, err)
			}

			runner, err := worker.NewRunner(worker.Config{
				WorkerID:          workerID,
				WorkerTypes:       env.WorkerTypeList(),
				HeartbeatInterval: heartbeat,
				PollInterval:      poll,
				Orchestrator:      app.Orchestrator,
				Query:             app.Query,
				Logger:            newLogger(env),
			})
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			return runner.Run(ctx)
		},
	}

	cmd.Flags().String("worker", "", "Worker id (overrides MISSION_CONTROL_WORKER_ID)")

	return cmd
}
