// Package telegram runs the orchestrator chat bot. Commands translate
// straight into facade calls; tasks created here carry the chat source.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/missionctl/internal/core/task"
	"github.com/example/missionctl/internal/ports/primary"
)

// Bot is the Telegram orchestrator front end.
type Bot struct {
	token  string
	orch   primary.OrchestratorService
	query  primary.QueryService
	logger *slog.Logger
	bot    *tgbotapi.BotAPI
}

// NewBot creates the bot. Start does the actual Telegram handshake.
func NewBot(token string, orch primary.OrchestratorService, query primary.QueryService, logger *slog.Logger) *Bot {
	return &Bot{token: token, orch: orch, query: query, logger: logger}
}

// Start connects to Telegram and polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	var err error
	b.bot, err = tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("telegram init failed: %w", err)
	}

	b.logger.Info("telegram bot started", "user", b.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("update channel closed")
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	var reply string

	switch msg.Command() {
	case "start", "help":
		reply = helpText()
	case "newtask":
		reply = b.newTask(ctx, msg)
	case "status":
		reply = b.status(ctx)
	case "tasks":
		reply = b.tasks(ctx)
	case "workers":
		reply = b.workers(ctx)
	default:
		reply = "Unknown command. Try /help."
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, reply)
	if _, err := b.bot.Send(out); err != nil {
		b.logger.Error("failed to send reply", "error", err)
	}
}

func (b *Bot) newTask(ctx context.Context, msg *tgbotapi.Message) string {
	title, workerType := parseNewTaskArgs(msg.CommandArguments())
	if title == "" {
		return "Usage: /newtask <title> [@workerType]"
	}

	actor := primary.Actor{Type: task.ActorOrchestrator, ID: msg.From.UserName}
	create := primary.CreateTaskRequest{
		Title:     title,
		Source:    task.SourceChat,
		Requester: msg.From.UserName,
		Actor:     actor,
	}

	var created *primary.Task
	var err error
	if workerType != "" {
		created, err = b.orch.CreateAndAssign(ctx, primary.CreateAndAssignRequest{
			Create: create,
			Assign: primary.AssignRequest{WorkerType: workerType, Actor: actor},
		})
	} else {
		created, err = b.orch.CreateTask(ctx, create)
	}
	if err != nil {
		return fmt.Sprintf("Could not create task: %v", err)
	}

	line := fmt.Sprintf("Created task %s: %s", task.ShortID(created.ID), created.Title)
	if workerType != "" {
		line += fmt.Sprintf(" (assigned to %s)", workerType)
	}
	return line
}

func (b *Bot) status(ctx context.Context) string {
	counts, err := b.query.CountsByStatus(ctx)
	if err != nil {
		return fmt.Sprintf("Could not read status: %v", err)
	}
	return formatStatusCounts(counts)
}

func (b *Bot) tasks(ctx context.Context) string {
	tasks, err := b.query.ListTasks(ctx, 10)
	if err != nil {
		return fmt.Sprintf("Could not list tasks: %v", err)
	}
	return formatTaskList(tasks)
}

func (b *Bot) workers(ctx context.Context) string {
	workers, err := b.query.ListWorkers(ctx, 20)
	if err != nil {
		return fmt.Sprintf("Could not list workers: %v", err)
	}
	return formatWorkerList(workers)
}

func helpText() string {
	return strings.Join([]string{
		"Mission Control bot.",
		"",
		"/newtask <title> [@workerType] - create a task",
		"/status - task counts by status",
		"/tasks - recent tasks",
		"/workers - worker fleet",
		"/help - this message",
	}, "\n")
}

// parseNewTaskArgs splits "/newtask fix the header @designer" into the
// title and an optional trailing @workerType token.
func parseNewTaskArgs(args string) (title, workerType string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "", ""
	}

	last := fields[len(fields)-1]
	if strings.HasPrefix(last, "@") && task.ValidWorkerType(strings.TrimPrefix(last, "@")) {
		workerType = strings.TrimPrefix(last, "@")
		fields = fields[:len(fields)-1]
	}

	return strings.Join(fields, " "), workerType
}

func formatStatusCounts(counts []primary.StatusCount) string {
	if len(counts) == 0 {
		return "No tasks yet."
	}

	var sb strings.Builder
	sb.WriteString("Tasks by status:\n")
	for _, c := range counts {
		fmt.Fprintf(&sb, "  %s: %d\n", c.Status, c.Count)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatTaskList(tasks []*primary.TaskOverview) string {
	if len(tasks) == 0 {
		return "No tasks yet."
	}

	var sb strings.Builder
	sb.WriteString("Recent tasks:\n")
	for _, t := range tasks {
		line := fmt.Sprintf("  %s [%s/%s] %s", task.ShortID(t.ID), t.Status, t.Priority, t.Title)
		if t.ClaimedByWorkerID != "" {
			line += fmt.Sprintf(" (claimed by %s)", t.ClaimedByWorkerID)
		} else if t.AssignedWorkerType != "" {
			line += fmt.Sprintf(" (-> %s)", t.AssignedWorkerType)
		}
		sb.WriteString(line + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatWorkerList(workers []*primary.WorkerOverview) string {
	if len(workers) == 0 {
		return "No workers registered."
	}

	var sb strings.Builder
	sb.WriteString("Workers:\n")
	for _, w := range workers {
		line := fmt.Sprintf("  %s [%s]", w.ID, w.Status)
		if len(w.WorkerTypes) > 0 {
			line += " " + strings.Join(w.WorkerTypes, ",")
		}
		if w.CurrentTaskTitle != "" {
			line += fmt.Sprintf(" - working on: %s", w.CurrentTaskTitle)
		}
		sb.WriteString(line + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
