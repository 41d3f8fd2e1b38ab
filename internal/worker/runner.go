// Package worker runs a local worker process: it heartbeats on a fixed
// schedule and polls for queued tasks assigned to its worker types,
// claiming and running one at a time.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/example/missionctl/internal/apperr"
	"github.com/example/missionctl/internal/core/task"
	"github.com/example/missionctl/internal/ports/primary"
)

// TaskHandler executes one claimed task and reports its terminal status:
// done on success, failed on error.
type TaskHandler func(ctx context.Context, t *primary.TaskOverview) error

// Config holds the runner dependencies.
type Config struct {
	WorkerID          string
	WorkerTypes       []string
	HeartbeatInterval time.Duration // defaults to 15s
	PollInterval      time.Duration // defaults to 5s
	Orchestrator      primary.OrchestratorService
	Query             primary.QueryService
	Logger            *slog.Logger
	Handler           TaskHandler // nil means log-and-complete
}

// Runner is the worker loop.
type Runner struct {
	cfg  Config
	cron *cron.Cron

	mu      sync.Mutex
	current string // task id being worked, empty when idle
}

// NewRunner creates a runner, applying interval defaults.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.WorkerID == "" {
		return nil, apperr.New(apperr.Validation, "worker id is required")
	}
	for _, t := range cfg.WorkerTypes {
		if !task.ValidWorkerType(t) {
			return nil, apperr.Newf(apperr.Validation, "invalid worker type %q", t)
		}
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 15 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Handler == nil {
		cfg.Handler = func(ctx context.Context, t *primary.TaskOverview) error {
			cfg.Logger.Info("task picked up, nothing to execute", "task", task.ShortID(t.ID), "title", t.Title)
			return nil
		}
	}
	return &Runner{cfg: cfg}, nil
}

// Run heartbeats on the schedule and polls for work until ctx is done.
// The first heartbeat happens before anything else so the worker row
// exists when the first claim lands.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.heartbeat(ctx); err != nil {
		return fmt.Errorf("initial heartbeat failed: %w", err)
	}

	r.cron = cron.New()
	_, err := r.cron.AddFunc(fmt.Sprintf("@every %s", r.cfg.HeartbeatInterval), func() {
		if err := r.heartbeat(ctx); err != nil {
			r.cfg.Logger.Error("heartbeat failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule heartbeat: %w", err)
	}
	r.cron.Start()
	defer r.cron.Stop()

	r.cfg.Logger.Info("worker runner started",
		"worker", r.cfg.WorkerID,
		"types", r.cfg.WorkerTypes,
		"heartbeat", r.cfg.HeartbeatInterval,
		"poll", r.cfg.PollInterval,
	)

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.cfg.Logger.Info("worker runner stopping", "worker", r.cfg.WorkerID)
			return nil
		case <-ticker.C:
			r.poll(ctx)
		}
	}
}

func (r *Runner) heartbeat(ctx context.Context) error {
	_, err := r.cfg.Orchestrator.Heartbeat(ctx, primary.HeartbeatRequest{
		WorkerID:    r.cfg.WorkerID,
		WorkerTypes: r.cfg.WorkerTypes,
		Status:      task.WorkerOnline,
	})
	return err
}

// poll claims the next eligible task when idle. Losing the claim race to
// another worker is routine and only logged at debug.
func (r *Runner) poll(ctx context.Context) {
	r.mu.Lock()
	busy := r.current != ""
	r.mu.Unlock()
	if busy {
		return
	}

	next, err := r.nextEligible(ctx)
	if err != nil {
		r.cfg.Logger.Error("failed to poll for tasks", "error", err)
		return
	}
	if next == nil {
		return
	}

	_, err = r.cfg.Orchestrator.Claim(ctx, primary.ClaimRequest{
		TaskRef:  next.ID,
		WorkerID: r.cfg.WorkerID,
		Actor:    primary.Actor{Type: task.ActorWorker, ID: r.cfg.WorkerID},
	})
	if apperr.IsConflict(err) {
		r.cfg.Logger.Debug("lost claim race", "task", task.ShortID(next.ID))
		return
	}
	if err != nil {
		r.cfg.Logger.Error("failed to claim task", "task", task.ShortID(next.ID), "error", err)
		return
	}

	r.mu.Lock()
	r.current = next.ID
	r.mu.Unlock()

	r.runTask(ctx, next)

	r.mu.Lock()
	r.current = ""
	r.mu.Unlock()
}

// nextEligible returns the first unclaimed queued task whose active
// assignment targets this worker. A task pinned to a worker id belongs
// to that worker alone, regardless of type; an unpinned task matches on
// worker type, or on any type when none are configured.
func (r *Runner) nextEligible(ctx context.Context) (*primary.TaskOverview, error) {
	tasks, err := r.cfg.Query.ListTasks(ctx, 0)
	if err != nil {
		return nil, err
	}

	types := make(map[string]struct{}, len(r.cfg.WorkerTypes))
	for _, t := range r.cfg.WorkerTypes {
		types[t] = struct{}{}
	}

	for _, t := range tasks {
		if t.Status != task.StatusQueued || t.ClaimedByWorkerID != "" {
			continue
		}
		if t.AssignedWorkerID != "" {
			if t.AssignedWorkerID != r.cfg.WorkerID {
				continue
			}
			return t, nil
		}
		if len(types) > 0 {
			if _, ok := types[t.AssignedWorkerType]; !ok {
				continue
			}
		}
		return t, nil
	}
	return nil, nil
}

func (r *Runner) runTask(ctx context.Context, t *primary.TaskOverview) {
	actor := primary.Actor{Type: task.ActorWorker, ID: r.cfg.WorkerID}

	if _, err := r.cfg.Orchestrator.ChangeStatus(ctx, t.ID, task.StatusRunning, actor); err != nil {
		r.cfg.Logger.Error("failed to mark task running", "task", task.ShortID(t.ID), "error", err)
		return
	}

	r.cfg.Logger.Info("working task", "task", task.ShortID(t.ID), "title", t.Title)

	status := task.StatusDone
	if err := r.cfg.Handler(ctx, t); err != nil {
		r.cfg.Logger.Error("task handler failed", "task", task.ShortID(t.ID), "error", err)
		status = task.StatusFailed
	}

	err := r.cfg.Orchestrator.CompleteTask(ctx, primary.CompleteTaskRequest{
		WorkerID: r.cfg.WorkerID,
		TaskRef:  t.ID,
		Status:   status,
		Actor:    actor,
	})
	if err != nil {
		r.cfg.Logger.Error("failed to complete task", "task", task.ShortID(t.ID), "error", err)
		return
	}

	r.cfg.Logger.Info("task finished", "task", task.ShortID(t.ID), "status", status)
}
