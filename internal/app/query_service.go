package app

import (
	"context"

	"github.com/example/missionctl/internal/apperr"
	"github.com/example/missionctl/internal/core/task"
	"github.com/example/missionctl/internal/ports/primary"
	"github.com/example/missionctl/internal/ports/secondary"
)

// QueryServiceImpl serves the read models off repositories bound to the
// bare connection. Projections only; writes go through the orchestrator.
type QueryServiceImpl struct {
	repos   secondary.Repositories
	queries secondary.QueryRepository
}

// NewQueryService creates the query service.
func NewQueryService(repos secondary.Repositories, queries secondary.QueryRepository) *QueryServiceImpl {
	return &QueryServiceImpl{repos: repos, queries: queries}
}

func (s *QueryServiceImpl) ListTasks(ctx context.Context, limit int) ([]*primary.TaskOverview, error) {
	rows, err := s.queries.ListTaskOverviews(ctx, limit)
	if err != nil {
		return nil, err
	}

	out := make([]*primary.TaskOverview, 0, len(rows))
	for _, row := range rows {
		out = append(out, &primary.TaskOverview{
			Task:               *recordToTask(&row.TaskRecord),
			AssignedWorkerType: row.AssignedWorkerType,
			AssignedWorkerID:   row.AssignedWorkerID,
			ClaimedByWorkerID:  row.ClaimedByWorkerID,
			ClaimedAt:          row.ClaimedAt,
			StartedAt:          row.StartedAt,
			FinishedAt:         row.FinishedAt,
		})
	}
	return out, nil
}

func (s *QueryServiceImpl) ListWorkers(ctx context.Context, limit int) ([]*primary.WorkerOverview, error) {
	rows, err := s.queries.ListWorkerOverviews(ctx, limit)
	if err != nil {
		return nil, err
	}

	out := make([]*primary.WorkerOverview, 0, len(rows))
	for _, row := range rows {
		out = append(out, &primary.WorkerOverview{
			Worker:               *recordToWorker(&row.WorkerRecord),
			CurrentTaskID:        row.CurrentTaskID,
			CurrentTaskClaimedAt: row.CurrentTaskClaimedAt,
			CurrentTaskTitle:     row.CurrentTaskTitle,
			CurrentTaskStatus:    row.CurrentTaskStatus,
			ActiveClaimCount:     row.ActiveClaimCount,
		})
	}
	return out, nil
}

func (s *QueryServiceImpl) EventsForTask(ctx context.Context, taskRef string, limit int) ([]*primary.Event, error) {
	t, err := s.repos.Tasks.FindByIDOrPrefix(ctx, taskRef)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.Newf(apperr.NotFound, "task %s not found", task.ShortID(taskRef))
	}

	rows, err := s.repos.Events.ForTask(ctx, t.ID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]*primary.Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, recordToEvent(row))
	}
	return out, nil
}

func (s *QueryServiceImpl) CountsByStatus(ctx context.Context) ([]primary.StatusCount, error) {
	rows, err := s.queries.CountTasksByStatus(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]primary.StatusCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, primary.StatusCount{Status: row.Status, Count: row.Count})
	}
	return out, nil
}

func (s *QueryServiceImpl) CompletedByWorker(ctx context.Context) ([]primary.WorkerCompletedCount, error) {
	rows, err := s.queries.CompletedByWorker(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]primary.WorkerCompletedCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, primary.WorkerCompletedCount{WorkerID: row.WorkerID, Count: row.Count})
	}
	return out, nil
}

func (s *QueryServiceImpl) WorkerDaily(ctx context.Context, workerID string, days int) ([]primary.DailyCount, error) {
	if workerID == "" {
		return nil, apperr.New(apperr.Validation, "worker id is required")
	}
	if days <= 0 {
		days = 7
	}

	rows, err := s.queries.WorkerDailyCompleted(ctx, workerID, days)
	if err != nil {
		return nil, err
	}

	out := make([]primary.DailyCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, primary.DailyCount{Day: row.Day, Count: row.Count})
	}
	return out, nil
}

// Ensure QueryServiceImpl implements the interface
var _ primary.QueryService = (*QueryServiceImpl)(nil)
