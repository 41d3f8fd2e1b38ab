package primary

import "context"

// TaskOverview is a task joined with its active assignment and open
// claim, plus derived claim-span timestamps.
type TaskOverview struct {
	Task

	AssignedWorkerType string
	AssignedWorkerID   string
	ClaimedByWorkerID  string
	ClaimedAt          string
	StartedAt          string
	FinishedAt         string
}

// WorkerOverview is a worker joined with its current open claim.
type WorkerOverview struct {
	Worker

	CurrentTaskID        string
	CurrentTaskClaimedAt string
	CurrentTaskTitle     string
	CurrentTaskStatus    string
	ActiveClaimCount     int
}

// StatusCount is a per-status task tally.
type StatusCount struct {
	Status string
	Count  int
}

// WorkerCompletedCount tallies completed tasks by claiming worker.
type WorkerCompletedCount struct {
	WorkerID string
	Count    int
}

// DailyCount is a per-day completed-task tally.
type DailyCount struct {
	Day   string
	Count int
}

// QueryService serves the dashboard/bot/CLI read models. Projections
// only; never a basis for writes.
type QueryService interface {
	ListTasks(ctx context.Context, limit int) ([]*TaskOverview, error)
	ListWorkers(ctx context.Context, limit int) ([]*WorkerOverview, error)
	EventsForTask(ctx context.Context, taskRef string, limit int) ([]*Event, error)
	CountsByStatus(ctx context.Context) ([]StatusCount, error)
	CompletedByWorker(ctx context.Context) ([]WorkerCompletedCount, error)
	WorkerDaily(ctx context.Context, workerID string, days int) ([]DailyCount, error)
}
