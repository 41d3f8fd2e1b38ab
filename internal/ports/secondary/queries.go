package secondary

import "context"

// TaskOverviewRow is the read-model row for the task list: the task plus
// its active assignment and open claim, with derived claim-span columns.
type TaskOverviewRow struct {
	TaskRecord

	AssignedWorkerType string
	AssignedWorkerID   string
	ClaimedByWorkerID  string
	ClaimedAt          string
	StartedAt          string
	FinishedAt         string
}

// WorkerOverviewRow is the read-model row for the worker list: the worker
// plus its single most-recent open claim and the open-claim count.
// The query guarantees one row per worker.
type WorkerOverviewRow struct {
	WorkerRecord

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

// WorkerCompletedCount tallies terminal tasks by claiming worker.
type WorkerCompletedCount struct {
	WorkerID string
	Count    int
}

// DailyCount is a per-day completed-task tally for one worker.
type DailyCount struct {
	Day   string
	Count int
}

// QueryRepository serves the read models. These are pure projections:
// callers must never use them as a basis for further writes.
type QueryRepository interface {
	// ListTaskOverviews returns up to limit tasks, newest update first,
	// joined with their active assignment and open claim.
	ListTaskOverviews(ctx context.Context, limit int) ([]*TaskOverviewRow, error)

	// ListWorkerOverviews returns up to limit workers, most recently
	// active first, each with at most one current-claim column set.
	ListWorkerOverviews(ctx context.Context, limit int) ([]*WorkerOverviewRow, error)

	// CountTasksByStatus tallies tasks grouped by status.
	CountTasksByStatus(ctx context.Context) ([]StatusCount, error)

	// CompletedByWorker tallies terminal tasks grouped by claiming worker.
	CompletedByWorker(ctx context.Context) ([]WorkerCompletedCount, error)

	// WorkerDailyCompleted tallies terminal tasks per day for one worker
	// over the trailing window of days.
	WorkerDailyCompleted(ctx context.Context, workerID string, days int) ([]DailyCount, error)
}
