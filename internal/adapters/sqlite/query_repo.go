package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/missionctl/internal/ports/secondary"
)

// QueryRepository implements secondary.QueryRepository with SQLite.
// Everything here is a pure projection over the entity tables.
type QueryRepository struct {
	db DBTX
}

// NewQueryRepository creates a new SQLite query repository.
func NewQueryRepository(db DBTX) *QueryRepository {
	return &QueryRepository{db: db}
}

// fmtAggTime normalizes a datetime string coming out of a SQL aggregate
// (which bypasses the driver's declared-type time parsing) to RFC3339.
func fmtAggTime(s string) string {
	if s == "" {
		return ""
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	return s
}

// ListTaskOverviews returns tasks joined with their active assignment and
// open claim, plus first-claim/last-release timestamps derived from the
// claim history.
func (r *QueryRepository) ListTaskOverviews(ctx context.Context, limit int) ([]*secondary.TaskOverviewRow, error) {
	if limit <= 0 {
		limit = 200
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			t.id, t.created_at, t.updated_at, t.title, t.description,
			t.status, t.priority, t.source, t.requester, t.tags_json, t.meta_json,
			a.worker_type, a.worker_id,
			c.worker_id, c.claimed_at,
			(SELECT MIN(claimed_at) FROM task_claims c2 WHERE c2.task_id = t.id),
			(SELECT MAX(released_at) FROM task_claims c3 WHERE c3.task_id = t.id AND c3.released_at IS NOT NULL)
		FROM tasks t
		LEFT JOIN task_assignments a ON a.task_id = t.id AND a.status = 'active'
		LEFT JOIN task_claims c ON c.task_id = t.id AND c.released_at IS NULL
		ORDER BY t.updated_at DESC, t.id
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list task overviews: %w", err)
	}
	defer rows.Close()

	var overviews []*secondary.TaskOverviewRow
	for rows.Next() {
		var (
			createdAt          time.Time
			updatedAt          time.Time
			desc               sql.NullString
			requester          sql.NullString
			tagsJSON           sql.NullString
			metaJSON           sql.NullString
			assignedWorkerType sql.NullString
			assignedWorkerID   sql.NullString
			claimedByWorkerID  sql.NullString
			claimedAt          sql.NullTime
			startedAt          sql.NullString
			finishedAt         sql.NullString
		)

		row := &secondary.TaskOverviewRow{}
		err := rows.Scan(
			&row.ID, &createdAt, &updatedAt, &row.Title, &desc,
			&row.Status, &row.Priority, &row.Source, &requester, &tagsJSON, &metaJSON,
			&assignedWorkerType, &assignedWorkerID,
			&claimedByWorkerID, &claimedAt,
			&startedAt, &finishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task overview: %w", err)
		}

		row.CreatedAt = createdAt.Format(time.RFC3339)
		row.UpdatedAt = updatedAt.Format(time.RFC3339)
		row.Description = desc.String
		row.Requester = requester.String
		row.TagsJSON = tagsJSON.String
		row.MetaJSON = metaJSON.String
		row.AssignedWorkerType = assignedWorkerType.String
		row.AssignedWorkerID = assignedWorkerID.String
		row.ClaimedByWorkerID = claimedByWorkerID.String
		if claimedAt.Valid {
			row.ClaimedAt = claimedAt.Time.Format(time.RFC3339)
		}
		row.StartedAt = fmtAggTime(startedAt.String)
		row.FinishedAt = fmtAggTime(finishedAt.String)

		overviews = append(overviews, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list task overviews: %w", err)
	}

	return overviews, nil
}

// ListWorkerOverviews returns one row per worker with the single
// most-recent open claim. The correlated subselect keeps the join from
// fanning out when a worker somehow holds several open claims, so no
// client-side de-duplication is ever needed.
func (r *QueryRepository) ListWorkerOverviews(ctx context.Context, limit int) ([]*secondary.WorkerOverviewRow, error) {
	if limit <= 0 {
		limit = 200
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			w.id, w.status, w.worker_types_json, w.last_heartbeat_at, w.updated_at, w.meta_json,
			c.task_id, c.claimed_at,
			t.title, t.status,
			(SELECT COUNT(*) FROM task_claims oc WHERE oc.worker_id = w.id AND oc.released_at IS NULL)
		FROM workers w
		LEFT JOIN task_claims c ON c.id = (
			SELECT c2.id FROM task_claims c2
			WHERE c2.worker_id = w.id AND c2.released_at IS NULL
			ORDER BY c2.claimed_at DESC, c2.id DESC
			LIMIT 1
		)
		LEFT JOIN tasks t ON t.id = c.task_id
		ORDER BY COALESCE(w.last_heartbeat_at, w.updated_at) DESC, w.id
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list worker overviews: %w", err)
	}
	defer rows.Close()

	var overviews []*secondary.WorkerOverviewRow
	for rows.Next() {
		var (
			lastHeartbeatAt sql.NullTime
			updatedAt       time.Time
			metaJSON        sql.NullString
			currentTaskID   sql.NullString
			claimedAt       sql.NullTime
			taskTitle       sql.NullString
			taskStatus      sql.NullString
		)

		row := &secondary.WorkerOverviewRow{}
		err := rows.Scan(
			&row.ID, &row.Status, &row.WorkerTypesJSON, &lastHeartbeatAt, &updatedAt, &metaJSON,
			&currentTaskID, &claimedAt,
			&taskTitle, &taskStatus,
			&row.ActiveClaimCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan worker overview: %w", err)
		}

		if lastHeartbeatAt.Valid {
			row.LastHeartbeatAt = lastHeartbeatAt.Time.Format(time.RFC3339)
		}
		row.UpdatedAt = updatedAt.Format(time.RFC3339)
		row.MetaJSON = metaJSON.String
		row.CurrentTaskID = currentTaskID.String
		if claimedAt.Valid {
			row.CurrentTaskClaimedAt = claimedAt.Time.Format(time.RFC3339)
		}
		row.CurrentTaskTitle = taskTitle.String
		row.CurrentTaskStatus = taskStatus.String

		overviews = append(overviews, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list worker overviews: %w", err)
	}

	return overviews, nil
}

// CountTasksByStatus tallies tasks grouped by status.
func (r *QueryRepository) CountTasksByStatus(ctx context.Context) ([]secondary.StatusCount, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM tasks GROUP BY status ORDER BY status",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by status: %w", err)
	}
	defer rows.Close()

	var counts []secondary.StatusCount
	for rows.Next() {
		var c secondary.StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to count tasks by status: %w", err)
	}

	return counts, nil
}

// CompletedByWorker tallies terminal tasks grouped by claiming worker.
// DISTINCT guards against a task with several claims by the same worker
// counting twice.
func (r *QueryRepository) CompletedByWorker(ctx context.Context) ([]secondary.WorkerCompletedCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.worker_id, COUNT(DISTINCT t.id)
		FROM tasks t
		JOIN task_claims c ON c.task_id = t.id
		WHERE t.status IN ('done', 'failed', 'canceled')
		GROUP BY c.worker_id
		ORDER BY COUNT(DISTINCT t.id) DESC, c.worker_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed tasks: %w", err)
	}
	defer rows.Close()

	var counts []secondary.WorkerCompletedCount
	for rows.Next() {
		var c secondary.WorkerCompletedCount
		if err := rows.Scan(&c.WorkerID, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan completed count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to count completed tasks: %w", err)
	}

	return counts, nil
}

// WorkerDailyCompleted tallies terminal tasks per day for one worker over
// the trailing window. Used by the dashboard activity heatmap.
func (r *QueryRepository) WorkerDailyCompleted(ctx context.Context, workerID string, days int) ([]secondary.DailyCount, error) {
	if days <= 0 {
		days = 90
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT date(t.updated_at), COUNT(DISTINCT t.id)
		FROM tasks t
		JOIN task_claims c ON c.task_id = t.id
		WHERE t.status IN ('done', 'failed', 'canceled')
			AND c.worker_id = ?
			AND datetime(t.updated_at) >= datetime('now', ?)
		GROUP BY date(t.updated_at)
		ORDER BY date(t.updated_at) ASC`,
		workerID, fmt.Sprintf("-%d days", days),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count daily completions: %w", err)
	}
	defer rows.Close()

	var counts []secondary.DailyCount
	for rows.Next() {
		var c secondary.DailyCount
		if err := rows.Scan(&c.Day, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan daily count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to count daily completions: %w", err)
	}

	return counts, nil
}

// Ensure QueryRepository implements the interface
var _ secondary.QueryRepository = (*QueryRepository)(nil)
