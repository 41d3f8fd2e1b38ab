package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/missionctl/internal/core/task"
	"github.com/example/missionctl/internal/ports/secondary"
)

// AssignmentRepository implements secondary.AssignmentRepository with SQLite.
type AssignmentRepository struct {
	db DBTX
}

// NewAssignmentRepository creates a new SQLite assignment repository.
func NewAssignmentRepository(db DBTX) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentSelectCols = "id, task_id, worker_type, worker_id, status, assigned_by_actor_type, assigned_by_actor_id, note, meta_json, created_at"

// scanAssignment scans an assignment row into an AssignmentRecord.
func scanAssignment(scanner interface {
	Scan(dest ...any) error
}) (*secondary.AssignmentRecord, error) {
	var (
		workerID  sql.NullString
		actorType sql.NullString
		actorID   sql.NullString
		note      sql.NullString
		metaJSON  sql.NullString
		createdAt time.Time
	)

	record := &secondary.AssignmentRecord{}
	err := scanner.Scan(
		&record.ID, &record.TaskID, &record.WorkerType, &workerID,
		&record.Status, &actorType, &actorID, &note, &metaJSON, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	record.WorkerID = workerID.String
	record.AssignedByActorType = actorType.String
	record.AssignedByActorID = actorID.String
	record.Note = note.String
	record.MetaJSON = metaJSON.String
	record.CreatedAt = createdAt.Format(time.RFC3339)

	return record, nil
}

// Insert persists a new assignment row.
func (r *AssignmentRepository) Insert(ctx context.Context, a *secondary.AssignmentRecord) error {
	status := a.Status
	if status == "" {
		status = task.AssignmentActive
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO task_assignments (id, task_id, worker_type, worker_id, status, assigned_by_actor_type, assigned_by_actor_id, note, meta_json) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		a.ID, a.TaskID, a.WorkerType, nullable(a.WorkerID), status,
		nullable(a.AssignedByActorType), nullable(a.AssignedByActorID),
		nullable(a.Note), nullable(a.MetaJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert assignment: %w", err)
	}

	return nil
}

// SupersedeActive flips any active assignment for the task to superseded.
func (r *AssignmentRepository) SupersedeActive(ctx context.Context, taskID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE task_assignments SET status = 'superseded' WHERE task_id = ? AND status = 'active'",
		taskID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to supersede assignment: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected, nil
}

// CancelActive flips the active assignment (if any) to canceled.
func (r *AssignmentRepository) CancelActive(ctx context.Context, taskID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE task_assignments SET status = 'canceled' WHERE task_id = ? AND status = 'active'",
		taskID,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel assignment: %w", err)
	}

	return nil
}

// GetActive returns the active assignment for the task, or nil.
func (r *AssignmentRepository) GetActive(ctx context.Context, taskID string) (*secondary.AssignmentRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+assignmentSelectCols+" FROM task_assignments WHERE task_id = ? AND status = 'active'",
		taskID,
	)

	record, err := scanAssignment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active assignment: %w", err)
	}

	return record, nil
}

// Ensure AssignmentRepository implements the interface
var _ secondary.AssignmentRepository = (*AssignmentRepository)(nil)
