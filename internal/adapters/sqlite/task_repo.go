package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/missionctl/internal/apperr"
	"github.com/example/missionctl/internal/core/task"
	"github.com/example/missionctl/internal/ports/secondary"
)

// TaskRepository implements secondary.TaskRepository with SQLite.
type TaskRepository struct {
	db DBTX
}

// NewTaskRepository creates a new SQLite task repository.
func NewTaskRepository(db DBTX) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskSelectCols = "id, created_at, updated_at, title, description, status, priority, source, requester, tags_json, meta_json"

// scanTask scans a task row into a TaskRecord.
func scanTask(scanner interface {
	Scan(dest ...any) error
}) (*secondary.TaskRecord, error) {
	var (
		createdAt time.Time
		updatedAt time.Time
		desc      sql.NullString
		requester sql.NullString
		tagsJSON  sql.NullString
		metaJSON  sql.NullString
	)

	record := &secondary.TaskRecord{}
	err := scanner.Scan(
		&record.ID, &createdAt, &updatedAt, &record.Title, &desc,
		&record.Status, &record.Priority, &record.Source, &requester,
		&tagsJSON, &metaJSON,
	)
	if err != nil {
		return nil, err
	}

	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)
	record.Description = desc.String
	record.Requester = requester.String
	record.TagsJSON = tagsJSON.String
	record.MetaJSON = metaJSON.String

	return record, nil
}

// Create persists a new task. Status defaults to queued and priority to
// normal at the schema level when the record leaves them empty.
func (r *TaskRepository) Create(ctx context.Context, t *secondary.TaskRecord) error {
	status := t.Status
	if status == "" {
		status = task.StatusQueued
	}
	priority := t.Priority
	if priority == "" {
		priority = task.PriorityNormal
	}
	source := t.Source
	if source == "" {
		source = task.SourceCLI
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO tasks (id, title, description, status, priority, source, requester, tags_json, meta_json) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.Title, nullable(t.Description), status, priority, source,
		nullable(t.Requester), nullable(t.TagsJSON), nullable(t.MetaJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetByID retrieves a task by its exact id.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*secondary.TaskRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+taskSelectCols+" FROM tasks WHERE id = ?",
		id,
	)

	record, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Newf(apperr.NotFound, "task %s not found", task.ShortID(id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return record, nil
}

// FindByIDOrPrefix resolves a token to a task. Exact match always wins;
// otherwise a prefix match is returned only when exactly one task id
// starts with the token. Zero or ambiguous matches return nil.
func (r *TaskRepository) FindByIDOrPrefix(ctx context.Context, token string) (*secondary.TaskRecord, error) {
	if token == "" {
		return nil, nil
	}

	row := r.db.QueryRowContext(ctx,
		"SELECT "+taskSelectCols+" FROM tasks WHERE id = ?",
		token,
	)
	record, err := scanTask(row)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to resolve task: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+taskSelectCols+" FROM tasks WHERE id LIKE ? || '%' LIMIT 2",
		token,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve task prefix: %w", err)
	}
	defer rows.Close()

	var matches []*secondary.TaskRecord
	for rows.Next() {
		m, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to resolve task prefix: %w", err)
	}

	if len(matches) != 1 {
		return nil, nil
	}
	return matches[0], nil
}

// List retrieves tasks matching the given filters, newest update first.
func (r *TaskRepository) List(ctx context.Context, filters secondary.TaskFilters) ([]*secondary.TaskRecord, error) {
	query := "SELECT " + taskSelectCols + " FROM tasks WHERE 1=1"
	args := []any{}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}
	if filters.Source != "" {
		query += " AND source = ?"
		args = append(args, filters.Source)
	}

	query += " ORDER BY updated_at DESC, id"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*secondary.TaskRecord
	for rows.Next() {
		record, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

// UpdateStatus overwrites the task status.
func (r *TaskRepository) UpdateStatus(ctx context.Context, id, status string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE tasks SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return apperr.Newf(apperr.NotFound, "task %s not found", task.ShortID(id))
	}

	return nil
}

// UpdatePriority overwrites the task priority.
func (r *TaskRepository) UpdatePriority(ctx context.Context, id, priority string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE tasks SET priority = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		priority, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update task priority: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return apperr.Newf(apperr.NotFound, "task %s not found", task.ShortID(id))
	}

	return nil
}

// Ensure TaskRepository implements the interface
var _ secondary.TaskRepository = (*TaskRepository)(nil)
