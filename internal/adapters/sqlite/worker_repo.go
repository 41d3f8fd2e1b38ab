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

// WorkerRepository implements secondary.WorkerRepository with SQLite.
type WorkerRepository struct {
	db DBTX
}

// NewWorkerRepository creates a new SQLite worker repository.
func NewWorkerRepository(db DBTX) *WorkerRepository {
	return &WorkerRepository{db: db}
}

const workerSelectCols = "id, status, worker_types_json, last_heartbeat_at, updated_at, meta_json"

// scanWorker scans a worker row into a WorkerRecord.
func scanWorker(scanner interface {
	Scan(dest ...any) error
}) (*secondary.WorkerRecord, error) {
	var (
		lastHeartbeatAt sql.NullTime
		updatedAt       time.Time
		metaJSON        sql.NullString
	)

	record := &secondary.WorkerRecord{}
	err := scanner.Scan(
		&record.ID, &record.Status, &record.WorkerTypesJSON,
		&lastHeartbeatAt, &updatedAt, &metaJSON,
	)
	if err != nil {
		return nil, err
	}

	if lastHeartbeatAt.Valid {
		record.LastHeartbeatAt = lastHeartbeatAt.Time.Format(time.RFC3339)
	}
	record.UpdatedAt = updatedAt.Format(time.RFC3339)
	record.MetaJSON = metaJSON.String

	return record, nil
}

// Upsert inserts or refreshes a worker row keyed by id. Re-registering
// overwrites status/types/meta and bumps last_heartbeat_at to now rather
// than creating a duplicate.
func (r *WorkerRepository) Upsert(ctx context.Context, w *secondary.WorkerRecord) error {
	status := w.Status
	if status == "" {
		status = task.WorkerOnline
	}
	typesJSON := w.WorkerTypesJSON
	if typesJSON == "" {
		typesJSON = "[]"
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO workers (id, status, worker_types_json, last_heartbeat_at, meta_json)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			worker_types_json = excluded.worker_types_json,
			last_heartbeat_at = CURRENT_TIMESTAMP,
			updated_at = CURRENT_TIMESTAMP,
			meta_json = excluded.meta_json`,
		w.ID, status, typesJSON, nullable(w.MetaJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert worker: %w", err)
	}

	return nil
}

// GetByID retrieves a worker by id.
func (r *WorkerRepository) GetByID(ctx context.Context, id string) (*secondary.WorkerRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+workerSelectCols+" FROM workers WHERE id = ?",
		id,
	)

	record, err := scanWorker(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Newf(apperr.NotFound, "worker %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get worker: %w", err)
	}

	return record, nil
}

// List retrieves up to limit workers, most recently active first.
// Heartbeat recency wins; updated_at is the fallback for workers that
// have never heartbeated.
func (r *WorkerRepository) List(ctx context.Context, limit int) ([]*secondary.WorkerRecord, error) {
	if limit <= 0 {
		limit = 200
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+workerSelectCols+" FROM workers ORDER BY COALESCE(last_heartbeat_at, updated_at) DESC, id LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	defer rows.Close()

	var workers []*secondary.WorkerRecord
	for rows.Next() {
		record, err := scanWorker(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		workers = append(workers, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}

	return workers, nil
}

// Ensure WorkerRepository implements the interface
var _ secondary.WorkerRepository = (*WorkerRepository)(nil)
