package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/example/missionctl/internal/apperr"
	"github.com/example/missionctl/internal/core/task"
	"github.com/example/missionctl/internal/ports/secondary"
)

// ClaimRepository implements secondary.ClaimRepository with SQLite.
type ClaimRepository struct {
	db DBTX
}

// NewClaimRepository creates a new SQLite claim repository.
func NewClaimRepository(db DBTX) *ClaimRepository {
	return &ClaimRepository{db: db}
}

const claimSelectCols = "id, task_id, worker_id, claimed_at, released_at, status, meta_json"

// scanClaim scans a claim row into a ClaimRecord.
func scanClaim(scanner interface {
	Scan(dest ...any) error
}) (*secondary.ClaimRecord, error) {
	var (
		claimedAt  time.Time
		releasedAt sql.NullTime
		metaJSON   sql.NullString
	)

	record := &secondary.ClaimRecord{}
	err := scanner.Scan(
		&record.ID, &record.TaskID, &record.WorkerID, &claimedAt,
		&releasedAt, &record.Status, &metaJSON,
	)
	if err != nil {
		return nil, err
	}

	record.ClaimedAt = claimedAt.Format(time.RFC3339)
	if releasedAt.Valid {
		record.ReleasedAt = releasedAt.Time.Format(time.RFC3339)
	}
	record.MetaJSON = metaJSON.String

	return record, nil
}

// Insert persists a new open claim row. claimed_at is set by the store.
// A second open claim for the same task trips the partial unique index;
// that loss of the claim race surfaces as a conflict, not a storage
// error.
func (r *ClaimRepository) Insert(ctx context.Context, c *secondary.ClaimRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO task_claims (id, task_id, worker_id, status, meta_json) VALUES (?, ?, ?, 'claimed', ?)",
		c.ID, c.TaskID, c.WorkerID, nullable(c.MetaJSON),
	)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return apperr.Newf(apperr.Conflict, "task %s is already claimed", task.ShortID(c.TaskID))
	}
	if err != nil {
		return fmt.Errorf("failed to insert claim: %w", err)
	}

	return nil
}

// GetOpen returns the open claim for the task, or nil.
func (r *ClaimRepository) GetOpen(ctx context.Context, taskID string) (*secondary.ClaimRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+claimSelectCols+" FROM task_claims WHERE task_id = ? AND released_at IS NULL",
		taskID,
	)

	record, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open claim: %w", err)
	}

	return record, nil
}

// ReleaseOpen closes the open claim for the task and returns it.
// Returns nil when no claim is open; releasing an already-released task
// is silent.
func (r *ClaimRepository) ReleaseOpen(ctx context.Context, taskID string) (*secondary.ClaimRecord, error) {
	open, err := r.GetOpen(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, nil
	}

	_, err = r.db.ExecContext(ctx,
		"UPDATE task_claims SET released_at = CURRENT_TIMESTAMP, status = 'released' WHERE id = ?",
		open.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to release claim: %w", err)
	}

	released, err := r.getByID(ctx, open.ID)
	if err != nil {
		return nil, err
	}
	return released, nil
}

// OpenClaimsForWorker returns the open claims held by a worker, oldest
// first. A fresh query each call.
func (r *ClaimRepository) OpenClaimsForWorker(ctx context.Context, workerID string) ([]*secondary.ClaimRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+claimSelectCols+" FROM task_claims WHERE worker_id = ? AND released_at IS NULL ORDER BY claimed_at ASC, id",
		workerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list open claims: %w", err)
	}
	defer rows.Close()

	var claims []*secondary.ClaimRecord
	for rows.Next() {
		record, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list open claims: %w", err)
	}

	return claims, nil
}

func (r *ClaimRepository) getByID(ctx context.Context, id string) (*secondary.ClaimRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+claimSelectCols+" FROM task_claims WHERE id = ?",
		id,
	)

	record, err := scanClaim(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return record, nil
}

// Ensure ClaimRepository implements the interface
var _ secondary.ClaimRepository = (*ClaimRepository)(nil)
