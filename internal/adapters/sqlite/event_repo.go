package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/missionctl/internal/apperr"
	"github.com/example/missionctl/internal/core/task"
	"github.com/example/missionctl/internal/ports/secondary"
)

// EventRepository implements secondary.EventRepository with SQLite.
// Rows are write-once: there is no update or delete path here at all.
type EventRepository struct {
	db DBTX
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(db DBTX) *EventRepository {
	return &EventRepository{db: db}
}

const eventSelectCols = "id, created_at, task_id, actor_type, actor_id, level, type, message, correlation_id, payload_json"

// scanEvent scans an event row into an EventRecord.
func scanEvent(scanner interface {
	Scan(dest ...any) error
}) (*secondary.EventRecord, error) {
	var (
		createdAt     time.Time
		taskID        sql.NullString
		actorID       sql.NullString
		message       sql.NullString
		correlationID sql.NullString
		payloadJSON   sql.NullString
	)

	record := &secondary.EventRecord{}
	err := scanner.Scan(
		&record.ID, &createdAt, &taskID, &record.ActorType, &actorID,
		&record.Level, &record.Type, &message, &correlationID, &payloadJSON,
	)
	if err != nil {
		return nil, err
	}

	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.TaskID = taskID.String
	record.ActorID = actorID.String
	record.Message = message.String
	record.CorrelationID = correlationID.String
	record.PayloadJSON = payloadJSON.String

	return record, nil
}

// Append inserts an event row. The only validation is the closed type
// and actor vocabularies; the log must never be the reason a business
// operation fails.
func (r *EventRepository) Append(ctx context.Context, e *secondary.EventRecord) error {
	if !task.ValidEventType(e.Type) {
		return apperr.Newf(apperr.Validation, "unknown event type %q", e.Type)
	}
	if !task.ValidActorType(e.ActorType) {
		return apperr.Newf(apperr.Validation, "unknown actor type %q", e.ActorType)
	}

	level := e.Level
	if level == "" {
		level = task.LevelInfo
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO events (id, task_id, actor_type, actor_id, level, type, message, correlation_id, payload_json) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		e.ID, nullable(e.TaskID), e.ActorType, nullable(e.ActorID), level,
		e.Type, nullable(e.Message), nullable(e.CorrelationID), nullable(e.PayloadJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	return nil
}

// ForTask retrieves up to limit events for a task, most recent first.
// The id tiebreak keeps ordering deterministic within a timestamp second.
func (r *EventRepository) ForTask(ctx context.Context, taskID string, limit int) ([]*secondary.EventRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+eventSelectCols+" FROM events WHERE task_id = ? ORDER BY created_at DESC, id DESC LIMIT ?",
		taskID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*secondary.EventRecord
	for rows.Next() {
		record, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return events, nil
}

// Ensure EventRepository implements the interface
var _ secondary.EventRepository = (*EventRepository)(nil)
