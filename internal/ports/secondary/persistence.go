// Package secondary defines the repository interfaces (secondary ports)
// and the record types they exchange. Implementations live in
// internal/adapters/sqlite.
package secondary

import "context"

// TaskRecord is the persistence representation of a task.
// Timestamps are RFC3339 strings; empty means not set.
type TaskRecord struct {
	ID          string
	CreatedAt   string
	UpdatedAt   string
	Title       string
	Description string
	Status      string
	Priority    string
	Source      string
	Requester   string
	TagsJSON    string
	MetaJSON    string
}

// AssignmentRecord is the persistence representation of an assignment.
type AssignmentRecord struct {
	ID                  string
	TaskID              string
	WorkerType          string
	WorkerID            string
	Status              string
	AssignedByActorType string
	AssignedByActorID   string
	Note                string
	MetaJSON            string
	CreatedAt           string
}

// ClaimRecord is the persistence representation of a claim.
// ReleasedAt is empty while the claim is open.
type ClaimRecord struct {
	ID         string
	TaskID     string
	WorkerID   string
	ClaimedAt  string
	ReleasedAt string
	Status     string
	MetaJSON   string
}

// WorkerRecord is the persistence representation of a worker.
type WorkerRecord struct {
	ID              string
	Status          string
	WorkerTypesJSON string
	LastHeartbeatAt string
	UpdatedAt       string
	MetaJSON        string
}

// EventRecord is the persistence representation of an event.
// TaskID is empty for worker- or system-scoped events.
type EventRecord struct {
	ID            string
	CreatedAt     string
	TaskID        string
	ActorType     string
	ActorID       string
	Level         string
	Type          string
	Message       string
	CorrelationID string
	PayloadJSON   string
}

// TaskFilters narrows task listing.
type TaskFilters struct {
	Status string
	Source string
	Limit  int
}

// TaskRepository persists tasks and owns task.status.
type TaskRepository interface {
	// Create inserts a new task row.
	Create(ctx context.Context, task *TaskRecord) error

	// GetByID retrieves a task by exact id.
	GetByID(ctx context.Context, id string) (*TaskRecord, error)

	// FindByIDOrPrefix resolves a token: exact match wins; otherwise a
	// prefix match is returned only when exactly one task matches.
	// Returns nil (no error) for zero or ambiguous matches.
	FindByIDOrPrefix(ctx context.Context, token string) (*TaskRecord, error)

	// List retrieves tasks matching the given filters, newest update first.
	List(ctx context.Context, filters TaskFilters) ([]*TaskRecord, error)

	// UpdateStatus overwrites the task status.
	UpdateStatus(ctx context.Context, id, status string) error

	// UpdatePriority overwrites the task priority.
	UpdatePriority(ctx context.Context, id, priority string) error
}

// AssignmentRepository persists assignments and owns assignment.status.
type AssignmentRepository interface {
	// Insert persists a new assignment row.
	Insert(ctx context.Context, a *AssignmentRecord) error

	// SupersedeActive flips any active assignment for the task to
	// superseded, returning how many rows changed.
	SupersedeActive(ctx context.Context, taskID string) (int64, error)

	// CancelActive flips the active assignment (if any) to canceled.
	// No-op when none exists.
	CancelActive(ctx context.Context, taskID string) error

	// GetActive returns the active assignment for the task, or nil.
	GetActive(ctx context.Context, taskID string) (*AssignmentRecord, error)
}

// ClaimRepository persists claims and owns claim.released_at/status.
type ClaimRepository interface {
	// Insert persists a new open claim row.
	Insert(ctx context.Context, c *ClaimRecord) error

	// GetOpen returns the open claim for the task, or nil.
	GetOpen(ctx context.Context, taskID string) (*ClaimRecord, error)

	// ReleaseOpen closes the open claim for the task and returns it.
	// Returns nil (no error) when no claim is open.
	ReleaseOpen(ctx context.Context, taskID string) (*ClaimRecord, error)

	// OpenClaimsForWorker returns the open claims held by a worker.
	// Each call runs a fresh query; no cursor state is retained.
	OpenClaimsForWorker(ctx context.Context, workerID string) ([]*ClaimRecord, error)
}

// WorkerRepository persists workers.
type WorkerRepository interface {
	// Upsert inserts or refreshes a worker row keyed by id, always
	// bumping last_heartbeat_at to now.
	Upsert(ctx context.Context, w *WorkerRecord) error

	// GetByID retrieves a worker by id.
	GetByID(ctx context.Context, id string) (*WorkerRecord, error)

	// List retrieves up to limit workers, most recently active first.
	List(ctx context.Context, limit int) ([]*WorkerRecord, error)
}

// EventRepository persists the append-only event log.
type EventRepository interface {
	// Append inserts an event row. Events are write-once; nothing ever
	// updates or deletes them.
	Append(ctx context.Context, e *EventRecord) error

	// ForTask retrieves up to limit events for a task, most recent first.
	ForTask(ctx context.Context, taskID string, limit int) ([]*EventRecord, error)
}

// Repositories bundles the per-entity repositories bound to one statement
// scope (a transaction or the bare connection).
type Repositories struct {
	Tasks       TaskRepository
	Assignments AssignmentRepository
	Claims      ClaimRepository
	Workers     WorkerRepository
	Events      EventRepository
}

// TxRunner executes fn against repositories bound to a single store
// transaction. fn returning an error rolls the whole transaction back;
// partial application is never visible to readers.
type TxRunner interface {
	InTx(ctx context.Context, fn func(r Repositories) error) error
}
