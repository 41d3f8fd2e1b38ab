// Package primary defines the service interfaces (primary ports) exposed
// to the CLI, dashboard API, chat bot and worker runner adapters.
package primary

import "context"

// Actor identifies who is performing a facade operation, recorded on
// every event the operation appends.
type Actor struct {
	Type string // orchestrator, worker, ui
	ID   string // optional
}

// Task is the caller-facing task representation.
type Task struct {
	ID          string
	CreatedAt   string
	UpdatedAt   string
	Title       string
	Description string
	Status      string
	Priority    string
	Source      string
	Requester   string
	Tags        []string
	Meta        string
}

// Assignment is the caller-facing assignment representation.
type Assignment struct {
	ID         string
	TaskID     string
	WorkerType string
	WorkerID   string
	Status     string
	Note       string
	CreatedAt  string
}

// Claim is the caller-facing claim representation.
type Claim struct {
	ID         string
	TaskID     string
	WorkerID   string
	ClaimedAt  string
	ReleasedAt string
	Status     string
}

// Worker is the caller-facing worker representation.
type Worker struct {
	ID              string
	Status          string
	WorkerTypes     []string
	LastHeartbeatAt string
	UpdatedAt       string
}

// Event is the caller-facing event representation.
type Event struct {
	ID            string
	CreatedAt     string
	TaskID        string
	ActorType     string
	ActorID       string
	Level         string
	Type          string
	Message       string
	CorrelationID string
	Payload       string
}

// StatusChange reports a status transition.
type StatusChange struct {
	TaskID string
	From   string
	To     string
}

// CreateTaskRequest carries the inputs for task creation.
type CreateTaskRequest struct {
	Title       string
	Description string
	Priority    string // defaults to normal when empty
	Source      string // chat, ui, cli
	Requester   string
	Tags        []string
	Meta        string
	Actor       Actor
}

// AssignRequest routes a task to a worker type, optionally pinned to a
// specific worker.
type AssignRequest struct {
	TaskRef    string // id or unambiguous prefix
	WorkerType string
	WorkerID   string // optional
	Note       string
	Actor      Actor
}

// CreateAndAssignRequest creates a task already routed to a worker type.
type CreateAndAssignRequest struct {
	Create CreateTaskRequest
	Assign AssignRequest // TaskRef ignored; the new task is used
}

// ClaimRequest takes exclusive custody of a task for a worker.
type ClaimRequest struct {
	TaskRef  string
	WorkerID string
	Meta     string
	Actor    Actor
}

// ReleaseRequest closes the open claim on a task. WorkerID is
// informational only: the release is keyed by task, so an operator can
// close a claim held by a different worker.
type ReleaseRequest struct {
	TaskRef  string
	WorkerID string // optional, recorded in the event payload
	Actor    Actor
}

// StartTaskRequest fabricates a task already mid-flight: worker
// registered, task running, assignment active, claim open. Used for
// back-filling and demo data.
type StartTaskRequest struct {
	WorkerID    string
	WorkerType  string // defaults to coder when empty
	Title       string
	Description string
	Priority    string
	Actor       Actor
}

// CompleteTaskRequest releases the worker's claim and moves the task to
// a terminal status (done when empty).
type CompleteTaskRequest struct {
	WorkerID string
	TaskRef  string
	Status   string // done, failed or canceled
	Actor    Actor
}

// HeartbeatRequest registers or refreshes a worker.
type HeartbeatRequest struct {
	WorkerID    string
	WorkerTypes []string
	Status      string // defaults to online when empty
	Meta        string
}

// OrchestratorService is the facade: the only sanctioned entry points for
// mutation. Every operation runs as one store transaction, appending its
// events inside that same transaction.
type OrchestratorService interface {
	// CreateTask inserts a queued task and appends task.created.
	CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error)

	// CreateAndAssign inserts a task already routed to a worker type,
	// appending task.created and task.assigned.
	CreateAndAssign(ctx context.Context, req CreateAndAssignRequest) (*Task, error)

	// Assign routes a task to a worker type, superseding any prior
	// active assignment, and appends task.assigned.
	Assign(ctx context.Context, req AssignRequest) (*Assignment, error)

	// ChangeStatus overwrites the task status and appends
	// task.status_changed carrying the from/to pair.
	ChangeStatus(ctx context.Context, taskRef, newStatus string, actor Actor) (*StatusChange, error)

	// ChangePriority overwrites the task priority and appends task.updated.
	ChangePriority(ctx context.Context, taskRef, priority string, actor Actor) error

	// Cancel sets the task to canceled and cancels its active assignment,
	// appending task.canceled. An open claim is left untouched.
	Cancel(ctx context.Context, taskRef string, actor Actor) error

	// Claim takes exclusive custody of the task for a worker and appends
	// task.claimed. Fails with a conflict when a claim is already open.
	Claim(ctx context.Context, req ClaimRequest) (*Claim, error)

	// Release closes the open claim and appends task.released. Returns
	// nil without an event when no claim is open.
	Release(ctx context.Context, req ReleaseRequest) (*Claim, error)

	// StartTask fabricates a running, assigned, claimed task in one
	// transaction with its three events.
	StartTask(ctx context.Context, req StartTaskRequest) (*Task, error)

	// CompleteTask releases the claim and moves the task to a terminal
	// status, appending task.released and task.status_changed.
	CompleteTask(ctx context.Context, req CompleteTaskRequest) error

	// Heartbeat upserts the worker and appends a task-less
	// worker.heartbeat event.
	Heartbeat(ctx context.Context, req HeartbeatRequest) (*Worker, error)

	// GetTask resolves a task by id or unambiguous prefix.
	GetTask(ctx context.Context, taskRef string) (*Task, error)
}
