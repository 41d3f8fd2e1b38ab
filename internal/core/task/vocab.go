// Package task contains the pure business vocabulary and guards for the
// task lifecycle. Everything here is side-effect free; repositories and
// services consume these checks before touching the store.
package task

// Task status constants. "queued" is the sole initial status; "done",
// "failed" and "canceled" are terminal for normal processing.
const (
	StatusQueued      = "queued"
	StatusClaimed     = "claimed"
	StatusRunning     = "running"
	StatusBlocked     = "blocked"
	StatusNeedsReview = "needs_review"
	StatusDone        = "done"
	StatusFailed      = "failed"
	StatusCanceled    = "canceled"
)

// Priority constants.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Worker type constants.
const (
	WorkerTypeCoder      = "coder"
	WorkerTypeResearcher = "researcher"
	WorkerTypeSEO        = "seo"
	WorkerTypeDesigner   = "designer"
	WorkerTypeTester     = "tester"
)

// Worker status constants.
const (
	WorkerOnline   = "online"
	WorkerOffline  = "offline"
	WorkerDraining = "draining"
)

// Assignment status constants.
const (
	AssignmentActive     = "active"
	AssignmentSuperseded = "superseded"
	AssignmentCanceled   = "canceled"
)

// Claim status constants.
const (
	ClaimClaimed  = "claimed"
	ClaimReleased = "released"
)

// Task source constants: which collaborator created the task.
const (
	SourceChat = "chat"
	SourceUI   = "ui"
	SourceCLI  = "cli"
)

// Actor type constants for events.
const (
	ActorOrchestrator = "orchestrator"
	ActorWorker       = "worker"
	ActorUI           = "ui"
)

// Event level constants.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Event type constants (closed vocabulary).
const (
	EventTaskCreated       = "task.created"
	EventTaskUpdated       = "task.updated"
	EventTaskStatusChanged = "task.status_changed"
	EventTaskAssigned      = "task.assigned"
	EventTaskClaimed       = "task.claimed"
	EventTaskReleased      = "task.released"
	EventTaskCanceled      = "task.canceled"
	EventWorkerHeartbeat   = "worker.heartbeat"
)

var statuses = map[string]struct{}{
	StatusQueued:      {},
	StatusClaimed:     {},
	StatusRunning:     {},
	StatusBlocked:     {},
	StatusNeedsReview: {},
	StatusDone:        {},
	StatusFailed:      {},
	StatusCanceled:    {},
}

var priorities = map[string]struct{}{
	PriorityLow:    {},
	PriorityNormal: {},
	PriorityHigh:   {},
	PriorityUrgent: {},
}

var workerTypes = map[string]struct{}{
	WorkerTypeCoder:      {},
	WorkerTypeResearcher: {},
	WorkerTypeSEO:        {},
	WorkerTypeDesigner:   {},
	WorkerTypeTester:     {},
}

var workerStatuses = map[string]struct{}{
	WorkerOnline:   {},
	WorkerOffline:  {},
	WorkerDraining: {},
}

var sources = map[string]struct{}{
	SourceChat: {},
	SourceUI:   {},
	SourceCLI:  {},
}

var actorTypes = map[string]struct{}{
	ActorOrchestrator: {},
	ActorWorker:       {},
	ActorUI:           {},
}

var levels = map[string]struct{}{
	LevelDebug: {},
	LevelInfo:  {},
	LevelWarn:  {},
	LevelError: {},
}

var eventTypes = map[string]struct{}{
	EventTaskCreated:       {},
	EventTaskUpdated:       {},
	EventTaskStatusChanged: {},
	EventTaskAssigned:      {},
	EventTaskClaimed:       {},
	EventTaskReleased:      {},
	EventTaskCanceled:      {},
	EventWorkerHeartbeat:   {},
}

// ValidStatus reports whether s is one of the eight task statuses.
func ValidStatus(s string) bool {
	_, ok := statuses[s]
	return ok
}

// ValidPriority reports whether p is one of the four priority levels.
func ValidPriority(p string) bool {
	_, ok := priorities[p]
	return ok
}

// ValidWorkerType reports whether t is a recognized worker type.
func ValidWorkerType(t string) bool {
	_, ok := workerTypes[t]
	return ok
}

// ValidWorkerStatus reports whether s is a recognized worker status.
func ValidWorkerStatus(s string) bool {
	_, ok := workerStatuses[s]
	return ok
}

// ValidSource reports whether s is a recognized task origin.
func ValidSource(s string) bool {
	_, ok := sources[s]
	return ok
}

// ValidActorType reports whether a is a recognized event actor type.
func ValidActorType(a string) bool {
	_, ok := actorTypes[a]
	return ok
}

// ValidLevel reports whether l is a recognized event level.
func ValidLevel(l string) bool {
	_, ok := levels[l]
	return ok
}

// ValidEventType reports whether t is in the closed event type vocabulary.
func ValidEventType(t string) bool {
	_, ok := eventTypes[t]
	return ok
}

// IsTerminal reports whether s ends normal processing for a task.
// Terminal tasks are retained for history, never deleted.
func IsTerminal(s string) bool {
	return s == StatusDone || s == StatusFailed || s == StatusCanceled
}

// Statuses returns the full status vocabulary, for help/error text.
func Statuses() []string {
	return []string{
		StatusQueued, StatusClaimed, StatusRunning, StatusBlocked,
		StatusNeedsReview, StatusDone, StatusFailed, StatusCanceled,
	}
}

// Priorities returns the priority vocabulary, for help/error text.
func Priorities() []string {
	return []string{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent}
}

// WorkerTypes returns the worker type vocabulary, for help/error text.
func WorkerTypes() []string {
	return []string{
		WorkerTypeCoder, WorkerTypeResearcher, WorkerTypeSEO,
		WorkerTypeDesigner, WorkerTypeTester,
	}
}

// ShortID returns the 8-character display prefix of a UUID-length id.
// User-facing messages never show more of the identifier than this.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
