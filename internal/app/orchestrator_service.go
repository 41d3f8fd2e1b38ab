// Package app implements the primary-port services: the orchestration
// facade (all mutation) and the query service (all read models).
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/example/missionctl/internal/apperr"
	"github.com/example/missionctl/internal/core/task"
	"github.com/example/missionctl/internal/ports/primary"
	"github.com/example/missionctl/internal/ports/secondary"
)

// OrchestratorServiceImpl implements the OrchestratorService facade.
// Every operation runs inside one store transaction via the TxRunner, so
// the entity mutations and their event appends commit or roll back as a
// unit.
type OrchestratorServiceImpl struct {
	tx secondary.TxRunner
}

// NewOrchestratorService creates the facade on top of a TxRunner.
func NewOrchestratorService(tx secondary.TxRunner) *OrchestratorServiceImpl {
	return &OrchestratorServiceImpl{tx: tx}
}

// resolveTask resolves a task reference (exact id or unambiguous prefix)
// inside the current transaction.
func resolveTask(ctx context.Context, r secondary.Repositories, ref string) (*secondary.TaskRecord, error) {
	record, err := r.Tasks.FindByIDOrPrefix(ctx, ref)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperr.Newf(apperr.NotFound, "task %s not found", task.ShortID(ref))
	}
	return record, nil
}

// appendEvent builds and appends an event row. payload is marshaled to
// JSON; a nil payload leaves payload_json empty.
func appendEvent(ctx context.Context, r secondary.Repositories, taskID string, actor primary.Actor, eventType, message string, payload any) error {
	var payloadJSON string
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal event payload: %w", err)
		}
		payloadJSON = string(b)
	}

	return r.Events.Append(ctx, &secondary.EventRecord{
		ID:          uuid.NewString(),
		TaskID:      taskID,
		ActorType:   actor.Type,
		ActorID:     actor.ID,
		Level:       task.LevelInfo,
		Type:        eventType,
		Message:     message,
		PayloadJSON: payloadJSON,
	})
}

func validateCreate(req *primary.CreateTaskRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return apperr.New(apperr.Validation, "title is required")
	}
	if req.Priority == "" {
		req.Priority = task.PriorityNormal
	}
	if !task.ValidPriority(req.Priority) {
		return apperr.Newf(apperr.Validation, "invalid priority %q (expected one of: %s)",
			req.Priority, strings.Join(task.Priorities(), ", "))
	}
	if req.Source == "" {
		req.Source = task.SourceCLI
	}
	if !task.ValidSource(req.Source) {
		return apperr.Newf(apperr.Validation, "invalid source %q", req.Source)
	}
	return nil
}

// insertTask validates and persists a new task inside the transaction,
// appending the task.created event. Shared by CreateTask, CreateAndAssign
// and StartTask.
func insertTask(ctx context.Context, r secondary.Repositories, req primary.CreateTaskRequest, status string) (*secondary.TaskRecord, error) {
	if err := validateCreate(&req); err != nil {
		return nil, err
	}

	var tagsJSON string
	if len(req.Tags) > 0 {
		b, err := json.Marshal(req.Tags)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal tags: %w", err)
		}
		tagsJSON = string(b)
	}

	record := &secondary.TaskRecord{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Priority:    req.Priority,
		Source:      req.Source,
		Requester:   req.Requester,
		TagsJSON:    tagsJSON,
		MetaJSON:    req.Meta,
	}
	if err := r.Tasks.Create(ctx, record); err != nil {
		return nil, err
	}

	err := appendEvent(ctx, r, record.ID, req.Actor, task.EventTaskCreated,
		fmt.Sprintf("task created: %s", req.Title),
		map[string]any{"title": req.Title, "priority": req.Priority})
	if err != nil {
		return nil, err
	}

	return r.Tasks.GetByID(ctx, record.ID)
}

// insertAssignment validates the worker type, supersedes any prior active
// assignment and inserts the new one, appending task.assigned.
func insertAssignment(ctx context.Context, r secondary.Repositories, t *secondary.TaskRecord, req primary.AssignRequest) (*secondary.AssignmentRecord, error) {
	if !task.ValidWorkerType(req.WorkerType) {
		return nil, apperr.Newf(apperr.Validation, "invalid worker type %q (expected one of: %s)",
			req.WorkerType, strings.Join(task.WorkerTypes(), ", "))
	}

	if _, err := r.Assignments.SupersedeActive(ctx, t.ID); err != nil {
		return nil, err
	}

	record := &secondary.AssignmentRecord{
		ID:                  uuid.NewString(),
		TaskID:              t.ID,
		WorkerType:          req.WorkerType,
		WorkerID:            req.WorkerID,
		Status:              task.AssignmentActive,
		AssignedByActorType: req.Actor.Type,
		AssignedByActorID:   req.Actor.ID,
		Note:                req.Note,
	}
	if err := r.Assignments.Insert(ctx, record); err != nil {
		return nil, err
	}

	target := req.WorkerType
	if req.WorkerID != "" {
		target = fmt.Sprintf("%s (%s)", req.WorkerType, req.WorkerID)
	}
	err := appendEvent(ctx, r, t.ID, req.Actor, task.EventTaskAssigned,
		fmt.Sprintf("task assigned: %s", target),
		map[string]any{"workerType": req.WorkerType, "workerId": req.WorkerID, "assignmentId": record.ID})
	if err != nil {
		return nil, err
	}

	return record, nil
}

// CreateTask inserts a queued task with its task.created event.
func (s *OrchestratorServiceImpl) CreateTask(ctx context.Context, req primary.CreateTaskRequest) (*primary.Task, error) {
	var created *secondary.TaskRecord
	err := s.tx.InTx(ctx, func(r secondary.Repositories) error {
		var err error
		created, err = insertTask(ctx, r, req, task.StatusQueued)
		return err
	})
	if err != nil {
		return nil, err
	}
	return recordToTask(created), nil
}

// CreateAndAssign inserts a task already routed to a worker type.
func (s *OrchestratorServiceImpl) CreateAndAssign(ctx context.Context, req primary.CreateAndAssignRequest) (*primary.Task, error) {
	var created *secondary.TaskRecord
	err := s.tx.InTx(ctx, func(r secondary.Repositories) error {
		var err error
		created, err = insertTask(ctx, r, req.Create, task.StatusQueued)
		if err != nil {
			return err
		}
		_, err = insertAssignment(ctx, r, created, req.Assign)
		return err
	})
	if err != nil {
		return nil, err
	}
	return recordToTask(created), nil
}

// Assign routes a task to a worker type, superseding any prior active
// assignment in the same transaction so a reader never observes zero or
// two active assignments.
func (s *OrchestratorServiceImpl) Assign(ctx context.Context, req primary.AssignRequest) (*primary.Assignment, error) {
	var assignment *secondary.AssignmentRecord
	err := s.tx.InTx(ctx, func(r secondary.Repositories) error {
		t, err := resolveTask(ctx, r, req.TaskRef)
		if err != nil {
			return err
		}
		assignment, err = insertAssignment(ctx, r, t, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return recordToAssignment(assignment), nil
}

// ChangeStatus overwrites the task status and appends task.status_changed
// carrying the from/to pair. Any status-to-status move is permitted.
func (s *OrchestratorServiceImpl) ChangeStatus(ctx context.Context, taskRef, newStatus string, actor primary.Actor) (*primary.StatusChange, error) {
	if !task.ValidStatus(newStatus) {
		return nil, apperr.Newf(apperr.Validation, "invalid status %q (expected one of: %s)",
			newStatus, strings.Join(task.Statuses(), ", "))
	}

	var change *primary.StatusChange
	err := s.tx.InTx(ctx, func(r secondary.Repositories) error {
		t, err := resolveTask(ctx, r, taskRef)
		if err != nil {
			return err
		}

		if err := r.Tasks.UpdateStatus(ctx, t.ID, newStatus); err != nil {
			return err
		}

		change = &primary.StatusChange{TaskID: t.ID, From: t.Status, To: newStatus}
		return appendEvent(ctx, r, t.ID, actor, task.EventTaskStatusChanged,
			fmt.Sprintf("task status changed: %s -> %s", t.Status, newStatus),
			map[string]any{"from": t.Status, "to": newStatus})
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}

// ChangePriority overwrites the task priority and appends task.updated.
func (s *OrchestratorServiceImpl) ChangePriority(ctx context.Context, taskRef, priority string, actor primary.Actor) error {
	if !task.ValidPriority(priority) {
		return apperr.Newf(apperr.Validation, "invalid priority %q (expected one of: %s)",
			priority, strings.Join(task.Priorities(), ", "))
	}

	return s.tx.InTx(ctx, func(r secondary.Repositories) error {
		t, err := resolveTask(ctx, r, taskRef)
		if err != nil {
			return err
		}

		if err := r.Tasks.UpdatePriority(ctx, t.ID, priority); err != nil {
			return err
		}

		return appendEvent(ctx, r, t.ID, actor, task.EventTaskUpdated,
			fmt.Sprintf("task priority changed: %s -> %s", t.Priority, priority),
			map[string]any{"priority": priority})
	})
}

// Cancel sets the task to canceled and cancels its active assignment.
// An open claim is intentionally left open; release is a separate call.
func (s *OrchestratorServiceImpl) Cancel(ctx context.Context, taskRef string, actor primary.Actor) error {
	return s.tx.InTx(ctx, func(r secondary.Repositories) error {
		t, err := resolveTask(ctx, r, taskRef)
		if err != nil {
			return err
		}

		if err := r.Tasks.UpdateStatus(ctx, t.ID, task.StatusCanceled); err != nil {
			return err
		}
		if err := r.Assignments.CancelActive(ctx, t.ID); err != nil {
			return err
		}

		return appendEvent(ctx, r, t.ID, actor, task.EventTaskCanceled,
			fmt.Sprintf("task canceled: %s", t.Title),
			map[string]any{"from": t.Status})
	})
}

// Claim takes exclusive custody of the task for a worker.
func (s *OrchestratorServiceImpl) Claim(ctx context.Context, req primary.ClaimRequest) (*primary.Claim, error) {
	if req.WorkerID == "" {
		return nil, apperr.New(apperr.Validation, "worker id is required")
	}

	var claim *secondary.ClaimRecord
	err := s.tx.InTx(ctx, func(r secondary.Repositories) error {
		t, err := resolveTask(ctx, r, req.TaskRef)
		if err != nil {
			return err
		}

		open, err := r.Claims.GetOpen(ctx, t.ID)
		if err != nil {
			return err
		}
		if open != nil {
			return apperr.Newf(apperr.Conflict, "task %s is already claimed by %s",
				task.ShortID(t.ID), open.WorkerID)
		}

		record := &secondary.ClaimRecord{
			ID:       uuid.NewString(),
			TaskID:   t.ID,
			WorkerID: req.WorkerID,
			MetaJSON: req.Meta,
		}
		if err := r.Claims.Insert(ctx, record); err != nil {
			return err
		}

		claim, err = r.Claims.GetOpen(ctx, t.ID)
		if err != nil {
			return err
		}

		return appendEvent(ctx, r, t.ID, req.Actor, task.EventTaskClaimed,
			fmt.Sprintf("task claimed by worker: %s", req.WorkerID),
			map[string]any{"workerId": req.WorkerID, "claimId": record.ID})
	})
	if err != nil {
		return nil, err
	}
	return recordToClaim(claim), nil
}

// Release closes the open claim for the task. The release is keyed by
// task alone: a supplied worker id is recorded in the event payload but
// never gates the release, so an operator can unstick any claim. No open
// claim means no event and a nil result.
func (s *OrchestratorServiceImpl) Release(ctx context.Context, req primary.ReleaseRequest) (*primary.Claim, error) {
	var released *secondary.ClaimRecord
	err := s.tx.InTx(ctx, func(r secondary.Repositories) error {
		t, err := resolveTask(ctx, r, req.TaskRef)
		if err != nil {
			return err
		}

		released, err = r.Claims.ReleaseOpen(ctx, t.ID)
		if err != nil {
			return err
		}
		if released == nil {
			return nil
		}

		return appendEvent(ctx, r, t.ID, req.Actor, task.EventTaskReleased,
			fmt.Sprintf("task claim released by worker: %s", released.WorkerID),
			map[string]any{"workerId": released.WorkerID, "requestedBy": req.WorkerID, "claimId": released.ID})
	})
	if err != nil {
		return nil, err
	}
	if released == nil {
		return nil, nil
	}
	return recordToClaim(released), nil
}

// StartTask fabricates a task already mid-flight: the worker is
// registered if absent, the task is created running, an active assignment
// and an open claim are inserted, and all three events are appended in
// the one transaction. Used for back-filling and demo data.
func (s *OrchestratorServiceImpl) StartTask(ctx context.Context, req primary.StartTaskRequest) (*primary.Task, error) {
	if req.WorkerID == "" {
		return nil, apperr.New(apperr.Validation, "worker id is required")
	}
	workerType := req.WorkerType
	if workerType == "" {
		workerType = task.WorkerTypeCoder
	}

	var created *secondary.TaskRecord
	err := s.tx.InTx(ctx, func(r secondary.Repositories) error {
		// Register the worker if unknown so claims reference a real row.
		if _, err := r.Workers.GetByID(ctx, req.WorkerID); apperr.IsNotFound(err) {
			upsertErr := r.Workers.Upsert(ctx, &secondary.WorkerRecord{ID: req.WorkerID})
			if upsertErr != nil {
				return upsertErr
			}
		} else if err != nil {
			return err
		}

		var err error
		created, err = insertTask(ctx, r, primary.CreateTaskRequest{
			Title:       req.Title,
			Description: req.Description,
			Priority:    req.Priority,
			Source:      task.SourceCLI,
			Actor:       req.Actor,
		}, task.StatusRunning)
		if err != nil {
			return err
		}

		_, err = insertAssignment(ctx, r, created, primary.AssignRequest{
			WorkerType: workerType,
			WorkerID:   req.WorkerID,
			Note:       "started via mcctl",
			Actor:      req.Actor,
		})
		if err != nil {
			return err
		}

		claim := &secondary.ClaimRecord{
			ID:       uuid.NewString(),
			TaskID:   created.ID,
			WorkerID: req.WorkerID,
		}
		if err := r.Claims.Insert(ctx, claim); err != nil {
			return err
		}

		return appendEvent(ctx, r, created.ID, req.Actor, task.EventTaskClaimed,
			fmt.Sprintf("task claimed by worker: %s", req.WorkerID),
			map[string]any{"workerId": req.WorkerID, "claimId": claim.ID})
	})
	if err != nil {
		return nil, err
	}
	return recordToTask(created), nil
}

// CompleteTask releases the claim and moves the task to a terminal
// status. The status update lands even when no claim row was open
// (manual cleanup); the task.released payload records whether one was.
func (s *OrchestratorServiceImpl) CompleteTask(ctx context.Context, req primary.CompleteTaskRequest) error {
	status := req.Status
	if status == "" {
		status = task.StatusDone
	}
	if !task.IsTerminal(status) {
		return apperr.Newf(apperr.Validation, "invalid completion status %q (expected done, failed or canceled)", status)
	}

	return s.tx.InTx(ctx, func(r secondary.Repositories) error {
		t, err := resolveTask(ctx, r, req.TaskRef)
		if err != nil {
			return err
		}

		released, err := r.Claims.ReleaseOpen(ctx, t.ID)
		if err != nil {
			return err
		}

		if err := r.Tasks.UpdateStatus(ctx, t.ID, status); err != nil {
			return err
		}

		err = appendEvent(ctx, r, t.ID, req.Actor, task.EventTaskReleased,
			fmt.Sprintf("task claim released by worker: %s", req.WorkerID),
			map[string]any{"workerId": req.WorkerID, "released": released != nil})
		if err != nil {
			return err
		}

		return appendEvent(ctx, r, t.ID, req.Actor, task.EventTaskStatusChanged,
			fmt.Sprintf("task status changed: %s -> %s", t.Status, status),
			map[string]any{"from": t.Status, "to": status})
	})
}

// Heartbeat upserts the worker row and appends a task-less
// worker.heartbeat event. Heartbeat is also the registration mechanism,
// so it never fails on an unknown worker id.
func (s *OrchestratorServiceImpl) Heartbeat(ctx context.Context, req primary.HeartbeatRequest) (*primary.Worker, error) {
	if req.WorkerID == "" {
		return nil, apperr.New(apperr.Validation, "worker id is required")
	}
	status := req.Status
	if status == "" {
		status = task.WorkerOnline
	}
	if !task.ValidWorkerStatus(status) {
		return nil, apperr.Newf(apperr.Validation, "invalid worker status %q", status)
	}
	for _, t := range req.WorkerTypes {
		if !task.ValidWorkerType(t) {
			return nil, apperr.Newf(apperr.Validation, "invalid worker type %q (expected one of: %s)",
				t, strings.Join(task.WorkerTypes(), ", "))
		}
	}

	types := req.WorkerTypes
	if types == nil {
		types = []string{}
	}
	typesJSON, err := json.Marshal(types)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal worker types: %w", err)
	}

	var worker *secondary.WorkerRecord
	err = s.tx.InTx(ctx, func(r secondary.Repositories) error {
		record := &secondary.WorkerRecord{
			ID:              req.WorkerID,
			Status:          status,
			WorkerTypesJSON: string(typesJSON),
			MetaJSON:        req.Meta,
		}
		if err := r.Workers.Upsert(ctx, record); err != nil {
			return err
		}

		err := appendEvent(ctx, r, "", primary.Actor{Type: task.ActorWorker, ID: req.WorkerID},
			task.EventWorkerHeartbeat,
			fmt.Sprintf("worker heartbeat: %s", req.WorkerID),
			map[string]any{"workerTypes": types, "status": status})
		if err != nil {
			return err
		}

		worker, err = r.Workers.GetByID(ctx, req.WorkerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return recordToWorker(worker), nil
}

// GetTask resolves a task by id or unambiguous prefix.
func (s *OrchestratorServiceImpl) GetTask(ctx context.Context, taskRef string) (*primary.Task, error) {
	var record *secondary.TaskRecord
	err := s.tx.InTx(ctx, func(r secondary.Repositories) error {
		var err error
		record, err = resolveTask(ctx, r, taskRef)
		return err
	})
	if err != nil {
		return nil, err
	}
	return recordToTask(record), nil
}

// Ensure OrchestratorServiceImpl implements the interface
var _ primary.OrchestratorService = (*OrchestratorServiceImpl)(nil)
