package app

import (
	"encoding/json"

	"github.com/example/missionctl/internal/ports/primary"
	"github.com/example/missionctl/internal/ports/secondary"
)

func decodeStringList(jsonText string) []string {
	if jsonText == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(jsonText), &out); err != nil {
		return nil
	}
	return out
}

func recordToTask(r *secondary.TaskRecord) *primary.Task {
	if r == nil {
		return nil
	}
	return &primary.Task{
		ID:          r.ID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		Source:      r.Source,
		Requester:   r.Requester,
		Tags:        decodeStringList(r.TagsJSON),
		Meta:        r.MetaJSON,
	}
}

func recordToAssignment(r *secondary.AssignmentRecord) *primary.Assignment {
	if r == nil {
		return nil
	}
	return &primary.Assignment{
		ID:         r.ID,
		TaskID:     r.TaskID,
		WorkerType: r.WorkerType,
		WorkerID:   r.WorkerID,
		Status:     r.Status,
		Note:       r.Note,
		CreatedAt:  r.CreatedAt,
	}
}

func recordToClaim(r *secondary.ClaimRecord) *primary.Claim {
	if r == nil {
		return nil
	}
	return &primary.Claim{
		ID:         r.ID,
		TaskID:     r.TaskID,
		WorkerID:   r.WorkerID,
		ClaimedAt:  r.ClaimedAt,
		ReleasedAt: r.ReleasedAt,
		Status:     r.Status,
	}
}

func recordToWorker(r *secondary.WorkerRecord) *primary.Worker {
	if r == nil {
		return nil
	}
	return &primary.Worker{
		ID:              r.ID,
		Status:          r.Status,
		WorkerTypes:     decodeStringList(r.WorkerTypesJSON),
		LastHeartbeatAt: r.LastHeartbeatAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func recordToEvent(r *secondary.EventRecord) *primary.Event {
	if r == nil {
		return nil
	}
	return &primary.Event{
		ID:            r.ID,
		CreatedAt:     r.CreatedAt,
		TaskID:        r.TaskID,
		ActorType:     r.ActorType,
		ActorID:       r.ActorID,
		Level:         r.Level,
		Type:          r.Type,
		Message:       r.Message,
		CorrelationID: r.CorrelationID,
		Payload:       r.PayloadJSON,
	}
}
