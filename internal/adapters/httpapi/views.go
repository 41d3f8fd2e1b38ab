package httpapi

import "github.com/example/missionctl/internal/ports/primary"

// The view types pin the wire field names so the dashboard contract does
// not drift with internal renames.

type taskView struct {
	ID          string   `json:"id"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	Source      string   `json:"source"`
	Requester   string   `json:"requester,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type taskOverviewView struct {
	taskView

	AssignedWorkerType string `json:"assignedWorkerType,omitempty"`
	AssignedWorkerID   string `json:"assignedWorkerId,omitempty"`
	ClaimedByWorkerID  string `json:"claimedByWorkerId,omitempty"`
	ClaimedAt          string `json:"claimedAt,omitempty"`
	StartedAt          string `json:"startedAt,omitempty"`
	FinishedAt         string `json:"finishedAt,omitempty"`
}

type workerView struct {
	ID              string   `json:"id"`
	Status          string   `json:"status"`
	WorkerTypes     []string `json:"workerTypes"`
	LastHeartbeatAt string   `json:"lastHeartbeatAt,omitempty"`
	UpdatedAt       string   `json:"updatedAt"`
}

type workerOverviewView struct {
	workerView

	CurrentTaskID        string `json:"currentTaskId,omitempty"`
	CurrentTaskClaimedAt string `json:"currentTaskClaimedAt,omitempty"`
	CurrentTaskTitle     string `json:"currentTaskTitle,omitempty"`
	CurrentTaskStatus    string `json:"currentTaskStatus,omitempty"`
	ActiveClaimCount     int    `json:"activeClaimCount"`
}

type eventView struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
	TaskID    string `json:"taskId,omitempty"`
	ActorType string `json:"actorType"`
	ActorID   string `json:"actorId,omitempty"`
	Level     string `json:"level"`
	Type      string `json:"type"`
	Message   string `json:"message,omitempty"`
	Payload   string `json:"payload,omitempty"`
}

func taskJSON(t *primary.Task) taskView {
	return taskView{
		ID:          t.ID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		Source:      t.Source,
		Requester:   t.Requester,
		Tags:        t.Tags,
	}
}

func taskOverviewsJSON(rows []*primary.TaskOverview) []taskOverviewView {
	out := make([]taskOverviewView, 0, len(rows))
	for _, row := range rows {
		out = append(out, taskOverviewView{
			taskView:           taskJSON(&row.Task),
			AssignedWorkerType: row.AssignedWorkerType,
			AssignedWorkerID:   row.AssignedWorkerID,
			ClaimedByWorkerID:  row.ClaimedByWorkerID,
			ClaimedAt:          row.ClaimedAt,
			StartedAt:          row.StartedAt,
			FinishedAt:         row.FinishedAt,
		})
	}
	return out
}

func workerJSON(w *primary.Worker) workerView {
	types := w.WorkerTypes
	if types == nil {
		types = []string{}
	}
	return workerView{
		ID:              w.ID,
		Status:          w.Status,
		WorkerTypes:     types,
		LastHeartbeatAt: w.LastHeartbeatAt,
		UpdatedAt:       w.UpdatedAt,
	}
}

func workerOverviewsJSON(rows []*primary.WorkerOverview) []workerOverviewView {
	out := make([]workerOverviewView, 0, len(rows))
	for _, row := range rows {
		out = append(out, workerOverviewView{
			workerView:           workerJSON(&row.Worker),
			CurrentTaskID:        row.CurrentTaskID,
			CurrentTaskClaimedAt: row.CurrentTaskClaimedAt,
			CurrentTaskTitle:     row.CurrentTaskTitle,
			CurrentTaskStatus:    row.CurrentTaskStatus,
			ActiveClaimCount:     row.ActiveClaimCount,
		})
	}
	return out
}

func eventsJSON(rows []*primary.Event) []eventView {
	out := make([]eventView, 0, len(rows))
	for _, row := range rows {
		out = append(out, eventView{
			ID:        row.ID,
			CreatedAt: row.CreatedAt,
			TaskID:    row.TaskID,
			ActorType: row.ActorType,
			ActorID:   row.ActorID,
			Level:     row.Level,
			Type:      row.Type,
			Message:   row.Message,
			Payload:   row.Payload,
		})
	}
	return out
}
