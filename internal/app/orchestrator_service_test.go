package app_test

import (
	"context"
	"testing"

	"github.com/example/missionctl/internal/apperr"
	"github.com/example/missionctl/internal/ports/primary"
)

var testActor = primary.Actor{Type: "orchestrator", ID: "test"}

func TestCreateTask(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	created, err := env.orch.CreateTask(ctx, primary.CreateTaskRequest{
		Title:     "Ship the landing page",
		Priority:  "high",
		Source:    "cli",
		Requester: "alice",
		Tags:      []string{"web", "launch"},
		Actor:     testActor,
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if created.Status != "queued" {
		t.Errorf("expected status queued, got %q", created.Status)
	}
	if created.Priority != "high" {
		t.Errorf("expected priority high, got %q", created.Priority)
	}
	if len(created.Tags) != 2 {
		t.Errorf("expected 2 tags, got %v", created.Tags)
	}

	types := eventTypes(t, env.db, created.ID)
	if len(types) != 1 || types[0] != "task.created" {
		t.Errorf("expected single task.created event, got %v", types)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.orch.CreateTask(ctx, primary.CreateTaskRequest{Title: "   ", Actor: testActor})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for blank title, got %v", err)
	}

	_, err = env.orch.CreateTask(ctx, primary.CreateTaskRequest{
		Title:    "Bad priority",
		Priority: "whenever",
		Actor:    testActor,
	})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for bad priority, got %v", err)
	}

	_, err = env.orch.CreateTask(ctx, primary.CreateTaskRequest{
		Title:  "Bad source",
		Source: "carrier-pigeon",
		Actor:  testActor,
	})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for bad source, got %v", err)
	}
}

func TestCreateTaskDefaults(t *testing.T) {
	env := setupTestEnv(t)

	created, err := env.orch.CreateTask(context.Background(), primary.CreateTaskRequest{
		Title: "Bare minimum",
		Actor: testActor,
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if created.Priority != "normal" {
		t.Errorf("expected default priority normal, got %q", created.Priority)
	}
	if created.Source != "cli" {
		t.Errorf("expected default source cli, got %q", created.Source)
	}
}

func TestCreateAndAssign(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	created, err := env.orch.CreateAndAssign(ctx, primary.CreateAndAssignRequest{
		Create: primary.CreateTaskRequest{Title: "Research competitors", Actor: testActor},
		Assign: primary.AssignRequest{WorkerType: "researcher", Actor: testActor},
	})
	if err != nil {
		t.Fatalf("CreateAndAssign failed: %v", err)
	}

	types := eventTypes(t, env.db, created.ID)
	if len(types) != 2 || types[0] != "task.created" || types[1] != "task.assigned" {
		t.Errorf("expected task.created then task.assigned, got %v", types)
	}

	task, err := env.orch.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if task.Status != "queued" {
		t.Errorf("expected status queued, got %q", task.Status)
	}
}

func TestCreateAndAssignAtomic(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.orch.CreateAndAssign(ctx, primary.CreateAndAssignRequest{
		Create: primary.CreateTaskRequest{Title: "Doomed", Actor: testActor},
		Assign: primary.AssignRequest{WorkerType: "plumber", Actor: testActor},
	})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	// The failed assignment must roll the task creation back too.
	var count int
	if err := env.db.QueryRow("SELECT COUNT(*) FROM tasks").Scan(&count); err != nil {
		t.Fatalf("failed to count tasks: %v", err)
	}
	if count != 0 {
		t.Errorf("expected rollback to remove the task, found %d rows", count)
	}
}

func TestAssignSupersedes(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	created, err := env.orch.CreateTask(ctx, primary.CreateTaskRequest{
		Title: "Reroutable", Actor: testActor,
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	first, err := env.orch.Assign(ctx, primary.AssignRequest{
		TaskRef: created.ID, WorkerType: "coder", Actor: testActor,
	})
	if err != nil {
		t.Fatalf("first Assign failed: %v", err)
	}

	second, err := env.orch.Assign(ctx, primary.AssignRequest{
		TaskRef: created.ID, WorkerType: "tester", WorkerID: "worker-9", Actor: testActor,
	})
	if err != nil {
		t.Fatalf("second Assign failed: %v", err)
	}
	if second.ID == first.ID {
		t.Error("expected a fresh assignment row")
	}

	var status string
	err = env.db.QueryRow("SELECT status FROM task_assignments WHERE id = ?", first.ID).Scan(&status)
	if err != nil {
		t.Fatalf("failed to read first assignment: %v", err)
	}
	if status != "superseded" {
		t.Errorf("expected first assignment superseded, got %q", status)
	}

	var active int
	err = env.db.QueryRow(
		"SELECT COUNT(*) FROM task_assignments WHERE task_id = ? AND status = 'active'",
		created.ID).Scan(&active)
	if err != nil {
		t.Fatalf("failed to count active assignments: %v", err)
	}
	if active != 1 {
		t.Errorf("expected exactly 1 active assignment, got %d", active)
	}
}

func TestAssignUnknownTask(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.orch.Assign(context.Background(), primary.AssignRequest{
		TaskRef: "no-such-task", WorkerType: "coder", Actor: testActor,
	})
	if !apperr.IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestChangeStatus(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	created, err := env.orch.CreateTask(ctx, primary.CreateTaskRequest{
		Title: "Status walk", Actor: testActor,
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	change, err := env.orch.ChangeStatus(ctx, created.ID, "running", testActor)
	if err != nil {
		t.Fatalf("ChangeStatus failed: %v", err)
	}
	if change.From != "queued" || change.To != "running" {
		t.Errorf("expected queued -> running, got %s -> %s", change.From, change.To)
	}

	// Any transition goes, including straight back.
	change, err = env.orch.ChangeStatus(ctx, created.ID, "queued", testActor)
	if err != nil {
		t.Fatalf("ChangeStatus failed: %v", err)
	}
	if change.From != "running" || change.To != "queued" {
		t.Errorf("expected running -> queued, got %s -> %s", change.From, change.To)
	}

	_, err = env.orch.ChangeStatus(ctx, created.ID, "paused", testActor)
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for unknown status, got %v", err)
	}
}

func TestChangePriority(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	created, err := env.orch.CreateTask(ctx, primary.CreateTaskRequest{
		Title: "Escalating", Actor: testActor,
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if err := env.orch.ChangePriority(ctx, created.ID, "urgent", testActor); err != nil {
		t.Fatalf("ChangePriority failed: %v", err)
	}

	task, err := env.orch.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if task.Priority != "urgent" {
		t.Errorf("expected priority urgent, got %q", task.Priority)
	}

	if err := env.orch.ChangePriority(ctx, created.ID, "asap", testActor); !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCancelLeavesClaimOpen(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	created, err := env.orch.CreateTask(ctx, primary.CreateTaskRequest{
		Title: "Abandoned", Actor: testActor,
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if _, err := env.orch.Assign(ctx, primary.AssignRequest{
		TaskRef: created.ID, WorkerType: "coder", Actor: testActor,
	}); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if _, err := env.orch.Claim(ctx, primary.ClaimRequest{
		TaskRef: created.ID, WorkerID: "worker-1", Actor: testActor,
	}); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}

	if err := env.orch.Cancel(ctx, created.ID, testActor); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	task, err := env.orch.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if task.Status != "canceled" {
		t.Errorf("expected status canceled, got %q", task.Status)
	}

	var assignStatus string
	err = env.db.QueryRow(
		"SELECT status FROM task_assignments WHERE task_id = ?", created.ID).Scan(&assignStatus)
	if err != nil {
		t.Fatalf("failed to read assignment: %v", err)
	}
	if assignStatus != "canceled" {
		t.Errorf("expected assignment canceled, got %q", assignStatus)
	}

	// The claim stays open; a separate release closes it.
	var openClaims int
	err = env.db.QueryRow(
		"SELECT COUNT(*) FROM task_claims WHERE task_id = ? AND released_at IS NULL",
		created.ID).Scan(&openClaims)
	if err != nil {
		t.Fatalf("failed to count claims: %v", err)
	}
	if openClaims != 1 {
		t.Errorf("expected claim to survive cancel, found %d open", openClaims)
	}
}

func TestClaimConflict(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	created, err := env.orch.CreateTask(ctx, primary.CreateTaskRequest{
		Title: "Fought over", Actor: testActor,
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	claim, err := env.orch.Claim(ctx, primary.ClaimRequest{
		TaskRef: created.ID, WorkerID: "worker-1", Actor: testActor,
	})
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if claim.WorkerID != "worker-1" {
		t.Errorf("expected worker-1, got %q", claim.WorkerID)
	}

	_, err = env.orch.Claim(ctx, primary.ClaimRequest{
		TaskRef: created.ID, WorkerID: "worker-2", Actor: testActor,
	})
	if !apperr.IsConflict(err) {
		t.Errorf("expected conflict error, got %v", err)
	}

	// Same worker claiming again also conflicts; claims are not re-entrant.
	_, err = env.orch.Claim(ctx, primary.ClaimRequest{
		TaskRef: created.ID, WorkerID: "worker-1", Actor: testActor,
	})
	if !apperr.IsConflict(err) {
		t.Errorf("expected conflict error, got %v", err)
	}
}

func TestReleaseByTaskOnly(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	created, err := env.orch.CreateTask(ctx, primary.CreateTaskRequest{
		Title: "Stuck claim", Actor: testActor,
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if _, err := env.orch.Claim(ctx, primary.ClaimRequest{
		TaskRef: created.ID, WorkerID: "worker-1", Actor: testActor,
	}); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}

	// A different worker id releases just fine; release is keyed by task.
	released, err := env.orch.Release(ctx, primary.ReleaseRequest{
		TaskRef: created.ID, WorkerID: "operator", Actor: testActor,
	})
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if released == nil {
		t.Fatal("expected released claim")
	}
	if released.WorkerID != "worker-1" {
		t.Errorf("expected holder worker-1, got %q", released.WorkerID)
	}
	if released.ReleasedAt == "" {
		t.Error("expected released_at to be set")
	}
}

func TestReleaseIdempotent(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	created, err := env.orch.CreateTask(ctx, primary.CreateTaskRequest{
		Title: "Never claimed", Actor: testActor,
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	before := countEvents(t, env.db, created.ID)

	released, err := env.orch.Release(ctx, primary.ReleaseRequest{
		TaskRef: created.ID, Actor: testActor,
	})
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if released != nil {
		t.Errorf("expected nil for no open claim, got %+v", released)
	}

	// No-op releases write no event.
	if after := countEvents(t, env.db, created.ID); after != before {
		t.Errorf("expected no new events, had %d now %d", before, after)
	}
}

func TestStartTask(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	started, err := env.orch.StartTask(ctx, primary.StartTaskRequest{
		WorkerID: "worker-runner",
		Title:    "Hotfix deploy",
		Actor:    testActor,
	})
	if err != nil {
		t.Fatalf("StartTask failed: %v", err)
	}
	if started.Status != "running" {
		t.Errorf("expected status running, got %q", started.Status)
	}

	// Worker registered on the fly.
	var workerCount int
	err = env.db.QueryRow("SELECT COUNT(*) FROM workers WHERE id = 'worker-runner'").Scan(&workerCount)
	if err != nil {
		t.Fatalf("failed to count workers: %v", err)
	}
	if workerCount != 1 {
		t.Errorf("expected auto-registered worker, got %d rows", workerCount)
	}

	types := eventTypes(t, env.db, started.ID)
	want := []string{"task.created", "task.assigned", "task.claimed"}
	if len(types) != len(want) {
		t.Fatalf("expected events %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], types[i])
		}
	}
}

func TestCompleteTask(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	started, err := env.orch.StartTask(ctx, primary.StartTaskRequest{
		WorkerID: "worker-done",
		Title:    "Finish me",
		Actor:    testActor,
	})
	if err != nil {
		t.Fatalf("StartTask failed: %v", err)
	}

	err = env.orch.CompleteTask(ctx, primary.CompleteTaskRequest{
		WorkerID: "worker-done",
		TaskRef:  started.ID,
		Actor:    testActor,
	})
	if err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}

	task, err := env.orch.GetTask(ctx, started.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if task.Status != "done" {
		t.Errorf("expected default completion status done, got %q", task.Status)
	}

	var openClaims int
	err = env.db.QueryRow(
		"SELECT COUNT(*) FROM task_claims WHERE task_id = ? AND released_at IS NULL",
		started.ID).Scan(&openClaims)
	if err != nil {
		t.Fatalf("failed to count claims: %v", err)
	}
	if openClaims != 0 {
		t.Errorf("expected claim released, found %d open", openClaims)
	}

	types := eventTypes(t, env.db, started.ID)
	if len(types) != 5 || types[3] != "task.released" || types[4] != "task.status_changed" {
		t.Errorf("expected released then status_changed appended, got %v", types)
	}
}

func TestCompleteTaskRejectsNonTerminal(t *testing.T) {
	env := setupTestEnv(t)

	err := env.orch.CompleteTask(context.Background(), primary.CompleteTaskRequest{
		WorkerID: "worker-1",
		TaskRef:  "whatever",
		Status:   "running",
		Actor:    testActor,
	})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCompleteTaskFailed(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	started, err := env.orch.StartTask(ctx, primary.StartTaskRequest{
		WorkerID: "worker-fail",
		Title:    "Breaks",
		Actor:    testActor,
	})
	if err != nil {
		t.Fatalf("StartTask failed: %v", err)
	}

	err = env.orch.CompleteTask(ctx, primary.CompleteTaskRequest{
		WorkerID: "worker-fail",
		TaskRef:  started.ID,
		Status:   "failed",
		Actor:    testActor,
	})
	if err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}

	task, err := env.orch.GetTask(ctx, started.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if task.Status != "failed" {
		t.Errorf("expected status failed, got %q", task.Status)
	}
}

func TestHeartbeat(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	worker, err := env.orch.Heartbeat(ctx, primary.HeartbeatRequest{
		WorkerID:    "worker-hb",
		WorkerTypes: []string{"coder", "tester"},
	})
	if err != nil {
		t.Fatalf("Heartbeat failed: %v", err)
	}
	if worker.Status != "online" {
		t.Errorf("expected default status online, got %q", worker.Status)
	}
	if len(worker.WorkerTypes) != 2 {
		t.Errorf("expected 2 worker types, got %v", worker.WorkerTypes)
	}
	if worker.LastHeartbeatAt == "" {
		t.Error("expected last heartbeat to be set")
	}

	// Second heartbeat refreshes rather than duplicating.
	worker, err = env.orch.Heartbeat(ctx, primary.HeartbeatRequest{
		WorkerID:    "worker-hb",
		WorkerTypes: []string{"designer"},
		Status:      "draining",
	})
	if err != nil {
		t.Fatalf("second Heartbeat failed: %v", err)
	}
	if worker.Status != "draining" {
		t.Errorf("expected status draining, got %q", worker.Status)
	}

	var count int
	if err := env.db.QueryRow("SELECT COUNT(*) FROM workers").Scan(&count); err != nil {
		t.Fatalf("failed to count workers: %v", err)
	}
	if count != 1 {
		t.Errorf("expected a single worker row, got %d", count)
	}

	var heartbeats int
	err = env.db.QueryRow("SELECT COUNT(*) FROM events WHERE type = 'worker.heartbeat'").Scan(&heartbeats)
	if err != nil {
		t.Fatalf("failed to count heartbeat events: %v", err)
	}
	if heartbeats != 2 {
		t.Errorf("expected 2 heartbeat events, got %d", heartbeats)
	}
}

func TestHeartbeatValidation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.orch.Heartbeat(ctx, primary.HeartbeatRequest{})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for missing id, got %v", err)
	}

	_, err = env.orch.Heartbeat(ctx, primary.HeartbeatRequest{
		WorkerID:    "worker-bad",
		WorkerTypes: []string{"astronaut"},
	})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for bad type, got %v", err)
	}

	_, err = env.orch.Heartbeat(ctx, primary.HeartbeatRequest{
		WorkerID: "worker-bad",
		Status:   "asleep",
	})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for bad status, got %v", err)
	}
}

func TestGetTaskByPrefix(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	created, err := env.orch.CreateTask(ctx, primary.CreateTaskRequest{
		Title: "Findable", Actor: testActor,
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	task, err := env.orch.GetTask(ctx, created.ID[:8])
	if err != nil {
		t.Fatalf("GetTask by prefix failed: %v", err)
	}
	if task.ID != created.ID {
		t.Errorf("expected %s, got %s", created.ID, task.ID)
	}

	_, err = env.orch.GetTask(ctx, "ffffffff")
	if !apperr.IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}
