package worker

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/missionctl/internal/adapters/sqlite"
	"github.com/example/missionctl/internal/app"
	"github.com/example/missionctl/internal/db"
	"github.com/example/missionctl/internal/ports/primary"
)

func setupRunner(t *testing.T, handler TaskHandler, workerTypes ...string) (*Runner, *sql.DB, primary.OrchestratorService) {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	t.Cleanup(func() {
		testDB.Close()
	})

	orch := app.NewOrchestratorService(sqlite.NewTxRunner(testDB))
	query := app.NewQueryService(sqlite.NewRepositories(testDB), sqlite.NewQueryRepository(testDB))

	runner, err := NewRunner(Config{
		WorkerID:     "worker-test",
		WorkerTypes:  workerTypes,
		Orchestrator: orch,
		Query:        query,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Handler:      handler,
	})
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	return runner, testDB, orch
}

func TestNewRunnerValidation(t *testing.T) {
	_, err := NewRunner(Config{})
	if err == nil {
		t.Error("expected error for missing worker id")
	}

	_, err = NewRunner(Config{WorkerID: "w", WorkerTypes: []string{"plumber"}})
	if err == nil {
		t.Error("expected error for invalid worker type")
	}
}

func TestRunnerHeartbeatRegistersWorker(t *testing.T) {
	runner, testDB, _ := setupRunner(t, nil, "coder")

	if err := runner.heartbeat(context.Background()); err != nil {
		t.Fatalf("heartbeat failed: %v", err)
	}

	var status string
	err := testDB.QueryRow("SELECT status FROM workers WHERE id = 'worker-test'").Scan(&status)
	if err != nil {
		t.Fatalf("failed to read worker: %v", err)
	}
	if status != "online" {
		t.Errorf("expected status online, got %q", status)
	}
}

func TestRunnerPollClaimsAndCompletes(t *testing.T) {
	actor := primary.Actor{Type: "orchestrator"}

	var handled []string
	runner, testDB, orch := setupRunner(t, func(ctx context.Context, task *primary.TaskOverview) error {
		handled = append(handled, task.Title)
		return nil
	}, "coder")

	ctx := context.Background()
	if err := runner.heartbeat(ctx); err != nil {
		t.Fatalf("heartbeat failed: %v", err)
	}

	created, err := orch.CreateAndAssign(ctx, primary.CreateAndAssignRequest{
		Create: primary.CreateTaskRequest{Title: "Routed to coder", Actor: actor},
		Assign: primary.AssignRequest{WorkerType: "coder", Actor: actor},
	})
	if err != nil {
		t.Fatalf("CreateAndAssign failed: %v", err)
	}

	// Tasks for other worker types must be skipped.
	if _, err := orch.CreateAndAssign(ctx, primary.CreateAndAssignRequest{
		Create: primary.CreateTaskRequest{Title: "Routed to designer", Actor: actor},
		Assign: primary.AssignRequest{WorkerType: "designer", Actor: actor},
	}); err != nil {
		t.Fatalf("CreateAndAssign failed: %v", err)
	}

	runner.poll(ctx)

	if len(handled) != 1 || handled[0] != "Routed to coder" {
		t.Fatalf("expected to handle the coder task, got %v", handled)
	}

	task, err := orch.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if task.Status != "done" {
		t.Errorf("expected status done, got %q", task.Status)
	}

	var openClaims int
	err = testDB.QueryRow("SELECT COUNT(*) FROM task_claims WHERE released_at IS NULL").Scan(&openClaims)
	if err != nil {
		t.Fatalf("failed to count claims: %v", err)
	}
	if openClaims != 0 {
		t.Errorf("expected claim released, found %d open", openClaims)
	}
}

func TestRunnerPollMarksFailures(t *testing.T) {
	actor := primary.Actor{Type: "orchestrator"}

	runner, _, orch := setupRunner(t, func(ctx context.Context, task *primary.TaskOverview) error {
		return errors.New("build broke")
	}, "coder")

	ctx := context.Background()
	created, err := orch.CreateAndAssign(ctx, primary.CreateAndAssignRequest{
		Create: primary.CreateTaskRequest{Title: "Doomed build", Actor: actor},
		Assign: primary.AssignRequest{WorkerType: "coder", Actor: actor},
	})
	if err != nil {
		t.Fatalf("CreateAndAssign failed: %v", err)
	}

	runner.poll(ctx)

	task, err := orch.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if task.Status != "failed" {
		t.Errorf("expected status failed, got %q", task.Status)
	}
}

func TestRunnerPollRespectsPinnedAssignments(t *testing.T) {
	actor := primary.Actor{Type: "orchestrator"}

	var handled []string
	runner, _, orch := setupRunner(t, func(ctx context.Context, task *primary.TaskOverview) error {
		handled = append(handled, task.Title)
		return nil
	}, "coder")

	ctx := context.Background()

	// Same type, pinned to another worker: must not be picked up.
	if _, err := orch.CreateAndAssign(ctx, primary.CreateAndAssignRequest{
		Create: primary.CreateTaskRequest{Title: "Pinned elsewhere", Actor: actor},
		Assign: primary.AssignRequest{WorkerType: "coder", WorkerID: "someone-else", Actor: actor},
	}); err != nil {
		t.Fatalf("CreateAndAssign failed: %v", err)
	}

	runner.poll(ctx)

	if len(handled) != 0 {
		t.Fatalf("expected pinned task to be skipped, handled %v", handled)
	}

	// Pinned to this worker under a type it does not declare: still its task.
	if _, err := orch.CreateAndAssign(ctx, primary.CreateAndAssignRequest{
		Create: primary.CreateTaskRequest{Title: "Pinned here", Actor: actor},
		Assign: primary.AssignRequest{WorkerType: "designer", WorkerID: "worker-test", Actor: actor},
	}); err != nil {
		t.Fatalf("CreateAndAssign failed: %v", err)
	}

	runner.poll(ctx)

	if len(handled) != 1 || handled[0] != "Pinned here" {
		t.Fatalf("expected to handle the task pinned to this worker, got %v", handled)
	}
}

func TestRunnerPollIdleWhenNothingEligible(t *testing.T) {
	actor := primary.Actor{Type: "orchestrator"}

	var handled int
	runner, _, orch := setupRunner(t, func(ctx context.Context, task *primary.TaskOverview) error {
		handled++
		return nil
	}, "coder")

	ctx := context.Background()

	// Unassigned queued task: a typed worker must leave it alone.
	if _, err := orch.CreateTask(ctx, primary.CreateTaskRequest{
		Title: "Unrouted", Actor: actor,
	}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	runner.poll(ctx)

	if handled != 0 {
		t.Errorf("expected no tasks handled, got %d", handled)
	}
}
