package sqlite_test

import (
	"context"
	"testing"

	"github.com/example/missionctl/internal/adapters/sqlite"
	"github.com/example/missionctl/internal/apperr"
	"github.com/example/missionctl/internal/ports/secondary"
)

func TestTaskRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewTaskRepository(db)
	ctx := context.Background()

	err := repo.Create(ctx, &secondary.TaskRecord{
		ID:          "aaaa1111-0000-0000-0000-000000000001",
		Title:       "Write launch checklist",
		Description: "docs task",
		Priority:    "high",
		Source:      "cli",
		Requester:   "alice",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "aaaa1111-0000-0000-0000-000000000001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "Write launch checklist" {
		t.Errorf("expected title %q, got %q", "Write launch checklist", got.Title)
	}
	if got.Status != "queued" {
		t.Errorf("expected default status queued, got %q", got.Status)
	}
	if got.Priority != "high" {
		t.Errorf("expected priority high, got %q", got.Priority)
	}
	if got.CreatedAt == "" || got.UpdatedAt == "" {
		t.Error("expected timestamps to be set")
	}
}

func TestTaskRepository_CreateDefaults(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewTaskRepository(db)
	ctx := context.Background()

	err := repo.Create(ctx, &secondary.TaskRecord{
		ID:    "aaaa1111-0000-0000-0000-000000000002",
		Title: "Minimal task",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "aaaa1111-0000-0000-0000-000000000002")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Priority != "normal" {
		t.Errorf("expected default priority normal, got %q", got.Priority)
	}
	if got.Source != "cli" {
		t.Errorf("expected default source cli, got %q", got.Source)
	}
}

func TestTaskRepository_GetByIDNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewTaskRepository(db)

	_, err := repo.GetByID(context.Background(), "missing-id")
	if !apperr.IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestTaskRepository_FindByIDOrPrefix(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewTaskRepository(db)
	ctx := context.Background()

	seedTask(t, db, "abc11111-0000-0000-0000-000000000001", "First", "queued")
	seedTask(t, db, "abc22222-0000-0000-0000-000000000002", "Second", "queued")
	seedTask(t, db, "def33333-0000-0000-0000-000000000003", "Third", "queued")

	// Exact match wins.
	got, err := repo.FindByIDOrPrefix(ctx, "def33333-0000-0000-0000-000000000003")
	if err != nil {
		t.Fatalf("FindByIDOrPrefix failed: %v", err)
	}
	if got == nil || got.Title != "Third" {
		t.Fatalf("expected exact match Third, got %+v", got)
	}

	// Unique prefix resolves.
	got, err = repo.FindByIDOrPrefix(ctx, "def")
	if err != nil {
		t.Fatalf("FindByIDOrPrefix failed: %v", err)
	}
	if got == nil || got.Title != "Third" {
		t.Fatalf("expected prefix match Third, got %+v", got)
	}

	// Ambiguous prefix returns nil without error.
	got, err = repo.FindByIDOrPrefix(ctx, "abc")
	if err != nil {
		t.Fatalf("FindByIDOrPrefix failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for ambiguous prefix, got %+v", got)
	}

	// No match returns nil without error.
	got, err = repo.FindByIDOrPrefix(ctx, "zzz")
	if err != nil {
		t.Fatalf("FindByIDOrPrefix failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unmatched prefix, got %+v", got)
	}
}

func TestTaskRepository_FindByIDOrPrefixExactBeatsAmbiguity(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewTaskRepository(db)
	ctx := context.Background()

	// "abc" is itself an id and also a prefix of another id.
	seedTask(t, db, "abc", "Exact", "queued")
	seedTask(t, db, "abcdef", "Longer", "queued")

	got, err := repo.FindByIDOrPrefix(ctx, "abc")
	if err != nil {
		t.Fatalf("FindByIDOrPrefix failed: %v", err)
	}
	if got == nil || got.Title != "Exact" {
		t.Fatalf("expected exact match Exact, got %+v", got)
	}
}

func TestTaskRepository_ListFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewTaskRepository(db)
	ctx := context.Background()

	seedTask(t, db, "aaaa1111-0000-0000-0000-000000000010", "Queued one", "queued")
	seedTask(t, db, "aaaa1111-0000-0000-0000-000000000011", "Running one", "running")
	seedTask(t, db, "aaaa1111-0000-0000-0000-000000000012", "Queued two", "queued")

	queued, err := repo.List(ctx, secondary.TaskFilters{Status: "queued"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(queued) != 2 {
		t.Errorf("expected 2 queued tasks, got %d", len(queued))
	}

	all, err := repo.List(ctx, secondary.TaskFilters{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 tasks, got %d", len(all))
	}

	limited, err := repo.List(ctx, secondary.TaskFilters{Limit: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected 1 task with limit, got %d", len(limited))
	}
}

func TestTaskRepository_UpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewTaskRepository(db)
	ctx := context.Background()

	id := seedTask(t, db, "", "Status target", "queued")

	if err := repo.UpdateStatus(ctx, id, "running"); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != "running" {
		t.Errorf("expected status running, got %q", got.Status)
	}

	if err := repo.UpdateStatus(ctx, "missing-id", "done"); !apperr.IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestTaskRepository_UpdatePriority(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewTaskRepository(db)
	ctx := context.Background()

	id := seedTask(t, db, "", "Priority target", "queued")

	if err := repo.UpdatePriority(ctx, id, "urgent"); err != nil {
		t.Fatalf("UpdatePriority failed: %v", err)
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Priority != "urgent" {
		t.Errorf("expected priority urgent, got %q", got.Priority)
	}

	if err := repo.UpdatePriority(ctx, "missing-id", "low"); !apperr.IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}
