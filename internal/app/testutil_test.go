// Package app_test exercises the services against a real in-memory
// SQLite store so the transactional behavior is what production sees.
package app_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/missionctl/internal/adapters/sqlite"
	"github.com/example/missionctl/internal/app"
	"github.com/example/missionctl/internal/db"
	"github.com/example/missionctl/internal/ports/primary"
)

type testEnv struct {
	db    *sql.DB
	orch  primary.OrchestratorService
	query primary.QueryService
}

func setupTestEnv(t *testing.T) *testEnv {
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

	repos := sqlite.NewRepositories(testDB)
	return &testEnv{
		db:    testDB,
		orch:  app.NewOrchestratorService(sqlite.NewTxRunner(testDB)),
		query: app.NewQueryService(repos, sqlite.NewQueryRepository(testDB)),
	}
}

// eventTypes returns the event types logged for a task, oldest first.
func eventTypes(t *testing.T, database *sql.DB, taskID string) []string {
	t.Helper()

	rows, err := database.Query(
		"SELECT type FROM events WHERE task_id = ? ORDER BY rowid ASC", taskID)
	if err != nil {
		t.Fatalf("failed to read events: %v", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var typ string
		if err := rows.Scan(&typ); err != nil {
			t.Fatalf("failed to scan event: %v", err)
		}
		types = append(types, typ)
	}
	return types
}

func countEvents(t *testing.T, database *sql.DB, taskID string) int {
	t.Helper()

	var n int
	err := database.QueryRow("SELECT COUNT(*) FROM events WHERE task_id = ?", taskID).Scan(&n)
	if err != nil {
		t.Fatalf("failed to count events: %v", err)
	}
	return n
}
