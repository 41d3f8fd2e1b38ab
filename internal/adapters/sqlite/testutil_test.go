// Package sqlite_test contains integration tests for SQLite repositories.
//
// This file is the single point where the database schema is loaded for
// tests. All test setup uses db.GetSchemaSQL() so tests run against the
// authoritative schema instead of a hand-copied one. Do not hardcode
// CREATE TABLE statements in test files; use setupTestDB() and the seed*
// helpers.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/missionctl/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedTask inserts a test task and returns its ID.
func seedTask(t *testing.T, db *sql.DB, id, title, status string) string {
	t.Helper()
	if id == "" {
		id = "11111111-aaaa-bbbb-cccc-000000000001"
	}
	if title == "" {
		title = "Test Task"
	}
	if status == "" {
		status = "queued"
	}
	_, err := db.Exec("INSERT INTO tasks (id, title, status) VALUES (?, ?, ?)", id, title, status)
	if err != nil {
		t.Fatalf("failed to seed task: %v", err)
	}
	return id
}

// seedWorker inserts a test worker and returns its ID.
func seedWorker(t *testing.T, db *sql.DB, id string) string {
	t.Helper()
	if id == "" {
		id = "worker-1"
	}
	_, err := db.Exec("INSERT INTO workers (id, status, last_heartbeat_at) VALUES (?, 'online', CURRENT_TIMESTAMP)", id)
	if err != nil {
		t.Fatalf("failed to seed worker: %v", err)
	}
	return id
}

// seedAssignment inserts a test assignment and returns its ID.
func seedAssignment(t *testing.T, db *sql.DB, id, taskID, workerType, status string) string {
	t.Helper()
	if id == "" {
		id = "22222222-aaaa-bbbb-cccc-000000000001"
	}
	if workerType == "" {
		workerType = "coder"
	}
	if status == "" {
		status = "active"
	}
	_, err := db.Exec("INSERT INTO task_assignments (id, task_id, worker_type, status) VALUES (?, ?, ?, ?)",
		id, taskID, workerType, status)
	if err != nil {
		t.Fatalf("failed to seed assignment: %v", err)
	}
	return id
}

// seedClaim inserts an open test claim and returns its ID.
func seedClaim(t *testing.T, db *sql.DB, id, taskID, workerID string) string {
	t.Helper()
	if id == "" {
		id = "33333333-aaaa-bbbb-cccc-000000000001"
	}
	if workerID == "" {
		workerID = "worker-1"
	}
	_, err := db.Exec("INSERT INTO task_claims (id, task_id, worker_id, status) VALUES (?, ?, ?, 'claimed')",
		id, taskID, workerID)
	if err != nil {
		t.Fatalf("failed to seed claim: %v", err)
	}
	return id
}
