package db

// SchemaSQL is the complete schema for fresh Mission Control installs.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All tests
// apply it via GetSchemaSQL(), so repository code referencing a column
// that does not exist here fails immediately with "no such column".
//
// Status, priority, worker-type, actor-type and level vocabularies are
// closed enumerations enforced by CHECK constraints; the two partial
// unique indexes are the store-level backstop for the "at most one active
// assignment" and "at most one open claim" invariants. The facade still
// supersedes/refuses inside the same transaction so readers never observe
// a violation, even momentarily.
const SchemaSQL = `
-- Tasks (units of requested work)
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	title TEXT NOT NULL,
	description TEXT,
	status TEXT NOT NULL CHECK(status IN ('queued', 'claimed', 'running', 'blocked', 'needs_review', 'done', 'failed', 'canceled')) DEFAULT 'queued',
	priority TEXT NOT NULL CHECK(priority IN ('low', 'normal', 'high', 'urgent')) DEFAULT 'normal',
	source TEXT NOT NULL CHECK(source IN ('chat', 'ui', 'cli')) DEFAULT 'cli',
	requester TEXT,
	tags_json TEXT,
	meta_json TEXT
);

-- Assignments (routing declarations: task -> worker type, optionally pinned)
CREATE TABLE IF NOT EXISTS task_assignments (
	id TEXT PRIMARY KEY,
	task_id TEXT NOT NULL,
	worker_type TEXT NOT NULL CHECK(worker_type IN ('coder', 'researcher', 'seo', 'designer', 'tester')),
	worker_id TEXT,
	status TEXT NOT NULL CHECK(status IN ('active', 'superseded', 'canceled')) DEFAULT 'active',
	assigned_by_actor_type TEXT CHECK(assigned_by_actor_type IN ('orchestrator', 'worker', 'ui')),
	assigned_by_actor_id TEXT,
	note TEXT,
	meta_json TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (task_id) REFERENCES tasks(id)
);

-- Claims (exclusive custody of a task by one worker while executing)
CREATE TABLE IF NOT EXISTS task_claims (
	id TEXT PRIMARY KEY,
	task_id TEXT NOT NULL,
	worker_id TEXT NOT NULL,
	claimed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	released_at DATETIME,
	status TEXT NOT NULL CHECK(status IN ('claimed', 'released')) DEFAULT 'claimed',
	meta_json TEXT,
	FOREIGN KEY (task_id) REFERENCES tasks(id)
);

-- Workers (registered execution agents, refreshed by heartbeat)
CREATE TABLE IF NOT EXISTS workers (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL CHECK(status IN ('online', 'offline', 'draining')) DEFAULT 'online',
	worker_types_json TEXT NOT NULL DEFAULT '[]',
	last_heartbeat_at DATETIME,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	meta_json TEXT
);

-- Events (append-only audit trail; task_id is NULL for worker/system scope)
CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	task_id TEXT,
	actor_type TEXT NOT NULL CHECK(actor_type IN ('orchestrator', 'worker', 'ui')),
	actor_id TEXT,
	level TEXT NOT NULL CHECK(level IN ('debug', 'info', 'warn', 'error')) DEFAULT 'info',
	type TEXT NOT NULL,
	message TEXT,
	correlation_id TEXT,
	payload_json TEXT,
	FOREIGN KEY (task_id) REFERENCES tasks(id)
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_updated ON tasks(updated_at);

CREATE INDEX IF NOT EXISTS idx_assignments_task ON task_assignments(task_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_assignments_one_active
	ON task_assignments(task_id) WHERE status = 'active';

CREATE INDEX IF NOT EXISTS idx_claims_task ON task_claims(task_id);
CREATE INDEX IF NOT EXISTS idx_claims_worker ON task_claims(worker_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_claims_one_open
	ON task_claims(task_id) WHERE released_at IS NULL;

CREATE INDEX IF NOT EXISTS idx_events_task_created ON events(task_id, created_at);
`

// GetSchemaSQL returns the authoritative schema for test setup.
func GetSchemaSQL() string {
	return SchemaSQL
}
