package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete schema for a fresh history database.
//
// This is the single source of truth for the schema. Tests build their
// in-memory databases from GetSchemaSQL() rather than declaring tables of
// their own, so a repository that references a missing column fails at test
// time.
//
// Timestamps are RFC 3339 text written by the application, which keeps files
// created by earlier releases of the tool readable.
const SchemaSQL = `
-- Action log (one row per command and per surfaced error code)
CREATE TABLE IF NOT EXISTS history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts TEXT NOT NULL,
	command TEXT NOT NULL,
	payload TEXT
);

-- Step plans
CREATE TABLE IF NOT EXISTS plans (
	id TEXT PRIMARY KEY,
	assignment_id INTEGER NOT NULL,
	steps_json TEXT NOT NULL,
	created_at TEXT NOT NULL
);

-- Confirmation tokens (hash only, never the secret)
CREATE TABLE IF NOT EXISTS review_tokens (
	token_hash TEXT PRIMARY KEY,
	assignment_id INTEGER NOT NULL,
	expires_at TEXT NOT NULL,
	created_at TEXT NOT NULL
);

-- Submission replay records
CREATE TABLE IF NOT EXISTS submission_idempotency (
	idempotency_key TEXT PRIMARY KEY,
	assignment_id INTEGER NOT NULL,
	file_path TEXT NOT NULL,
	dry_run INTEGER NOT NULL,
	result_json TEXT NOT NULL,
	created_at TEXT NOT NULL
);

-- Runs (workflow, execute, review, submit)
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	command TEXT NOT NULL,
	status TEXT NOT NULL,
	metadata_json TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

-- Instructor feedback memory
CREATE TABLE IF NOT EXISTS feedback_memory (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	course_id INTEGER,
	assignment_id INTEGER,
	feedback_text TEXT NOT NULL,
	source TEXT,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_updated_at ON runs(updated_at);
CREATE INDEX IF NOT EXISTS idx_history_command ON history(command);
CREATE INDEX IF NOT EXISTS idx_feedback_course_assignment ON feedback_memory(course_id, assignment_id);
`

// InitSchema creates any missing tables and applies pending migrations.
// Every statement is idempotent, so opening an existing database is safe.
func InitSchema(conn *sql.DB) error {
	if _, err := conn.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return RunMigrations(conn)
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
