package db

import (
	"path/filepath"
	"testing"
)

func TestOpen_CreatesSchemaAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	conn, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer conn.Close()

	for _, table := range []string{"history", "plans", "review_tokens", "submission_idempotency", "runs", "feedback_memory"} {
		var n int
		if err := conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n); err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if n != 1 {
			t.Errorf("expected table %s to exist", table)
		}
	}

	v, err := SchemaVersion(conn)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if v != LatestVersion() {
		t.Errorf("expected version %d, got %d", LatestVersion(), v)
	}
}

func TestOpen_ReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	if _, err := first.Exec("INSERT INTO runs (id, command, status, metadata_json, created_at, updated_at) VALUES ('run_1', 'do', 'queued', NULL, 't', 't')"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer second.Close()

	var count int
	if err := second.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if count != LatestVersion() {
		t.Errorf("migrations re-applied: %d rows in schema_version", count)
	}
}

func TestMigrationV1_BackfillsNullMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	conn, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Exec("INSERT INTO runs (id, command, status, metadata_json, created_at, updated_at) VALUES ('run_1', 'do', 'queued', NULL, 't', 't')"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	tx, err := conn.Begin()
	if err != nil {
		t.Fatal(err)
	}
	if err := migrationV1(tx); err != nil {
		t.Fatalf("migrationV1 failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	var meta string
	if err := conn.QueryRow("SELECT metadata_json FROM runs WHERE id = 'run_1'").Scan(&meta); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if meta != "{}" {
		t.Errorf("expected backfilled metadata, got %q", meta)
	}
}
