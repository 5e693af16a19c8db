package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/canvasai/internal/ports/secondary"
)

// IdempotencyRepository implements secondary.IdempotencyRepository with SQLite.
type IdempotencyRepository struct {
	db *sql.DB
}

// NewIdempotencyRepository creates a new SQLite idempotency repository.
func NewIdempotencyRepository(db *sql.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// Create stores the result of a completed submission.
func (r *IdempotencyRepository) Create(ctx context.Context, record *secondary.IdempotencyRecord) error {
	dryRun := 0
	if record.DryRun {
		dryRun = 1
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO submission_idempotency
		(idempotency_key, assignment_id, file_path, dry_run, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		record.Key, record.AssignmentID, record.FilePath, dryRun, record.ResultJSON, now(),
	)
	if err != nil {
		return fmt.Errorf("failed to store idempotency record: %w", err)
	}
	return nil
}

// GetByKey retrieves a record by key.
func (r *IdempotencyRepository) GetByKey(ctx context.Context, key string) (*secondary.IdempotencyRecord, error) {
	var dryRun int
	record := &secondary.IdempotencyRecord{}
	err := r.db.QueryRowContext(ctx,
		`SELECT idempotency_key, assignment_id, file_path, dry_run, result_json, created_at
		FROM submission_idempotency WHERE idempotency_key = ?`,
		key,
	).Scan(&record.Key, &record.AssignmentID, &record.FilePath, &dryRun, &record.ResultJSON, &record.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("idempotency key %s: %w", key, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get idempotency record: %w", err)
	}
	record.DryRun = dryRun == 1
	return record, nil
}

// Ensure IdempotencyRepository implements the interface.
var _ secondary.IdempotencyRepository = (*IdempotencyRepository)(nil)
