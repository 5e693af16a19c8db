package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/canvasai/internal/ports/secondary"
)

// RunRepository implements secondary.RunRepository with SQLite.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new SQLite run repository.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create persists a new run and returns its generated ID.
func (r *RunRepository) Create(ctx context.Context, command, status, metadataJSON string) (string, error) {
	if metadataJSON == "" {
		metadataJSON = "{}"
	}
	id := newID("run_")
	ts := now()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO runs (id, command, status, metadata_json, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		id, command, status, metadataJSON, ts, ts,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// GetByID retrieves a run by its ID.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*secondary.RunRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, command, status, metadata_json, created_at, updated_at FROM runs WHERE id = ?",
		id,
	)
	record, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return record, nil
}

// Update overwrites the status and, when metadataJSON is non-nil, the metadata.
func (r *RunRepository) Update(ctx context.Context, id, status string, metadataJSON *string) error {
	var (
		result sql.Result
		err    error
	)
	if metadataJSON == nil {
		result, err = r.db.ExecContext(ctx,
			"UPDATE runs SET status = ?, updated_at = ? WHERE id = ?",
			status, now(), id,
		)
	} else {
		result, err = r.db.ExecContext(ctx,
			"UPDATE runs SET status = ?, metadata_json = ?, updated_at = ? WHERE id = ?",
			status, *metadataJSON, now(), id,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run %s: %w", id, secondary.ErrNotFound)
	}
	return nil
}

// List returns the most recently updated runs first.
func (r *RunRepository) List(ctx context.Context, limit int) ([]*secondary.RunRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, command, status, metadata_json, created_at, updated_at
		FROM runs ORDER BY updated_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*secondary.RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, record)
	}
	return runs, rows.Err()
}

// CountByCommandStatus returns run counts grouped by command and status.
func (r *RunRepository) CountByCommandStatus(ctx context.Context) ([]*secondary.RunCount, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT command, status, COUNT(*) FROM runs GROUP BY command, status ORDER BY command, status",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}
	defer rows.Close()

	var counts []*secondary.RunCount
	for rows.Next() {
		c := &secondary.RunCount{}
		if err := rows.Scan(&c.Command, &c.Status, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan run count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (*secondary.RunRecord, error) {
	var meta sql.NullString
	record := &secondary.RunRecord{}
	if err := s.Scan(&record.ID, &record.Command, &record.Status, &meta, &record.CreatedAt, &record.UpdatedAt); err != nil {
		return nil, err
	}
	record.MetadataJSON = meta.String
	return record, nil
}

// Ensure RunRepository implements the interface.
var _ secondary.RunRepository = (*RunRepository)(nil)
