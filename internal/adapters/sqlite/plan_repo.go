package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/canvasai/internal/ports/secondary"
)

// PlanRepository implements secondary.PlanRepository with SQLite.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new SQLite plan repository.
func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create stores a plan and returns its generated ID.
func (r *PlanRepository) Create(ctx context.Context, assignmentID int64, stepsJSON string) (string, error) {
	id := newID("plan_")
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO plans (id, assignment_id, steps_json, created_at) VALUES (?, ?, ?, ?)",
		id, assignmentID, stepsJSON, now(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create plan: %w", err)
	}
	return id, nil
}

// GetByID retrieves a plan by its ID.
func (r *PlanRepository) GetByID(ctx context.Context, id string) (*secondary.PlanRecord, error) {
	record := &secondary.PlanRecord{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, assignment_id, steps_json, created_at FROM plans WHERE id = ?",
		id,
	).Scan(&record.ID, &record.AssignmentID, &record.StepsJSON, &record.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("plan %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return record, nil
}

// Ensure PlanRepository implements the interface.
var _ secondary.PlanRepository = (*PlanRepository)(nil)
