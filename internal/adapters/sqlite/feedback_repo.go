package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/canvasai/internal/ports/secondary"
)

const feedbackListLimit = 50

// FeedbackRepository implements secondary.FeedbackRepository with SQLite.
type FeedbackRepository struct {
	db *sql.DB
}

// NewFeedbackRepository creates a new SQLite feedback repository.
func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create stores a feedback entry and returns its ID.
func (r *FeedbackRepository) Create(ctx context.Context, record *secondary.FeedbackRecord) (int64, error) {
	var source sql.NullString
	if record.Source != "" {
		source = sql.NullString{String: record.Source, Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO feedback_memory (course_id, assignment_id, feedback_text, source, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		nullInt(record.CourseID), nullInt(record.AssignmentID), record.FeedbackText, source, now(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create feedback: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get feedback id: %w", err)
	}
	return id, nil
}

// List returns entries matching every set filter, newest first.
func (r *FeedbackRepository) List(ctx context.Context, filters secondary.FeedbackFilters) ([]*secondary.FeedbackRecord, error) {
	query := "SELECT id, course_id, assignment_id, feedback_text, source, created_at FROM feedback_memory WHERE 1=1"
	args := []any{}

	if filters.CourseID != nil {
		query += " AND course_id = ?"
		args = append(args, *filters.CourseID)
	}
	if filters.AssignmentID != nil {
		query += " AND assignment_id = ?"
		args = append(args, *filters.AssignmentID)
	}

	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, feedbackListLimit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var entries []*secondary.FeedbackRecord
	for rows.Next() {
		var (
			courseID     sql.NullInt64
			assignmentID sql.NullInt64
			source       sql.NullString
		)
		record := &secondary.FeedbackRecord{}
		if err := rows.Scan(&record.ID, &courseID, &assignmentID, &record.FeedbackText, &source, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		if courseID.Valid {
			record.CourseID = &courseID.Int64
		}
		if assignmentID.Valid {
			record.AssignmentID = &assignmentID.Int64
		}
		record.Source = source.String
		entries = append(entries, record)
	}
	return entries, rows.Err()
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// Ensure FeedbackRepository implements the interface.
var _ secondary.FeedbackRepository = (*FeedbackRepository)(nil)
