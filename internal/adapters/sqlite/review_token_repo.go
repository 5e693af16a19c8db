package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/canvasai/internal/ports/secondary"
)

// ReviewTokenRepository implements secondary.ReviewTokenRepository with SQLite.
type ReviewTokenRepository struct {
	db *sql.DB
}

// NewReviewTokenRepository creates a new SQLite review token repository.
func NewReviewTokenRepository(db *sql.DB) *ReviewTokenRepository {
	return &ReviewTokenRepository{db: db}
}

// Create stores a token hash bound to an assignment.
func (r *ReviewTokenRepository) Create(ctx context.Context, token *secondary.ReviewTokenRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO review_tokens (token_hash, assignment_id, expires_at, created_at) VALUES (?, ?, ?, ?)",
		token.TokenHash, token.AssignmentID, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create review token: %w", err)
	}
	return nil
}

// GetByHash retrieves a token by its hash.
func (r *ReviewTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*secondary.ReviewTokenRecord, error) {
	record := &secondary.ReviewTokenRecord{}
	err := r.db.QueryRowContext(ctx,
		"SELECT token_hash, assignment_id, expires_at, created_at FROM review_tokens WHERE token_hash = ?",
		tokenHash,
	).Scan(&record.TokenHash, &record.AssignmentID, &record.ExpiresAt, &record.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("review token: %w", secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review token: %w", err)
	}
	return record, nil
}

// Ensure ReviewTokenRepository implements the interface.
var _ secondary.ReviewTokenRepository = (*ReviewTokenRepository)(nil)
