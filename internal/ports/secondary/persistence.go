// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"errors"
)

// ErrNotFound is wrapped by repositories when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// RunRepository defines the secondary port for run persistence.
type RunRepository interface {
	// Create persists a new run and returns its generated ID.
	Create(ctx context.Context, command, status, metadataJSON string) (string, error)

	// GetByID retrieves a run by its ID. Wraps ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*RunRecord, error)

	// Update overwrites status and, when metadataJSON is non-nil, the metadata.
	Update(ctx context.Context, id, status string, metadataJSON *string) error

	// List returns the most recently updated runs first.
	List(ctx context.Context, limit int) ([]*RunRecord, error)

	// CountByCommandStatus returns run counts grouped by command and status.
	CountByCommandStatus(ctx context.Context) ([]*RunCount, error)
}

// RunRecord represents a run as stored in persistence.
type RunRecord struct {
	ID           string
	Command      string
	Status       string
	MetadataJSON string
	CreatedAt    string
	UpdatedAt    string
}

// RunCount is one (command, status) bucket.
type RunCount struct {
	Command string
	Status  string
	Count   int
}

// ReviewTokenRepository defines the secondary port for confirmation tokens.
// Only token hashes are ever stored.
type ReviewTokenRepository interface {
	// Create stores a token hash bound to an assignment.
	Create(ctx context.Context, token *ReviewTokenRecord) error

	// GetByHash retrieves a token by its hash. Wraps ErrNotFound when absent.
	GetByHash(ctx context.Context, tokenHash string) (*ReviewTokenRecord, error)
}

// ReviewTokenRecord represents a confirmation token as stored in persistence.
type ReviewTokenRecord struct {
	TokenHash    string
	AssignmentID int64
	ExpiresAt    string
	CreatedAt    string
}

// IdempotencyRepository defines the secondary port for submission replay records.
type IdempotencyRepository interface {
	// Create stores the result of a completed submission.
	Create(ctx context.Context, record *IdempotencyRecord) error

	// GetByKey retrieves a record by key. Wraps ErrNotFound when absent.
	GetByKey(ctx context.Context, key string) (*IdempotencyRecord, error)
}

// IdempotencyRecord represents a completed submission as stored in persistence.
type IdempotencyRecord struct {
	Key          string
	AssignmentID int64
	FilePath     string
	DryRun       bool
	ResultJSON   string
	CreatedAt    string
}

// FeedbackRepository defines the secondary port for instructor feedback memory.
type FeedbackRepository interface {
	// Create stores a feedback entry and returns its ID.
	Create(ctx context.Context, record *FeedbackRecord) (int64, error)

	// List returns entries matching every set filter, newest first, capped at 50.
	List(ctx context.Context, filters FeedbackFilters) ([]*FeedbackRecord, error)
}

// FeedbackRecord represents a feedback entry as stored in persistence.
type FeedbackRecord struct {
	ID           int64
	CourseID     *int64
	AssignmentID *int64
	FeedbackText string
	Source       string
	CreatedAt    string
}

// FeedbackFilters contains filter options for querying feedback.
type FeedbackFilters struct {
	CourseID     *int64
	AssignmentID *int64
}

// PlanRepository defines the secondary port for stored study plans.
type PlanRepository interface {
	// Create stores a plan and returns its generated ID.
	Create(ctx context.Context, assignmentID int64, stepsJSON string) (string, error)

	// GetByID retrieves a plan. Wraps ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*PlanRecord, error)
}

// PlanRecord represents a plan as stored in persistence.
type PlanRecord struct {
	ID           string
	AssignmentID int64
	StepsJSON    string
	CreatedAt    string
}

// ActionLog defines the secondary port for the command audit trail.
type ActionLog interface {
	// Record appends an entry.
	Record(ctx context.Context, command, payload string) error

	// TopErrorCodes returns the most frequent error codes, most frequent first.
	TopErrorCodes(ctx context.Context, limit int) ([]*ErrorCodeCount, error)
}

// ErrorCodeCount is one error code with its occurrence count.
type ErrorCodeCount struct {
	Code  string
	Count int
}
