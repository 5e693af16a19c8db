package primary

import (
	"context"

	"github.com/example/canvasai/internal/ports/secondary"
)

// CourseService defines the primary port for read-only Canvas lookups.
type CourseService interface {
	// ListCourses returns the user's active courses.
	ListCourses(ctx context.Context) ([]secondary.Course, error)

	// ListAssignmentsDue returns upcoming assignments due within days.
	ListAssignmentsDue(ctx context.Context, days int) ([]secondary.Assignment, error)

	// GetAssignment returns an assignment or a NOT_FOUND_404 error.
	GetAssignment(ctx context.Context, assignmentID int64) (*secondary.Assignment, error)
}
