package app

import (
	"context"
	"time"

	"github.com/example/canvasai/internal/ports/primary"
	"github.com/example/canvasai/internal/ports/secondary"
)

// CourseServiceImpl implements the CourseService interface.
type CourseServiceImpl struct {
	clients secondary.ClientProvider
}

// NewCourseService creates a new CourseService with injected dependencies.
func NewCourseService(clients secondary.ClientProvider) *CourseServiceImpl {
	return &CourseServiceImpl{clients: clients}
}

// ListCourses returns the user's active courses.
func (s *CourseServiceImpl) ListCourses(ctx context.Context) ([]secondary.Course, error) {
	client, err := s.clients.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.ListCourses(ctx)
}

// ListAssignmentsDue returns upcoming assignments due within days.
func (s *CourseServiceImpl) ListAssignmentsDue(ctx context.Context, days int) ([]secondary.Assignment, error) {
	if days < 1 {
		return nil, primary.NewValidationError("--days must be at least 1.")
	}
	client, err := s.clients.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.ListAssignmentsDue(ctx, time.Duration(days)*24*time.Hour)
}

// GetAssignment returns an assignment or NOT_FOUND_404 when Canvas returns nothing.
func (s *CourseServiceImpl) GetAssignment(ctx context.Context, assignmentID int64) (*secondary.Assignment, error) {
	client, err := s.clients.Client(ctx)
	if err != nil {
		return nil, err
	}
	a, err := client.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, primary.NewNotFoundError("Assignment not found.")
	}
	return a, nil
}

// Ensure CourseServiceImpl implements the interface
var _ primary.CourseService = (*CourseServiceImpl)(nil)
