package primary

import "context"

// FeedbackService defines the primary port for instructor feedback memory.
type FeedbackService interface {
	// AddFeedback stores a feedback entry and returns its ID.
	AddFeedback(ctx context.Context, req AddFeedbackRequest) (int64, error)

	// ListFeedback returns entries matching the filters, newest first.
	ListFeedback(ctx context.Context, filters FeedbackFilters) ([]*Feedback, error)
}

// AddFeedbackRequest contains parameters for storing feedback.
type AddFeedbackRequest struct {
	Text         string
	CourseID     *int64
	AssignmentID *int64
	Source       string
}

// FeedbackFilters contains filter options for listing feedback.
type FeedbackFilters struct {
	CourseID     *int64
	AssignmentID *int64
}

// Feedback is a stored feedback entry.
type Feedback struct {
	ID           int64   `json:"id"`
	CourseID     *int64  `json:"course_id"`
	AssignmentID *int64  `json:"assignment_id"`
	FeedbackText string  `json:"feedback_text"`
	Source       *string `json:"source"`
	CreatedAt    string  `json:"created_at"`
}
