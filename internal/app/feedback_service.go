package app

import (
	"context"
	"strings"

	"github.com/example/canvasai/internal/ports/primary"
	"github.com/example/canvasai/internal/ports/secondary"
)

// FeedbackServiceImpl implements the FeedbackService interface.
type FeedbackServiceImpl struct {
	feedbackRepo secondary.FeedbackRepository
}

// NewFeedbackService creates a new FeedbackService with injected dependencies.
func NewFeedbackService(feedbackRepo secondary.FeedbackRepository) *FeedbackServiceImpl {
	return &FeedbackServiceImpl{feedbackRepo: feedbackRepo}
}

// AddFeedback stores an instructor feedback entry.
func (s *FeedbackServiceImpl) AddFeedback(ctx context.Context, req primary.AddFeedbackRequest) (int64, error) {
	if strings.TrimSpace(req.Text) == "" {
		return 0, primary.NewValidationError("--text must not be empty.")
	}
	return s.feedbackRepo.Create(ctx, &secondary.FeedbackRecord{
		CourseID:     req.CourseID,
		AssignmentID: req.AssignmentID,
		FeedbackText: req.Text,
		Source:       strings.TrimSpace(req.Source),
	})
}

// ListFeedback returns matching entries, newest first.
func (s *FeedbackServiceImpl) ListFeedback(ctx context.Context, filters primary.FeedbackFilters) ([]*primary.Feedback, error) {
	records, err := s.feedbackRepo.List(ctx, secondary.FeedbackFilters{
		CourseID:     filters.CourseID,
		AssignmentID: filters.AssignmentID,
	})
	if err != nil {
		return nil, err
	}

	out := make([]*primary.Feedback, 0, len(records))
	for _, r := range records {
		fb := &primary.Feedback{
			ID:           r.ID,
			CourseID:     r.CourseID,
			AssignmentID: r.AssignmentID,
			FeedbackText: r.FeedbackText,
			CreatedAt:    r.CreatedAt,
		}
		if r.Source != "" {
			src := r.Source
			fb.Source = &src
		}
		out = append(out, fb)
	}
	return out, nil
}

// Ensure FeedbackServiceImpl implements the interface
var _ primary.FeedbackService = (*FeedbackServiceImpl)(nil)
