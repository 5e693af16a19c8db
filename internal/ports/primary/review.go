package primary

import "context"

// ReviewService defines the primary port for the confirm-then-submit flow.
type ReviewService interface {
	// Review issues a short-lived confirm token bound to an assignment.
	Review(ctx context.Context, assignmentID int64) (*ReviewResponse, error)

	// Submit runs the gated submission. A repeated idempotency key replays the
	// stored result without calling the remote API again.
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error)
}

// ReviewResponse contains the issued token. ConfirmToken is shown once and
// never stored in clear.
type ReviewResponse struct {
	RunID        string
	AssignmentID int64
	ConfirmToken string
	ExpiresAt    string
}

// SubmitRequest contains parameters for a submission.
type SubmitRequest struct {
	AssignmentID   int64
	FilePath       string
	Confirm        bool
	ConfirmToken   string
	IdempotencyKey string
	DryRun         bool
}

// SubmitResponse contains the submission result document.
type SubmitResponse struct {
	// ResultJSON is the canonical result document exactly as stored for replay.
	ResultJSON     []byte
	Result         map[string]any
	Replayed       bool
	IdempotencyKey string
}
