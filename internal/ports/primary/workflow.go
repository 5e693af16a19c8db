package primary

import (
	"context"

	"github.com/example/canvasai/internal/core/workflow"
)

// WorkflowService defines the primary port for the assignment workflow.
type WorkflowService interface {
	// Do starts a workflow run, or resumes one when ResumeRunID is set, and
	// advances it to ready.
	Do(ctx context.Context, req DoRequest) (*DoResponse, error)
}

// DoRequest contains parameters for starting or resuming a workflow.
type DoRequest struct {
	AssignmentID int64
	Mode         string
	Goal         string
	ResumeRunID  string
	PolishInput  string // optional base text for polish mode
}

// DoResponse contains the result of a workflow invocation.
type DoResponse struct {
	RunID        string
	State        workflow.State
	Mode         string
	Goal         string
	Artifacts    *workflow.Artifacts
	Summary      string
	AlreadyReady bool // the run was ready before this call; nothing was recomputed
}
