package primary

import (
	"context"

	"github.com/example/canvasai/internal/core/plan"
)

// PlanService defines the primary port for step plans and placeholder drafts.
type PlanService interface {
	// CreatePlan generates and stores the fixed step plan for an assignment.
	CreatePlan(ctx context.Context, assignmentID int64) (*Plan, error)

	// ExecuteStep records the execution of one plan step as a run.
	ExecuteStep(ctx context.Context, req ExecuteStepRequest) (*ExecuteStepResponse, error)

	// Draft returns placeholder draft text for an assignment.
	Draft(ctx context.Context, assignmentID int64) (string, error)
}

// Plan is a stored step plan.
type Plan struct {
	ID           string      `json:"id"`
	AssignmentID int64       `json:"assignment_id"`
	Steps        []plan.Step `json:"steps"`
}

// ExecuteStepRequest contains parameters for executing a plan step.
type ExecuteStepRequest struct {
	PlanID string
	Step   int // 1-based
}

// ExecuteStepResponse contains the outcome of a step execution.
type ExecuteStepResponse struct {
	RunID        string
	PlanID       string
	AssignmentID int64
	Step         int
	Action       string
	Status       string
}
