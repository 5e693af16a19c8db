package workflow

import "fmt"

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// ResumeContext provides context for resuming a persisted run.
type ResumeContext struct {
	RunAssignmentID       int64
	RequestedAssignmentID int64
	RunMode               Mode // empty when the run never recorded a mode
	RequestedMode         Mode
}

// CanResume evaluates whether a persisted run may continue under the request.
// Rules:
// - The run must be bound to the requested assignment
// - A recorded mode must equal the requested mode
func CanResume(ctx ResumeContext) GuardResult {
	if ctx.RunAssignmentID != ctx.RequestedAssignmentID {
		return GuardResult{
			Allowed: false,
			Reason:  "--resume run assignment_id does not match the provided assignment_id.",
		}
	}
	if ctx.RunMode != "" && ctx.RunMode != ctx.RequestedMode {
		return GuardResult{
			Allowed: false,
			Reason:  "--resume run mode does not match --mode.",
		}
	}
	return GuardResult{Allowed: true}
}
