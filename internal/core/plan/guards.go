// Package plan contains the pure business logic for study plans.
// Guards are pure functions that evaluate preconditions without side effects.
package plan

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

// ExecuteStepContext provides context for executing one plan step.
type ExecuteStepContext struct {
	PlanID    string
	Step      int
	StepCount int
}

// CanExecuteStep evaluates whether a step number addresses a plan step.
// Rules:
// - Steps are numbered from 1
// - The step must not exceed the plan length
func CanExecuteStep(ctx ExecuteStepContext) GuardResult {
	if ctx.Step < 1 || ctx.Step > ctx.StepCount {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("Step %d is out of range for plan %s", ctx.Step, ctx.PlanID),
		}
	}
	return GuardResult{Allowed: true}
}
