package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/example/canvasai/internal/core/canonical"
	"github.com/example/canvasai/internal/core/plan"
	"github.com/example/canvasai/internal/ports/primary"
	"github.com/example/canvasai/internal/ports/secondary"
)

// modelKeyEnv lists the variables whose presence marks AI drafting as configured.
var modelKeyEnv = []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY"}

// PlanServiceImpl implements the PlanService interface.
type PlanServiceImpl struct {
	planRepo secondary.PlanRepository
	runRepo  secondary.RunRepository
	clients  secondary.ClientProvider
	lookup   func(string) (string, bool)
}

// NewPlanService creates a new PlanService with injected dependencies.
func NewPlanService(
	planRepo secondary.PlanRepository,
	runRepo secondary.RunRepository,
	clients secondary.ClientProvider,
) *PlanServiceImpl {
	return &PlanServiceImpl{
		planRepo: planRepo,
		runRepo:  runRepo,
		clients:  clients,
		lookup:   os.LookupEnv,
	}
}

// CreatePlan generates and stores the step plan for an assignment.
func (s *PlanServiceImpl) CreatePlan(ctx context.Context, assignmentID int64) (*primary.Plan, error) {
	title, err := s.assignmentTitle(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	steps := plan.GenerateSteps(title)
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan steps: %w", err)
	}
	id, err := s.planRepo.Create(ctx, assignmentID, string(stepsJSON))
	if err != nil {
		return nil, err
	}

	return &primary.Plan{
		ID:           id,
		AssignmentID: assignmentID,
		Steps:        plan.Number(steps),
	}, nil
}

// ExecuteStep records the execution of one step as an execute run.
func (s *PlanServiceImpl) ExecuteStep(ctx context.Context, req primary.ExecuteStepRequest) (*primary.ExecuteStepResponse, error) {
	record, err := s.planRepo.GetByID(ctx, req.PlanID)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, primary.NewNotFoundError("Plan not found: %s", req.PlanID)
	}
	if err != nil {
		return nil, err
	}

	var steps []string
	if err := json.Unmarshal([]byte(record.StepsJSON), &steps); err != nil {
		return nil, fmt.Errorf("failed to decode plan %s: %w", record.ID, err)
	}
	if err := plan.CanExecuteStep(plan.ExecuteStepContext{
		PlanID:    record.ID,
		Step:      req.Step,
		StepCount: len(steps),
	}).Error(); err != nil {
		return nil, primary.NewValidationError("%s", err.Error())
	}

	started, err := canonical.JCS(map[string]any{"plan_id": record.ID, "step": req.Step})
	if err != nil {
		return nil, err
	}
	runID, err := s.runRepo.Create(ctx, "execute", statusRunning, string(started))
	if err != nil {
		return nil, fmt.Errorf("failed to record execute run: %w", err)
	}

	action := steps[req.Step-1]
	done, err := canonical.JCS(map[string]any{"plan_id": record.ID, "step": req.Step, "action": action})
	if err != nil {
		return nil, err
	}
	finished := string(done)
	if err := s.runRepo.Update(ctx, runID, statusSucceeded, &finished); err != nil {
		return nil, fmt.Errorf("failed to update execute run: %w", err)
	}

	return &primary.ExecuteStepResponse{
		RunID:        runID,
		PlanID:       record.ID,
		AssignmentID: record.AssignmentID,
		Step:         req.Step,
		Action:       action,
		Status:       statusSucceeded,
	}, nil
}

// Draft returns the placeholder draft for an assignment.
func (s *PlanServiceImpl) Draft(ctx context.Context, assignmentID int64) (string, error) {
	title, err := s.assignmentTitle(ctx, assignmentID)
	if err != nil {
		return "", err
	}
	return plan.PlaceholderDraft(title, s.modelKeyPresent()), nil
}

// assignmentTitle fetches the assignment name; an absent assignment yields "".
func (s *PlanServiceImpl) assignmentTitle(ctx context.Context, assignmentID int64) (string, error) {
	client, err := s.clients.Client(ctx)
	if err != nil {
		return "", err
	}
	a, err := client.GetAssignment(ctx, assignmentID)
	if err != nil {
		return "", err
	}
	if a == nil {
		return "", nil
	}
	return a.Name, nil
}

func (s *PlanServiceImpl) modelKeyPresent() bool {
	for _, name := range modelKeyEnv {
		if v, ok := s.lookup(name); ok && v != "" {
			return true
		}
	}
	return false
}

// Ensure PlanServiceImpl implements the interface
var _ primary.PlanService = (*PlanServiceImpl)(nil)
