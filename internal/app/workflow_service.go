package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/example/canvasai/internal/core/policy"
	"github.com/example/canvasai/internal/core/rubric"
	"github.com/example/canvasai/internal/core/workflow"
	"github.com/example/canvasai/internal/ports/primary"
	"github.com/example/canvasai/internal/ports/secondary"
)

const (
	doCommand     = "do"
	reviewNote    = "Deterministic MVP scorer; verify against official rubric before submission."
	readySummary  = "Workflow already completed."
	doneSummary   = "Workflow complete."
	modeMustParse = "Mode must be one of: tutor, outline, draft, polish."
)

// WorkflowServiceImpl implements the WorkflowService interface.
type WorkflowServiceImpl struct {
	runRepo      secondary.RunRepository
	feedbackRepo secondary.FeedbackRepository
	clients      secondary.ClientProvider
	policies     secondary.PolicyStore
	executor     EffectExecutor
	artifactsDir string
	now          func() time.Time
	logger       *slog.Logger
}

// NewWorkflowService creates a new WorkflowService with injected dependencies.
func NewWorkflowService(
	runRepo secondary.RunRepository,
	feedbackRepo secondary.FeedbackRepository,
	clients secondary.ClientProvider,
	policies secondary.PolicyStore,
	executor EffectExecutor,
	artifactsDir string,
	now func() time.Time,
	logger *slog.Logger,
) *WorkflowServiceImpl {
	return &WorkflowServiceImpl{
		runRepo:      runRepo,
		feedbackRepo: feedbackRepo,
		clients:      clients,
		policies:     policies,
		executor:     executor,
		artifactsDir: artifactsDir,
		now:          now,
		logger:       logger,
	}
}

// stageInput is everything a stage reads besides the metadata itself.
type stageInput struct {
	runID       string
	assignment  *secondary.Assignment
	goal        string
	polishInput string
}

// Do starts or resumes a workflow run and advances it to ready.
func (s *WorkflowServiceImpl) Do(ctx context.Context, req primary.DoRequest) (*primary.DoResponse, error) {
	mode, err := workflow.ParseMode(req.Mode)
	if err != nil {
		return nil, primary.NewValidationError(modeMustParse)
	}

	runID, meta, err := s.loadOrCreate(ctx, req, mode)
	if err != nil {
		return nil, err
	}

	if meta.State.IsTerminal() {
		summary := meta.Summary
		if summary == "" {
			summary = readySummary
		}
		return &primary.DoResponse{
			RunID:        runID,
			State:        meta.State,
			Mode:         string(mode),
			Goal:         meta.Goal,
			Artifacts:    meta.Artifacts,
			Summary:      summary,
			AlreadyReady: true,
		}, nil
	}

	client, err := s.clients.Client(ctx)
	if err != nil {
		return nil, err
	}
	assignment, err := client.GetAssignment(ctx, req.AssignmentID)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, primary.NewNotFoundError("Assignment not found.")
	}

	doc, err := s.policies.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}
	if err := policy.CanDo(doc.ForCourse(assignment.CourseID), string(mode)).Error(); err != nil {
		return nil, primary.NewPolicyError(err.Error())
	}

	in := stageInput{
		runID:       runID,
		assignment:  assignment,
		goal:        req.Goal,
		polishInput: req.PolishInput,
	}
	if in.goal == "" {
		in.goal = meta.Goal
	}

	for _, state := range meta.State.Remaining() {
		if err := meta.Advance(state, s.now()); err != nil {
			return nil, err
		}
		if err := s.runStage(ctx, &meta, state, in); err != nil {
			return nil, err
		}
		encoded, err := meta.Encode()
		if err != nil {
			return nil, err
		}
		if err := s.runRepo.Update(ctx, runID, string(state), &encoded); err != nil {
			return nil, fmt.Errorf("failed to persist %s stage: %w", state, err)
		}
		s.logger.Info("workflow stage complete", "run_id", runID, "state", string(state))
	}

	summary := meta.Summary
	if summary == "" {
		summary = doneSummary
	}
	return &primary.DoResponse{
		RunID:     runID,
		State:     meta.State,
		Mode:      string(mode),
		Goal:      in.goal,
		Artifacts: meta.Artifacts,
		Summary:   summary,
	}, nil
}

// loadOrCreate returns the run to advance: the resumed run when requested,
// else a fresh run persisted in the initial state.
func (s *WorkflowServiceImpl) loadOrCreate(ctx context.Context, req primary.DoRequest, mode workflow.Mode) (string, workflow.Metadata, error) {
	if req.ResumeRunID == "" {
		meta := workflow.NewMetadata(req.AssignmentID, mode, req.Goal, s.now())
		encoded, err := meta.Encode()
		if err != nil {
			return "", workflow.Metadata{}, err
		}
		runID, err := s.runRepo.Create(ctx, doCommand, string(meta.State), encoded)
		if err != nil {
			return "", workflow.Metadata{}, fmt.Errorf("failed to create run: %w", err)
		}
		s.logger.Info("workflow run created", "run_id", runID, "assignment_id", req.AssignmentID, "mode", string(mode))
		return runID, meta, nil
	}

	record, err := s.runRepo.GetByID(ctx, req.ResumeRunID)
	if errors.Is(err, secondary.ErrNotFound) || (err == nil && record.Command != doCommand) {
		return "", workflow.Metadata{}, primary.NewNotFoundError("Workflow run not found: %s", req.ResumeRunID)
	}
	if err != nil {
		return "", workflow.Metadata{}, fmt.Errorf("failed to load run: %w", err)
	}

	meta, err := workflow.DecodeMetadata(record.MetadataJSON, record.Status)
	if err != nil {
		return "", workflow.Metadata{}, primary.NewValidationError("Workflow run %s has unreadable metadata: %v", record.ID, err)
	}
	if err := workflow.CanResume(workflow.ResumeContext{
		RunAssignmentID:       meta.AssignmentID,
		RequestedAssignmentID: req.AssignmentID,
		RunMode:               meta.Mode,
		RequestedMode:         mode,
	}).Error(); err != nil {
		return "", workflow.Metadata{}, primary.NewValidationError("%s", err.Error())
	}
	if meta.Mode == "" {
		meta.Mode = mode
	}
	s.logger.Info("workflow run resumed", "run_id", record.ID, "state", string(meta.State))
	return record.ID, meta, nil
}

func (s *WorkflowServiceImpl) runStage(ctx context.Context, meta *workflow.Metadata, state workflow.State, in stageInput) error {
	a := in.assignment
	switch state {
	case workflow.StatePlanning:
		hints, err := s.feedbackHints(ctx, a)
		if err != nil {
			return err
		}
		out := workflow.GenerateModeOutput(workflow.ModeInput{
			Mode:        meta.Mode,
			Title:       a.Name,
			Description: a.Description,
			PolishInput: in.polishInput,
			Goal:        in.goal,
			Hints:       hints,
		})
		meta.Draft = out.Draft
		meta.Summary = out.Summary
		meta.FeedbackHintsUsed = hints
		meta.Plan = &workflow.Plan{ScheduleBlocks: workflow.DeriveSchedule(a.DueAt)}

	case workflow.StateDrafting:
		sources := workflow.BuildSources(a.Name, meta.Draft, s.now())
		meta.Sources = &sources
		meta.Draft = workflow.InjectCitations(meta.Draft, sources)

	case workflow.StateReviewing:
		improved, summary, rows := rubric.Optimize(rubricItems(a.Rubric), meta.Draft, rubric.DefaultMaxPasses)
		meta.Draft = improved
		meta.Review = &workflow.Review{
			RubricScores: rows,
			Optimization: summary,
			Notes:        reviewNote,
			Goal:         in.goal,
		}
		meta.Evidence = &workflow.Evidence{
			AssignmentID:   meta.AssignmentID,
			AssignmentName: a.Name,
			Mode:           meta.Mode,
			Goal:           in.goal,
			GeneratedAt:    workflow.FormatTimestamp(s.now()),
		}

	case workflow.StateReady:
		plan, err := workflow.GenerateArtifactPlan(workflow.ArtifactPlanInput{
			RunID:    in.runID,
			Dir:      filepath.Join(s.artifactsDir, in.runID),
			Metadata: *meta,
		})
		if err != nil {
			return err
		}
		if err := s.executor.Execute(ctx, plan.Effects()); err != nil {
			return fmt.Errorf("failed to write artifacts: %w", err)
		}
		paths := plan.Paths
		meta.Artifacts = &paths
	}
	return nil
}

// feedbackHints returns up to MaxFeedbackHints entries for the assignment,
// falling back to course-wide feedback when nothing matches the assignment.
func (s *WorkflowServiceImpl) feedbackHints(ctx context.Context, a *secondary.Assignment) ([]string, error) {
	assignmentID := a.ID
	records, err := s.feedbackRepo.List(ctx, secondary.FeedbackFilters{CourseID: a.CourseID, AssignmentID: &assignmentID})
	if err != nil {
		return nil, fmt.Errorf("failed to load feedback: %w", err)
	}
	if len(records) == 0 && a.CourseID != nil {
		records, err = s.feedbackRepo.List(ctx, secondary.FeedbackFilters{CourseID: a.CourseID})
		if err != nil {
			return nil, fmt.Errorf("failed to load feedback: %w", err)
		}
	}

	var hints []string
	for _, r := range records {
		if len(hints) == workflow.MaxFeedbackHints {
			break
		}
		hints = append(hints, r.FeedbackText)
	}
	return hints, nil
}

func rubricItems(in []secondary.RubricItem) []rubric.Item {
	out := make([]rubric.Item, 0, len(in))
	for _, r := range in {
		out = append(out, rubric.Item{
			Description:     r.Description,
			Criterion:       r.Criterion,
			LongDescription: r.LongDescription,
		})
	}
	return out
}

// Ensure WorkflowServiceImpl implements the interface
var _ primary.WorkflowService = (*WorkflowServiceImpl)(nil)
