package cli

import (
	"context"
	"errors"

	"github.com/example/canvasai/internal/core/org"
	"github.com/example/canvasai/internal/ports/primary"
	"github.com/example/canvasai/internal/ports/secondary"
)

var errNotStubbed = errors.New("not stubbed")

type mockWorkflowService struct {
	doFn    func(ctx context.Context, req primary.DoRequest) (*primary.DoResponse, error)
	lastReq primary.DoRequest
}

func (m *mockWorkflowService) Do(ctx context.Context, req primary.DoRequest) (*primary.DoResponse, error) {
	m.lastReq = req
	if m.doFn != nil {
		return m.doFn(ctx, req)
	}
	return nil, errNotStubbed
}

type mockReviewService struct {
	reviewFn func(ctx context.Context, assignmentID int64) (*primary.ReviewResponse, error)
	submitFn func(ctx context.Context, req primary.SubmitRequest) (*primary.SubmitResponse, error)
}

func (m *mockReviewService) Review(ctx context.Context, assignmentID int64) (*primary.ReviewResponse, error) {
	if m.reviewFn != nil {
		return m.reviewFn(ctx, assignmentID)
	}
	return nil, errNotStubbed
}

func (m *mockReviewService) Submit(ctx context.Context, req primary.SubmitRequest) (*primary.SubmitResponse, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, req)
	}
	return nil, errNotStubbed
}

type mockPlanService struct {
	createFn  func(ctx context.Context, assignmentID int64) (*primary.Plan, error)
	executeFn func(ctx context.Context, req primary.ExecuteStepRequest) (*primary.ExecuteStepResponse, error)
	draftFn   func(ctx context.Context, assignmentID int64) (string, error)
}

func (m *mockPlanService) CreatePlan(ctx context.Context, assignmentID int64) (*primary.Plan, error) {
	if m.createFn != nil {
		return m.createFn(ctx, assignmentID)
	}
	return nil, errNotStubbed
}

func (m *mockPlanService) ExecuteStep(ctx context.Context, req primary.ExecuteStepRequest) (*primary.ExecuteStepResponse, error) {
	if m.executeFn != nil {
		return m.executeFn(ctx, req)
	}
	return nil, errNotStubbed
}

func (m *mockPlanService) Draft(ctx context.Context, assignmentID int64) (string, error) {
	if m.draftFn != nil {
		return m.draftFn(ctx, assignmentID)
	}
	return "", errNotStubbed
}

type mockOrgService struct {
	probeFn      func(ctx context.Context) (*primary.ProbeResponse, error)
	setBrandFn   func(ctx context.Context, req primary.SetBrandingRequest) (string, error)
	lastBranding primary.SetBrandingRequest
}

func (m *mockOrgService) Info(ctx context.Context) (*org.Info, error) {
	resp, err := m.Probe(ctx)
	if err != nil {
		return nil, err
	}
	return &resp.Info, nil
}

func (m *mockOrgService) Probe(ctx context.Context) (*primary.ProbeResponse, error) {
	if m.probeFn != nil {
		return m.probeFn(ctx)
	}
	return nil, errNotStubbed
}

func (m *mockOrgService) SetBranding(ctx context.Context, req primary.SetBrandingRequest) (string, error) {
	m.lastBranding = req
	if m.setBrandFn != nil {
		return m.setBrandFn(ctx, req)
	}
	return "/cfg/config.json", nil
}

type mockFeedbackService struct {
	items []*primary.Feedback
}

func (m *mockFeedbackService) AddFeedback(ctx context.Context, req primary.AddFeedbackRequest) (int64, error) {
	if req.Text == "" {
		return 0, primary.NewValidationError("--text must not be empty.")
	}
	m.items = append(m.items, &primary.Feedback{ID: int64(len(m.items) + 1), FeedbackText: req.Text})
	return int64(len(m.items)), nil
}

func (m *mockFeedbackService) ListFeedback(ctx context.Context, filters primary.FeedbackFilters) ([]*primary.Feedback, error) {
	return append([]*primary.Feedback{}, m.items...), nil
}

type mockRunService struct {
	runs    map[string]*primary.Run
	actions [][2]string
	metrics *primary.MetricsSummary
}

func (m *mockRunService) GetRun(ctx context.Context, runID string) (*primary.Run, error) {
	r, ok := m.runs[runID]
	if !ok {
		return nil, primary.NewNotFoundError("Run not found: %s", runID)
	}
	return r, nil
}

func (m *mockRunService) TailRuns(ctx context.Context, limit int) ([]*primary.Run, error) {
	if limit < 1 || limit > 200 {
		return nil, primary.NewValidationError("--limit must be between 1 and 200.")
	}
	out := []*primary.Run{}
	for _, r := range m.runs {
		out = append(out, r)
	}
	return out, nil
}

func (m *mockRunService) Metrics(ctx context.Context) (*primary.MetricsSummary, error) {
	if m.metrics == nil {
		return nil, errNotStubbed
	}
	return m.metrics, nil
}

func (m *mockRunService) RecordAction(ctx context.Context, command, payload string) error {
	m.actions = append(m.actions, [2]string{command, payload})
	return nil
}

type mockCourseService struct {
	courses    []secondary.Course
	due        []secondary.Assignment
	assignment *secondary.Assignment
	err        error
}

func (m *mockCourseService) ListCourses(ctx context.Context) ([]secondary.Course, error) {
	return m.courses, m.err
}

func (m *mockCourseService) ListAssignmentsDue(ctx context.Context, days int) ([]secondary.Assignment, error) {
	return m.due, m.err
}

func (m *mockCourseService) GetAssignment(ctx context.Context, assignmentID int64) (*secondary.Assignment, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.assignment == nil {
		return nil, primary.NewNotFoundError("Assignment not found.")
	}
	return m.assignment, nil
}

type mockSettingsService struct {
	status  primary.AuthStatus
	lastReq primary.InitRequest
}

func (m *mockSettingsService) Init(ctx context.Context, req primary.InitRequest) (*primary.InitResponse, error) {
	m.lastReq = req
	resp := &primary.InitResponse{ConfigPath: "/cfg/config.json", Templates: []string{}}
	if req.WriteTemplates {
		resp.Templates = append(resp.Templates, "/cfg/policy.json")
	}
	return resp, nil
}

func (m *mockSettingsService) Login(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", primary.NewValidationError("Token must not be empty.")
	}
	return "/cfg/config.json", nil
}

func (m *mockSettingsService) Status(ctx context.Context) (*primary.AuthStatus, error) {
	st := m.status
	return &st, nil
}

func (m *mockSettingsService) SetMode(ctx context.Context, mode string) (string, error) {
	if mode != "token" && mode != "oauth_placeholder" {
		return "", primary.NewValidationError("Mode must be token or oauth_placeholder")
	}
	return "/cfg/config.json", nil
}

// fixture wires Handlers over fresh mocks.
type fixture struct {
	handlers *Handlers
	workflow *mockWorkflowService
	review   *mockReviewService
	plans    *mockPlanService
	org      *mockOrgService
	feedback *mockFeedbackService
	runs     *mockRunService
	courses  *mockCourseService
	settings *mockSettingsService
}

func newFixture() *fixture {
	f := &fixture{
		workflow: &mockWorkflowService{},
		review:   &mockReviewService{},
		plans:    &mockPlanService{},
		org:      &mockOrgService{},
		feedback: &mockFeedbackService{},
		runs:     &mockRunService{runs: map[string]*primary.Run{}},
		courses:  &mockCourseService{},
		settings: &mockSettingsService{},
	}
	f.handlers = NewHandlers(Services{
		Workflow: f.workflow,
		Review:   f.review,
		Plans:    f.plans,
		Org:      f.org,
		Feedback: f.feedback,
		Runs:     f.runs,
		Courses:  f.courses,
		Settings: f.settings,
	}, discardLogger())
	return f
}
