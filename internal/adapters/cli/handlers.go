package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/example/canvasai/internal/core/org"
	"github.com/example/canvasai/internal/ports/primary"
	"github.com/example/canvasai/internal/version"
)

// Command names as they appear in envelopes.
const (
	CmdInit                 = "init"
	CmdAuthLogin            = "auth.login"
	CmdAuthStatus           = "auth.status"
	CmdAuthSetMode          = "auth.set-mode"
	CmdOrgInfo              = "org.info"
	CmdOrgSet               = "org.set"
	CmdOrgProbe             = "org.probe"
	CmdCoursesList          = "courses.list"
	CmdAssignmentsDue       = "assignments.due"
	CmdAssignmentShow       = "assignment.show"
	CmdDraft                = "draft"
	CmdDo                   = "do"
	CmdPlan                 = "plan"
	CmdExecute              = "execute"
	CmdReview               = "review"
	CmdSubmit               = "submit"
	CmdRunsShow             = "runs.show"
	CmdRunsTail             = "runs.tail"
	CmdFeedbackAdd          = "feedback.add"
	CmdFeedbackList         = "feedback.list"
	CmdMetricsSummary       = "metrics.summary"
	CmdAgentCapabilities    = "agent.capabilities"
	CmdAgentFeatureContract = "agent.feature-contract"
	CmdVersion              = "version"
)

// Services bundles the primary ports the handlers call.
type Services struct {
	Workflow primary.WorkflowService
	Review   primary.ReviewService
	Plans    primary.PlanService
	Org      primary.OrgService
	Feedback primary.FeedbackService
	Runs     primary.RunService
	Courses  primary.CourseService
	Settings primary.SettingsService
}

// Handlers implements every command as a function returning an envelope.
// The cobra commands and the MCP bridge both call these.
type Handlers struct {
	svc    Services
	logger *slog.Logger
}

// NewHandlers creates Handlers over the given services.
func NewHandlers(svc Services, logger *slog.Logger) *Handlers {
	return &Handlers{svc: svc, logger: logger}
}

// fail builds the error envelope and records its code in the action log.
func (h *Handlers) fail(ctx context.Context, command string, err error) Envelope {
	env := Fail(command, err)
	if env.Error.Code == string(primary.CodeInternal) {
		h.logger.Error("command failed", "command", command, "error", err)
	} else {
		h.logger.Info("command refused", "command", command, "code", env.Error.Code)
	}
	h.record(ctx, "error", env.Error.Code)
	return env
}

func (h *Handlers) record(ctx context.Context, command, payload string) {
	if err := h.svc.Runs.RecordAction(ctx, command, payload); err != nil {
		h.logger.Warn("failed to record action", "command", command, "error", err)
	}
}

// Init writes config and, optionally, the policy template.
func (h *Handlers) Init(ctx context.Context, req primary.InitRequest) Envelope {
	resp, err := h.svc.Settings.Init(ctx, req)
	if err != nil {
		return h.fail(ctx, CmdInit, err)
	}
	lines := []Line{success("Initialized config at %s", resp.ConfigPath)}
	for _, t := range resp.Templates {
		lines = append(lines, plain("Template: %s", t))
	}
	return Succeed(CmdInit, map[string]any{"config_path": resp.ConfigPath, "templates": resp.Templates}, lines...)
}

// AuthLogin stores an API token.
func (h *Handlers) AuthLogin(ctx context.Context, token string) Envelope {
	path, err := h.svc.Settings.Login(ctx, token)
	if err != nil {
		return h.fail(ctx, CmdAuthLogin, err)
	}
	h.record(ctx, "auth login", "token_saved")
	return Succeed(CmdAuthLogin, map[string]any{"config_path": path}, success("Canvas token saved to %s", path))
}

// AuthStatus reports the effective auth settings.
func (h *Handlers) AuthStatus(ctx context.Context) Envelope {
	st, err := h.svc.Settings.Status(ctx)
	if err != nil {
		return h.fail(ctx, CmdAuthStatus, err)
	}
	return Succeed(CmdAuthStatus, st,
		emphasis("Auth mode: %s", st.AuthMode),
		plain("Canvas base URL: %s", st.BaseURL),
		plain("Token: %s", st.Token),
	)
}

// AuthSetMode stores the auth mode.
func (h *Handlers) AuthSetMode(ctx context.Context, mode string) Envelope {
	path, err := h.svc.Settings.SetMode(ctx, mode)
	if err != nil {
		return h.fail(ctx, CmdAuthSetMode, err)
	}
	h.record(ctx, "auth set-mode", mode)
	return Succeed(CmdAuthSetMode, map[string]any{"mode": mode, "config_path": path},
		emphasis("Auth mode set to %s (%s)", mode, path))
}

// OrgInfo resolves school branding.
func (h *Handlers) OrgInfo(ctx context.Context) Envelope {
	info, err := h.svc.Org.Info(ctx)
	if err != nil {
		return h.fail(ctx, CmdOrgInfo, err)
	}
	return Succeed(CmdOrgInfo,
		map[string]any{"school_name": nullable(info.SchoolName), "logo_url": nullable(info.LogoURL), "source": info.Source},
		plain("School name: %s", orDefault(info.SchoolName, "Unknown (fallback used)")),
		plain("Logo URL: %s", orDefault(info.LogoURL, "Unavailable")),
		plain("Source: %s", info.Source),
	)
}

// OrgSet stores branding overrides.
func (h *Handlers) OrgSet(ctx context.Context, req primary.SetBrandingRequest) Envelope {
	path, err := h.svc.Org.SetBranding(ctx, req)
	if err != nil {
		return h.fail(ctx, CmdOrgSet, err)
	}
	h.record(ctx, "org set", fmt.Sprintf("school_name=%t,logo_url=%t", nonEmpty(req.SchoolName), nonEmpty(req.LogoURL)))
	return Succeed(CmdOrgSet, map[string]any{"config_path": path}, success("Branding overrides saved to %s", path))
}

// OrgProbe resolves branding and reports every attempt.
func (h *Handlers) OrgProbe(ctx context.Context, verbose bool) Envelope {
	resp, err := h.svc.Org.Probe(ctx)
	if err != nil {
		return h.fail(ctx, CmdOrgProbe, err)
	}
	info, report := resp.Info, resp.Report
	lines := []Line{
		plain("Source order: %s", strings.Join(report.SourceOrder, " > ")),
		emphasis("Winner: %s", report.WinnerSource),
		plain("Reason: %s", report.WinnerReason),
		plain("School name: %s", orDefault(info.SchoolName, "Unknown (fallback used)")),
		plain("Logo URL: %s", orDefault(info.LogoURL, "Unavailable")),
	}
	if verbose {
		lines = append(lines, plain("Attempt details:"))
		for _, a := range report.Attempts {
			lines = append(lines, plain("- %s: %s (%s) - %s", a.Endpoint, a.Outcome, neededLabel(a), a.Detail))
		}
	}
	return Succeed(CmdOrgProbe, map[string]any{
		"winner":       report.WinnerSource,
		"reason":       report.WinnerReason,
		"school_name":  nullable(info.SchoolName),
		"logo_url":     nullable(info.LogoURL),
		"source_order": report.SourceOrder,
		"attempts":     report.Attempts,
	}, lines...)
}

// CoursesList lists active courses.
func (h *Handlers) CoursesList(ctx context.Context) Envelope {
	courses, err := h.svc.Courses.ListCourses(ctx)
	if err != nil {
		return h.fail(ctx, CmdCoursesList, err)
	}
	h.record(ctx, "courses list", fmt.Sprintf("count=%d", len(courses)))

	lines := []Line{plain("No courses found.")}
	if len(courses) > 0 {
		lines = lines[:0]
		for _, c := range courses {
			lines = append(lines, plain("- %d: %s", c.ID, orDefault(c.Name, "Unnamed course")))
		}
	}
	return Succeed(CmdCoursesList, map[string]any{"courses": nonNil(courses)}, lines...)
}

// AssignmentsDue lists upcoming assignments.
func (h *Handlers) AssignmentsDue(ctx context.Context, days int) Envelope {
	items, err := h.svc.Courses.ListAssignmentsDue(ctx, days)
	if err != nil {
		return h.fail(ctx, CmdAssignmentsDue, err)
	}
	h.record(ctx, "assignments due", fmt.Sprintf("days=%d,count=%d", days, len(items)))

	lines := []Line{plain("No upcoming assignments found.")}
	if len(items) > 0 {
		lines = lines[:0]
		for _, a := range items {
			lines = append(lines, plain("- %d: %s (due: %s)", a.ID, orDefault(a.Name, "Untitled"), orDefault(a.DueAt, "none")))
		}
	}
	return Succeed(CmdAssignmentsDue, map[string]any{"days": days, "assignments": nonNil(items)}, lines...)
}

// AssignmentShow shows one assignment.
func (h *Handlers) AssignmentShow(ctx context.Context, assignmentID int64) Envelope {
	a, err := h.svc.Courses.GetAssignment(ctx, assignmentID)
	if err != nil {
		return h.fail(ctx, CmdAssignmentShow, err)
	}
	h.record(ctx, "assignment show", fmt.Sprintf("id=%d", assignmentID))
	return Succeed(CmdAssignmentShow, map[string]any{"assignment": a},
		emphasis("%s", orDefault(a.Name, "Untitled")),
		plain("ID: %d", a.ID),
		plain("Due: %s", orDefault(a.DueAt, "none")),
		plain("Description: %s", orDefault(a.Description, "(none)")),
	)
}

// Draft returns placeholder draft text.
func (h *Handlers) Draft(ctx context.Context, assignmentID int64) Envelope {
	text, err := h.svc.Plans.Draft(ctx, assignmentID)
	if err != nil {
		return h.fail(ctx, CmdDraft, err)
	}
	h.record(ctx, "draft", fmt.Sprintf("id=%d", assignmentID))
	return Succeed(CmdDraft, map[string]any{"assignment_id": assignmentID, "draft": text}, plain("%s", text))
}

// DoParams are the arguments of the do command.
type DoParams struct {
	AssignmentID int64
	Mode         string
	Goal         string
	Resume       string
	InputFile    string // optional base text for polish mode
}

// Do runs or resumes the assignment workflow.
func (h *Handlers) Do(ctx context.Context, p DoParams) Envelope {
	req := primary.DoRequest{AssignmentID: p.AssignmentID, Mode: p.Mode, Goal: p.Goal, ResumeRunID: p.Resume}
	if p.InputFile != "" {
		data, err := os.ReadFile(p.InputFile)
		if err != nil {
			return h.fail(ctx, CmdDo, primary.NewValidationError("Input file not found or not readable: %s", p.InputFile))
		}
		req.PolishInput = string(data)
	}

	resp, err := h.svc.Workflow.Do(ctx, req)
	if err != nil {
		return h.fail(ctx, CmdDo, err)
	}

	var artifacts any = map[string]any{}
	if resp.Artifacts != nil {
		artifacts = resp.Artifacts
	}
	result := map[string]any{
		"run_id":    resp.RunID,
		"state":     resp.State.String(),
		"mode":      resp.Mode,
		"goal":      nullable(resp.Goal),
		"artifacts": artifacts,
		"summary":   resp.Summary,
	}
	if resp.AlreadyReady {
		return Succeed(CmdDo, result, plain("Workflow already ready. run_id=%s", resp.RunID))
	}

	h.record(ctx, "do", fmt.Sprintf("id=%d,mode=%s,run_id=%s,resume=%t", p.AssignmentID, resp.Mode, resp.RunID, p.Resume != ""))
	return Succeed(CmdDo, result,
		success("Workflow complete: run_id=%s", resp.RunID),
		plain("Artifacts written for human review. No auto-submit performed."),
	)
}

// Plan generates and stores a step plan.
func (h *Handlers) Plan(ctx context.Context, assignmentID int64) Envelope {
	p, err := h.svc.Plans.CreatePlan(ctx, assignmentID)
	if err != nil {
		return h.fail(ctx, CmdPlan, err)
	}
	h.record(ctx, "plan", fmt.Sprintf("id=%d,plan_id=%s", assignmentID, p.ID))

	lines := make([]Line, 0, len(p.Steps))
	for _, s := range p.Steps {
		lines = append(lines, plain("%d. %s", s.Step, s.Instruction))
	}
	return Succeed(CmdPlan, map[string]any{"plan": p}, lines...)
}

// Execute records the execution of one plan step.
func (h *Handlers) Execute(ctx context.Context, planID string, step int) Envelope {
	resp, err := h.svc.Plans.ExecuteStep(ctx, primary.ExecuteStepRequest{PlanID: planID, Step: step})
	if err != nil {
		return h.fail(ctx, CmdExecute, err)
	}
	return Succeed(CmdExecute, map[string]any{
		"run_id":        resp.RunID,
		"plan_id":       resp.PlanID,
		"assignment_id": resp.AssignmentID,
		"step":          resp.Step,
		"action":        resp.Action,
		"status":        resp.Status,
	}, plain("Executed step %d: %s", resp.Step, resp.Action))
}

// Review issues a confirm token.
func (h *Handlers) Review(ctx context.Context, assignmentID int64) Envelope {
	resp, err := h.svc.Review.Review(ctx, assignmentID)
	if err != nil {
		return h.fail(ctx, CmdReview, err)
	}
	return Succeed(CmdReview, map[string]any{
		"run_id":        resp.RunID,
		"assignment_id": resp.AssignmentID,
		"confirm_token": resp.ConfirmToken,
		"expires_at":    resp.ExpiresAt,
	},
		plain("Review complete for assignment %d.", resp.AssignmentID),
		emphasis("Confirm token (short-lived): %s", resp.ConfirmToken),
	)
}

// Submit runs the gated submission.
func (h *Handlers) Submit(ctx context.Context, req primary.SubmitRequest) Envelope {
	resp, err := h.svc.Review.Submit(ctx, req)
	if err != nil {
		return h.fail(ctx, CmdSubmit, err)
	}

	result := make(map[string]any, len(resp.Result)+1)
	for k, v := range resp.Result {
		result[k] = v
	}
	result["replayed"] = resp.Replayed
	if resp.Replayed {
		return Succeed(CmdSubmit, result, plain("Idempotency replay: returning previous submission result."))
	}

	h.record(ctx, "submit", fmt.Sprintf("id=%d,file=%s,idempotency_key=%s,dry_run=%t", req.AssignmentID, req.FilePath, resp.IdempotencyKey, req.DryRun))
	return Succeed(CmdSubmit, result, success("Submission result: %s", resp.ResultJSON))
}

// RunsShow shows one run with its decoded metadata.
func (h *Handlers) RunsShow(ctx context.Context, runID string) Envelope {
	run, err := h.svc.Runs.GetRun(ctx, runID)
	if err != nil {
		return h.fail(ctx, CmdRunsShow, err)
	}
	return Succeed(CmdRunsShow, map[string]any{"run": run}, plain("Run %s: %s (%s)", run.ID, run.Status, run.Command))
}

// RunsTail lists the most recently updated runs.
func (h *Handlers) RunsTail(ctx context.Context, limit int) Envelope {
	runs, err := h.svc.Runs.TailRuns(ctx, limit)
	if err != nil {
		return h.fail(ctx, CmdRunsTail, err)
	}
	lines := []Line{plain("No runs found.")}
	if len(runs) > 0 {
		lines = lines[:0]
		for _, r := range runs {
			lines = append(lines, plain("%s %s %s", r.ID, r.Status, r.Command))
		}
	}
	return Succeed(CmdRunsTail, map[string]any{"runs": runs}, lines...)
}

// FeedbackAdd stores instructor feedback.
func (h *Handlers) FeedbackAdd(ctx context.Context, req primary.AddFeedbackRequest) Envelope {
	id, err := h.svc.Feedback.AddFeedback(ctx, req)
	if err != nil {
		return h.fail(ctx, CmdFeedbackAdd, err)
	}
	return Succeed(CmdFeedbackAdd, map[string]any{"id": id}, success("Saved feedback #%d", id))
}

// FeedbackList lists stored feedback.
func (h *Handlers) FeedbackList(ctx context.Context, filters primary.FeedbackFilters) Envelope {
	items, err := h.svc.Feedback.ListFeedback(ctx, filters)
	if err != nil {
		return h.fail(ctx, CmdFeedbackList, err)
	}
	lines := []Line{plain("No feedback found.")}
	if len(items) > 0 {
		lines = lines[:0]
		for _, f := range items {
			lines = append(lines, plain("#%d %s", f.ID, f.FeedbackText))
		}
	}
	return Succeed(CmdFeedbackList, map[string]any{"feedback": items}, lines...)
}

// MetricsSummary summarizes run outcomes.
func (h *Handlers) MetricsSummary(ctx context.Context) Envelope {
	m, err := h.svc.Runs.Metrics(ctx)
	if err != nil {
		return h.fail(ctx, CmdMetricsSummary, err)
	}
	return Succeed(CmdMetricsSummary, m,
		plain("Total runs: %d", m.TotalRuns),
		plain("Success: %d Failed: %d", m.SuccessRuns, m.FailedRuns),
	)
}

// Capability describes the risk profile of one command.
type Capability struct {
	Name                 string   `json:"name"`
	Risk                 string   `json:"risk"`
	ConfirmationRequired bool     `json:"confirmation_required"`
	Permissions          []string `json:"permissions"`
}

// Capabilities is the fixed risk table for agent callers.
var Capabilities = []Capability{
	{Name: CmdPlan, Risk: "low", Permissions: []string{"canvas:read"}},
	{Name: CmdExecute, Risk: "medium", Permissions: []string{"local:state"}},
	{Name: CmdReview, Risk: "medium", Permissions: []string{"canvas:read", "local:state"}},
	{Name: CmdDo, Risk: "medium", Permissions: []string{"canvas:read", "local:state", "local:artifacts"}},
	{Name: CmdSubmit, Risk: "high", ConfirmationRequired: true, Permissions: []string{"canvas:write", "local:state"}},
	{Name: CmdRunsShow, Risk: "low", Permissions: []string{"local:state"}},
	{Name: CmdRunsTail, Risk: "low", Permissions: []string{"local:state"}},
}

// AgentCapabilities returns the risk table.
func (h *Handlers) AgentCapabilities(ctx context.Context) Envelope {
	return Succeed(CmdAgentCapabilities, map[string]any{"commands": Capabilities},
		plain("Use --json for machine-readable capabilities."))
}

// AgentFeatureContract returns the feature synchronization contract.
func (h *Handlers) AgentFeatureContract(ctx context.Context) Envelope {
	return Succeed(CmdAgentFeatureContract, map[string]any{
		"policy":                   "feature_sync_required",
		"feature_contract_version": FeatureContractVersion,
		"schema_version":           SchemaVersion,
		"requirements": []string{
			"Every feature change must update CLI behavior and/or command surface.",
			"Every feature change must update MCP server tool surface or mapping.",
			"Every feature change must update docs (command reference + relevant guides).",
			"Feature PRs should include verification evidence for CLI + MCP + docs coherence.",
		},
	},
		emphasis("Feature contract:"),
		plain("- Update CLI"),
		plain("- Update MCP"),
		plain("- Update docs"),
		plain("- Include verification evidence"),
	)
}

// VersionInfo is the build and contract metadata.
func VersionInfo() map[string]any {
	return map[string]any{
		"cli_version":              version.Version,
		"commit":                   version.ShortCommit(),
		"build_time":               version.BuildTime,
		"schema_version":           SchemaVersion,
		"feature_contract_version": FeatureContractVersion,
	}
}

// VersionEnvelope reports build info. It needs no services.
func VersionEnvelope() Envelope {
	return Succeed(CmdVersion, VersionInfo(), plain("%s", version.String()))
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func neededLabel(a org.Attempt) string {
	if a.Needed {
		return "needed"
	}
	return "not-needed"
}
