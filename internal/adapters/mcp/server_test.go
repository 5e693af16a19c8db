package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/canvasai/internal/adapters/cli"
	"github.com/example/canvasai/internal/core/org"
	"github.com/example/canvasai/internal/core/workflow"
	"github.com/example/canvasai/internal/logging"
	"github.com/example/canvasai/internal/ports/primary"
)

type stubRuns struct {
	runs    []*primary.Run
	actions []string
}

func (s *stubRuns) GetRun(ctx context.Context, runID string) (*primary.Run, error) {
	for _, r := range s.runs {
		if r.ID == runID {
			return r, nil
		}
	}
	return nil, primary.NewNotFoundError("Run not found: %s", runID)
}

func (s *stubRuns) TailRuns(ctx context.Context, limit int) ([]*primary.Run, error) {
	if len(s.runs) > limit {
		return s.runs[:limit], nil
	}
	return s.runs, nil
}

func (s *stubRuns) Metrics(ctx context.Context) (*primary.MetricsSummary, error) {
	return &primary.MetricsSummary{ByCommand: map[string]*primary.CommandCounts{}, CommonErrorCodes: []primary.ErrorCodeCount{}}, nil
}

func (s *stubRuns) RecordAction(ctx context.Context, command, payload string) error {
	s.actions = append(s.actions, command)
	return nil
}

type stubReview struct {
	submitted *primary.SubmitRequest
	review    *primary.ReviewResponse
}

func (s *stubReview) Review(ctx context.Context, assignmentID int64) (*primary.ReviewResponse, error) {
	if s.review == nil {
		return nil, primary.NewNotFoundError("Assignment %d not found", assignmentID)
	}
	return s.review, nil
}

func (s *stubReview) Submit(ctx context.Context, req primary.SubmitRequest) (*primary.SubmitResponse, error) {
	s.submitted = &req
	result := map[string]any{"assignment_id": req.AssignmentID, "file": req.FilePath, "status": "dry_run", "run_id": "r1"}
	data, _ := json.Marshal(result)
	return &primary.SubmitResponse{ResultJSON: data, Result: result, IdempotencyKey: "k"}, nil
}

type stubWorkflow struct {
	requests []primary.DoRequest
}

func (s *stubWorkflow) Do(ctx context.Context, req primary.DoRequest) (*primary.DoResponse, error) {
	s.requests = append(s.requests, req)
	return &primary.DoResponse{RunID: "d1", State: workflow.StateReady, Mode: req.Mode, Summary: "done"}, nil
}

type stubOrg struct {
	setCalls int
}

func (s *stubOrg) Info(ctx context.Context) (*org.Info, error) {
	return &org.Info{SchoolName: "North Ridge", Source: org.SourceDomainGuess}, nil
}

func (s *stubOrg) Probe(ctx context.Context) (*primary.ProbeResponse, error) {
	return nil, errors.New("not stubbed")
}

func (s *stubOrg) SetBranding(ctx context.Context, req primary.SetBrandingRequest) (string, error) {
	s.setCalls++
	return "/tmp/config.json", nil
}

type fixture struct {
	server   *Server
	runs     *stubRuns
	review   *stubReview
	org      *stubOrg
	workflow *stubWorkflow
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{runs: &stubRuns{}, review: &stubReview{}, org: &stubOrg{}, workflow: &stubWorkflow{}}
	handlers := cli.NewHandlers(cli.Services{Runs: f.runs, Review: f.review, Org: f.org, Workflow: f.workflow}, logging.Discard())
	s, err := NewServer(handlers, f.runs, logging.Discard())
	require.NoError(t, err)
	f.server = s
	return f
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func envelopeOf(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &env))
	return env
}

func errorCode(env map[string]any) string {
	body, _ := env["error"].(map[string]any)
	code, _ := body["code"].(string)
	return code
}

func TestNewValidator_EveryCommandHasSchema(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	commands := []string{
		cli.CmdInit, cli.CmdAuthLogin, cli.CmdAuthStatus, cli.CmdAuthSetMode,
		cli.CmdOrgInfo, cli.CmdOrgSet, cli.CmdOrgProbe, cli.CmdCoursesList,
		cli.CmdAssignmentsDue, cli.CmdAssignmentShow, cli.CmdDraft, cli.CmdDo,
		cli.CmdPlan, cli.CmdExecute, cli.CmdReview, cli.CmdSubmit,
		cli.CmdRunsShow, cli.CmdRunsTail, cli.CmdFeedbackAdd, cli.CmdFeedbackList,
		cli.CmdMetricsSummary, cli.CmdAgentCapabilities, cli.CmdAgentFeatureContract, cli.CmdVersion,
	}
	for _, c := range commands {
		assert.Contains(t, v.schemas, c)
	}
}

func TestValidator_ErrorEnvelopesPass(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	env := cli.Fail(cli.CmdReview, primary.NewNotFoundError("Assignment 9 not found"))
	assert.NoError(t, v.Validate(env))
}

func TestValidator_RejectsMalformedResult(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	tests := []struct {
		name string
		env  cli.Envelope
	}{
		{"missing confirm token", cli.Succeed(cli.CmdReview, map[string]any{"run_id": "r1", "assignment_id": 42, "expires_at": "x"})},
		{"wrong token prefix", cli.Succeed(cli.CmdReview, map[string]any{"run_id": "r1", "assignment_id": 42, "confirm_token": "abc", "expires_at": "x"})},
		{"wrong result type", cli.Envelope{SchemaVersion: cli.SchemaVersion, OK: true, Command: cli.CmdFeedbackAdd, Result: map[string]any{"id": "seven"}}},
		{"wrong schema version", cli.Envelope{SchemaVersion: "v4", OK: true, Command: cli.CmdFeedbackAdd, Result: map[string]any{"id": 7}}},
		{"unknown error code", cli.Envelope{SchemaVersion: cli.SchemaVersion, Command: cli.CmdRunsShow, Error: &cli.ErrorBody{Code: "BOOM", Message: "x", Details: map[string]any{}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, v.Validate(tt.env))
		})
	}
}

func TestRespond_SchemaFailureBecomesEnvelope(t *testing.T) {
	f := newFixture(t)

	result, err := f.server.respond(cli.Succeed(cli.CmdReview, map[string]any{"run_id": "r1"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	env := envelopeOf(t, result)
	assert.Equal(t, false, env["ok"])
	assert.Equal(t, cli.CmdReview, env["command"])
	assert.Equal(t, "SCHEMA_VALIDATION_ERROR", errorCode(env))
	details := env["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, "review.result.schema.json", details["schema"])
	assert.NotEmpty(t, details["validation_error"])
}

func TestCapabilitiesTool(t *testing.T) {
	f := newFixture(t)

	result, err := f.server.handleCapabilities(context.Background(), call(nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	env := envelopeOf(t, result)
	assert.Equal(t, true, env["ok"])
	commands := env["result"].(map[string]any)["commands"].([]any)
	assert.Len(t, commands, len(cli.Capabilities))
}

func TestVersionInfoTool(t *testing.T) {
	f := newFixture(t)

	result, err := f.server.handleVersionInfo(context.Background(), call(nil))
	require.NoError(t, err)
	info := envelopeOf(t, result)
	assert.Equal(t, cli.SchemaVersion, info["schema_version"])
	assert.Equal(t, cli.FeatureContractVersion, info["feature_contract_version"])
	assert.Equal(t, "stdio", info["transport"])
}

func TestSubmitTool_AlwaysConfirms(t *testing.T) {
	f := newFixture(t)

	result, err := f.server.handleSubmit(context.Background(), call(map[string]any{
		"assignment_id": float64(42),
		"file":          "/tmp/essay.md",
		"confirm_token": "rvw_abc",
		"dry_run":       true,
	}))
	require.NoError(t, err)

	require.NotNil(t, f.review.submitted)
	assert.True(t, f.review.submitted.Confirm)
	assert.Equal(t, int64(42), f.review.submitted.AssignmentID)
	assert.Equal(t, "rvw_abc", f.review.submitted.ConfirmToken)
	assert.True(t, f.review.submitted.DryRun)

	env := envelopeOf(t, result)
	assert.Equal(t, true, env["ok"])
	assert.Equal(t, false, env["result"].(map[string]any)["replayed"])
}

func TestSubmitTool_MissingFile(t *testing.T) {
	f := newFixture(t)

	result, err := f.server.handleSubmit(context.Background(), call(map[string]any{"assignment_id": float64(42)}))
	require.NoError(t, err)

	assert.Equal(t, "VALIDATION_ERROR", errorCode(envelopeOf(t, result)))
	assert.Nil(t, f.review.submitted)
}

func TestDoWorkflowTool_RequiresAssignmentAndMode(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
	}{
		{"no mode", map[string]any{"assignment_id": float64(42)}},
		{"no assignment", map[string]any{"mode": "draft"}},
		{"resume without assignment", map[string]any{"mode": "draft", "resume": "d1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			result, err := f.server.handleDo(context.Background(), call(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Equal(t, "VALIDATION_ERROR", errorCode(envelopeOf(t, result)))
			assert.Empty(t, f.workflow.requests)
		})
	}
}

func TestDoWorkflowTool(t *testing.T) {
	f := newFixture(t)

	result, err := f.server.handleDo(context.Background(), call(map[string]any{
		"assignment_id": float64(42),
		"mode":          "outline",
		"goal":          "clear structure",
		"resume":        "d1",
	}))
	require.NoError(t, err)

	require.Len(t, f.workflow.requests, 1)
	assert.Equal(t, primary.DoRequest{AssignmentID: 42, Mode: "outline", Goal: "clear structure", ResumeRunID: "d1"}, f.workflow.requests[0])

	env := envelopeOf(t, result)
	assert.Equal(t, true, env["ok"])
	assert.Equal(t, "ready", env["result"].(map[string]any)["state"])
}

func TestReviewTool(t *testing.T) {
	f := newFixture(t)
	f.review.review = &primary.ReviewResponse{RunID: "r1", AssignmentID: 42, ConfirmToken: "rvw_0011", ExpiresAt: "2026-02-20T09:40:00Z"}

	result, err := f.server.handleReview(context.Background(), call(map[string]any{"assignment_id": float64(42)}))
	require.NoError(t, err)

	env := envelopeOf(t, result)
	assert.Equal(t, true, env["ok"])
	assert.Equal(t, "rvw_0011", env["result"].(map[string]any)["confirm_token"])
}

func TestReviewTool_NotFound(t *testing.T) {
	f := newFixture(t)

	result, err := f.server.handleReview(context.Background(), call(map[string]any{"assignment_id": float64(9)}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "NOT_FOUND_404", errorCode(envelopeOf(t, result)))
}

func TestOrgSetTool_RequiresAField(t *testing.T) {
	f := newFixture(t)

	result, err := f.server.handleOrgSet(context.Background(), call(map[string]any{}))
	require.NoError(t, err)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(envelopeOf(t, result)))
	assert.Zero(t, f.org.setCalls)

	result, err = f.server.handleOrgSet(context.Background(), call(map[string]any{"logo_url": "https://x/logo.png"}))
	require.NoError(t, err)
	assert.Equal(t, true, envelopeOf(t, result)["ok"])
	assert.Equal(t, 1, f.org.setCalls)
}

func TestOrgInfoTool_NullableFields(t *testing.T) {
	f := newFixture(t)

	result, err := f.server.handleOrgInfo(context.Background(), call(nil))
	require.NoError(t, err)

	res := envelopeOf(t, result)["result"].(map[string]any)
	assert.Equal(t, "North Ridge", res["school_name"])
	assert.Nil(t, res["logo_url"])
	assert.Equal(t, "domain_guess", res["source"])
}

func TestRunsLatestResource(t *testing.T) {
	f := newFixture(t)
	f.runs.runs = []*primary.Run{{ID: "r1", Command: "do", Status: "ready", MetadataJSON: "{}", Metadata: map[string]any{}}}

	contents, err := f.server.readRunsLatest(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text := contents[0].(mcp.TextResourceContents)
	assert.Equal(t, runsLatestURI, text.URI)
	assert.Contains(t, text.Text, `"command":"runs.tail"`)
	assert.Contains(t, text.Text, `"id":"r1"`)
}

func TestArtifactsLatest_PicksNewestDoRun(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	draft := filepath.Join(dir, "draft.md")
	require.NoError(t, os.WriteFile(draft, []byte(strings.Repeat("é", previewLimit+100)), 0o644))

	f.runs.runs = []*primary.Run{
		{ID: "p1", Command: "plan", Metadata: map[string]any{}},
		{ID: "d2", Command: "do", Status: "ready", Metadata: map[string]any{
			"artifacts": map[string]any{"draft_md": draft, "review_json": filepath.Join(dir, "missing.json")},
		}},
		{ID: "d1", Command: "do", Status: "ready", Metadata: map[string]any{}},
	}

	doc, err := f.server.latestArtifacts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "d2", doc["run_id"])

	artifacts := doc["artifacts"].(map[string]ArtifactPreview)
	require.Len(t, artifacts, 2)
	assert.True(t, artifacts["draft_md"].Exists)
	assert.Equal(t, previewLimit, len([]rune(artifacts["draft_md"].Preview)))
	assert.False(t, artifacts["review_json"].Exists)
	assert.Empty(t, artifacts["review_json"].Preview)
}

func TestArtifactsLatest_NoDoRun(t *testing.T) {
	f := newFixture(t)
	f.runs.runs = []*primary.Run{{ID: "s1", Command: "submit", Metadata: map[string]any{}}}

	doc, err := f.server.latestArtifacts(context.Background())
	require.NoError(t, err)
	assert.Nil(t, doc["run_id"])
	assert.Empty(t, doc["artifacts"])
}
