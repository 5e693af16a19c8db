// Package mcp exposes the command handlers as MCP tools over stdio. Every
// tool returns the same canonical envelope the CLI prints in --json mode,
// checked against the command's JSON schema before it leaves the process.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/example/canvasai/internal/adapters/cli"
	"github.com/example/canvasai/internal/core/canonical"
	"github.com/example/canvasai/internal/ports/primary"
	"github.com/example/canvasai/internal/version"
)

const (
	serverName = "canvas-ai"

	runsLatestURI      = "canvas-ai://runs/latest"
	artifactsLatestURI = "canvas-ai://artifacts/latest"

	previewLimit = 5000
)

// Server wraps an MCPServer whose tools call the command handlers in process.
type Server struct {
	mcpServer *server.MCPServer
	handlers  *cli.Handlers
	runs      primary.RunService
	validator *Validator
	logger    *slog.Logger
}

// NewServer builds the server and registers every tool and resource.
func NewServer(handlers *cli.Handlers, runs primary.RunService, logger *slog.Logger) (*Server, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, err
	}
	s := &Server{
		mcpServer: server.NewMCPServer(
			serverName,
			version.Version,
			server.WithToolCapabilities(true),
			server.WithResourceCapabilities(false, true),
			server.WithRecovery(),
		),
		handlers:  handlers,
		runs:      runs,
		validator: validator,
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves the protocol on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.logger.Info("mcp server starting", "transport", "stdio", "version", version.Version)
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	assignmentID := mcp.WithNumber("assignment_id", mcp.Required(), mcp.Description("Canvas assignment ID"))

	s.mcpServer.AddTool(mcp.NewTool("mcp_version_info",
		mcp.WithDescription("Report CLI, schema and feature contract versions"),
	), s.handleVersionInfo)

	s.mcpServer.AddTool(mcp.NewTool("capabilities",
		mcp.WithDescription("List commands with their risk level and required permissions"),
	), s.handleCapabilities)

	s.mcpServer.AddTool(mcp.NewTool("feature_contract",
		mcp.WithDescription("Show the CLI/MCP/docs feature synchronization contract"),
	), s.handleFeatureContract)

	s.mcpServer.AddTool(mcp.NewTool("auth_status",
		mcp.WithDescription("Show auth mode, Canvas base URL and masked token"),
	), s.handleAuthStatus)

	s.mcpServer.AddTool(mcp.NewTool("auth_set_mode",
		mcp.WithDescription("Set the auth mode"),
		mcp.WithString("mode", mcp.Required(), mcp.Description("token or oauth_placeholder"), mcp.Enum("token", "oauth_placeholder")),
	), s.handleAuthSetMode)

	s.mcpServer.AddTool(mcp.NewTool("auth_login",
		mcp.WithDescription("Store a Canvas API token"),
		mcp.WithString("token", mcp.Required(), mcp.Description("Canvas API token")),
	), s.handleAuthLogin)

	s.mcpServer.AddTool(mcp.NewTool("init",
		mcp.WithDescription("Write config and the policy template. Never prompts."),
		mcp.WithString("base_url", mcp.Description("Canvas base URL")),
		mcp.WithString("token", mcp.Description("Canvas API token")),
		mcp.WithBoolean("write_templates", mcp.Description("Write the policy template (default true)")),
		mcp.WithBoolean("non_interactive", mcp.Description("Accepted for parity with the CLI; always true here")),
	), s.handleInit)

	s.mcpServer.AddTool(mcp.NewTool("courses_list",
		mcp.WithDescription("List active Canvas courses"),
	), s.handleCoursesList)

	s.mcpServer.AddTool(mcp.NewTool("assignments_due",
		mcp.WithDescription("List assignments due within a number of days"),
		mcp.WithNumber("days", mcp.Description("Window in days (default 14)")),
	), s.handleAssignmentsDue)

	s.mcpServer.AddTool(mcp.NewTool("assignment_show",
		mcp.WithDescription("Show one assignment"),
		assignmentID,
	), s.handleAssignmentShow)

	s.mcpServer.AddTool(mcp.NewTool("draft",
		mcp.WithDescription("Return placeholder draft text for an assignment"),
		assignmentID,
	), s.handleDraft)

	s.mcpServer.AddTool(mcp.NewTool("plan",
		mcp.WithDescription("Generate and store a step plan for an assignment"),
		assignmentID,
	), s.handlePlan)

	s.mcpServer.AddTool(mcp.NewTool("execute",
		mcp.WithDescription("Record the execution of one plan step"),
		mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan ID returned by plan")),
		mcp.WithNumber("step", mcp.Required(), mcp.Description("1-based step number")),
	), s.handleExecute)

	s.mcpServer.AddTool(mcp.NewTool("do_workflow",
		mcp.WithDescription("Run or resume the assignment workflow and write review artifacts"),
		mcp.WithNumber("assignment_id", mcp.Required(), mcp.Description("Canvas assignment ID (must match the resumed run)")),
		mcp.WithString("mode", mcp.Required(), mcp.Enum("tutor", "outline", "draft", "polish"), mcp.Description("Workflow mode")),
		mcp.WithString("goal", mcp.Description("Optimization goal")),
		mcp.WithString("resume", mcp.Description("Run ID to resume")),
		mcp.WithString("input_file", mcp.Description("Base text for polish mode")),
	), s.handleDo)

	s.mcpServer.AddTool(mcp.NewTool("review",
		mcp.WithDescription("Review an assignment and issue a short-lived confirm token"),
		assignmentID,
	), s.handleReview)

	s.mcpServer.AddTool(mcp.NewTool("submit",
		mcp.WithDescription("Submit a file. Requires a confirm token from review."),
		assignmentID,
		mcp.WithString("file", mcp.Required(), mcp.Description("Path of the file to submit")),
		mcp.WithString("confirm_token", mcp.Required(), mcp.Description("Token issued by review")),
		mcp.WithString("idempotency_key", mcp.Description("Replay key")),
		mcp.WithBoolean("dry_run", mcp.Description("Validate without sending")),
	), s.handleSubmit)

	s.mcpServer.AddTool(mcp.NewTool("runs_show",
		mcp.WithDescription("Show one run with decoded metadata"),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run ID")),
	), s.handleRunsShow)

	s.mcpServer.AddTool(mcp.NewTool("runs_tail",
		mcp.WithDescription("List the most recently updated runs"),
		mcp.WithNumber("limit", mcp.Description("Number of runs, 1-200 (default 10)")),
	), s.handleRunsTail)

	s.mcpServer.AddTool(mcp.NewTool("feedback_add",
		mcp.WithDescription("Store instructor feedback"),
		mcp.WithString("text", mcp.Required(), mcp.Description("Feedback text")),
		mcp.WithNumber("course_id", mcp.Description("Course ID")),
		mcp.WithNumber("assignment_id", mcp.Description("Assignment ID")),
		mcp.WithString("source", mcp.Description("Where the feedback came from")),
	), s.handleFeedbackAdd)

	s.mcpServer.AddTool(mcp.NewTool("feedback_list",
		mcp.WithDescription("List stored feedback"),
		mcp.WithNumber("course_id", mcp.Description("Course ID filter")),
		mcp.WithNumber("assignment_id", mcp.Description("Assignment ID filter")),
	), s.handleFeedbackList)

	s.mcpServer.AddTool(mcp.NewTool("metrics_summary",
		mcp.WithDescription("Summarize run outcomes and common error codes"),
	), s.handleMetricsSummary)

	s.mcpServer.AddTool(mcp.NewTool("org_info",
		mcp.WithDescription("Resolve school name and logo"),
	), s.handleOrgInfo)

	s.mcpServer.AddTool(mcp.NewTool("org_set",
		mcp.WithDescription("Store branding overrides. At least one field is required."),
		mcp.WithString("school_name", mcp.Description("School name override")),
		mcp.WithString("logo_url", mcp.Description("Logo URL override")),
	), s.handleOrgSet)

	s.mcpServer.AddTool(mcp.NewTool("org_probe",
		mcp.WithDescription("Resolve branding and report every attempt"),
		mcp.WithBoolean("verbose", mcp.Description("Include attempt detail lines")),
	), s.handleOrgProbe)
}

// respond validates env and encodes it as the tool result.
func (s *Server) respond(env cli.Envelope) (*mcp.CallToolResult, error) {
	if err := s.validator.Validate(env); err != nil {
		s.logger.Error("envelope failed schema validation", "command", env.Command, "error", err)
		env = schemaFailure(env.Command, err)
	}
	data, err := canonical.JCS(env)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode envelope: %v", err)), nil
	}
	result := mcp.NewToolResultText(string(data))
	result.IsError = !env.OK
	return result, nil
}

func (s *Server) invalid(command string, err error) (*mcp.CallToolResult, error) {
	return s.respond(cli.Fail(command, primary.NewValidationError("%s", err.Error())))
}

func (s *Server) handleVersionInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info := cli.VersionInfo()
	info["server"] = serverName
	info["transport"] = "stdio"
	data, err := canonical.JCS(info)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleCapabilities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.respond(s.handlers.AgentCapabilities(ctx))
}

func (s *Server) handleFeatureContract(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.respond(s.handlers.AgentFeatureContract(ctx))
}

func (s *Server) handleAuthStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.respond(s.handlers.AuthStatus(ctx))
}

func (s *Server) handleAuthSetMode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode, err := request.RequireString("mode")
	if err != nil {
		return s.invalid(cli.CmdAuthSetMode, err)
	}
	return s.respond(s.handlers.AuthSetMode(ctx, mode))
}

func (s *Server) handleAuthLogin(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := request.RequireString("token")
	if err != nil {
		return s.invalid(cli.CmdAuthLogin, err)
	}
	return s.respond(s.handlers.AuthLogin(ctx, token))
}

func (s *Server) handleInit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.respond(s.handlers.Init(ctx, primary.InitRequest{
		BaseURL:        request.GetString("base_url", ""),
		Token:          request.GetString("token", ""),
		WriteTemplates: request.GetBool("write_templates", true),
	}))
}

func (s *Server) handleCoursesList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.respond(s.handlers.CoursesList(ctx))
}

func (s *Server) handleAssignmentsDue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.respond(s.handlers.AssignmentsDue(ctx, request.GetInt("days", 14)))
}

func (s *Server) handleAssignmentShow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireInt("assignment_id")
	if err != nil {
		return s.invalid(cli.CmdAssignmentShow, err)
	}
	return s.respond(s.handlers.AssignmentShow(ctx, int64(id)))
}

func (s *Server) handleDraft(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireInt("assignment_id")
	if err != nil {
		return s.invalid(cli.CmdDraft, err)
	}
	return s.respond(s.handlers.Draft(ctx, int64(id)))
}

func (s *Server) handlePlan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireInt("assignment_id")
	if err != nil {
		return s.invalid(cli.CmdPlan, err)
	}
	return s.respond(s.handlers.Plan(ctx, int64(id)))
}

func (s *Server) handleExecute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	planID, err := request.RequireString("plan_id")
	if err != nil {
		return s.invalid(cli.CmdExecute, err)
	}
	step, err := request.RequireInt("step")
	if err != nil {
		return s.invalid(cli.CmdExecute, err)
	}
	return s.respond(s.handlers.Execute(ctx, planID, step))
}

func (s *Server) handleDo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireInt("assignment_id")
	if err != nil {
		return s.invalid(cli.CmdDo, err)
	}
	mode, err := request.RequireString("mode")
	if err != nil {
		return s.invalid(cli.CmdDo, err)
	}
	return s.respond(s.handlers.Do(ctx, cli.DoParams{
		AssignmentID: int64(id),
		Mode:         mode,
		Goal:         request.GetString("goal", ""),
		Resume:       request.GetString("resume", ""),
		InputFile:    request.GetString("input_file", ""),
	}))
}

func (s *Server) handleReview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireInt("assignment_id")
	if err != nil {
		return s.invalid(cli.CmdReview, err)
	}
	return s.respond(s.handlers.Review(ctx, int64(id)))
}

// handleSubmit always passes the explicit confirmation: calling the tool is
// the confirmation, and the confirm token still gates it.
func (s *Server) handleSubmit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireInt("assignment_id")
	if err != nil {
		return s.invalid(cli.CmdSubmit, err)
	}
	file, err := request.RequireString("file")
	if err != nil {
		return s.invalid(cli.CmdSubmit, err)
	}
	return s.respond(s.handlers.Submit(ctx, primary.SubmitRequest{
		AssignmentID:   int64(id),
		FilePath:       file,
		Confirm:        true,
		ConfirmToken:   request.GetString("confirm_token", ""),
		IdempotencyKey: request.GetString("idempotency_key", ""),
		DryRun:         request.GetBool("dry_run", false),
	}))
}

func (s *Server) handleRunsShow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID, err := request.RequireString("run_id")
	if err != nil {
		return s.invalid(cli.CmdRunsShow, err)
	}
	return s.respond(s.handlers.RunsShow(ctx, runID))
}

func (s *Server) handleRunsTail(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.respond(s.handlers.RunsTail(ctx, request.GetInt("limit", 10)))
}

func (s *Server) handleFeedbackAdd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return s.invalid(cli.CmdFeedbackAdd, err)
	}
	return s.respond(s.handlers.FeedbackAdd(ctx, primary.AddFeedbackRequest{
		Text:         text,
		CourseID:     optionalID(request, "course_id"),
		AssignmentID: optionalID(request, "assignment_id"),
		Source:       request.GetString("source", ""),
	}))
}

func (s *Server) handleFeedbackList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.respond(s.handlers.FeedbackList(ctx, primary.FeedbackFilters{
		CourseID:     optionalID(request, "course_id"),
		AssignmentID: optionalID(request, "assignment_id"),
	}))
}

func (s *Server) handleMetricsSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.respond(s.handlers.MetricsSummary(ctx))
}

func (s *Server) handleOrgInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.respond(s.handlers.OrgInfo(ctx))
}

func (s *Server) handleOrgSet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := primary.SetBrandingRequest{
		SchoolName: optionalString(request, "school_name"),
		LogoURL:    optionalString(request, "logo_url"),
	}
	if req.SchoolName == nil && req.LogoURL == nil {
		return s.respond(cli.Fail(cli.CmdOrgSet, primary.NewValidationError("Provide school_name and/or logo_url")))
	}
	return s.respond(s.handlers.OrgSet(ctx, req))
}

func (s *Server) handleOrgProbe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.respond(s.handlers.OrgProbe(ctx, request.GetBool("verbose", false)))
}

// optionalID returns nil when key is absent or not a number.
func optionalID(request mcp.CallToolRequest, key string) *int64 {
	v, ok := request.GetArguments()[key].(float64)
	if !ok {
		return nil
	}
	id := int64(v)
	return &id
}

func optionalString(request mcp.CallToolRequest, key string) *string {
	v, ok := request.GetArguments()[key].(string)
	if !ok {
		return nil
	}
	return &v
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(runsLatestURI, "Latest runs",
		mcp.WithResourceDescription("The ten most recently updated runs"),
		mcp.WithMIMEType("application/json"),
	), s.readRunsLatest)

	s.mcpServer.AddResource(mcp.NewResource(artifactsLatestURI, "Latest workflow artifacts",
		mcp.WithResourceDescription("Artifact paths and previews of the newest do run"),
		mcp.WithMIMEType("application/json"),
	), s.readArtifactsLatest)
}

func (s *Server) readRunsLatest(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	env := s.handlers.RunsTail(ctx, 10)
	data, err := canonical.JCS(env)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{mcp.TextResourceContents{URI: runsLatestURI, MIMEType: "application/json", Text: string(data)}}, nil
}

func (s *Server) readArtifactsLatest(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	doc, err := s.latestArtifacts(ctx)
	if err != nil {
		return nil, err
	}
	data, err := canonical.JCS(doc)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{mcp.TextResourceContents{URI: artifactsLatestURI, MIMEType: "application/json", Text: string(data)}}, nil
}

// ArtifactPreview describes one artifact file of a run.
type ArtifactPreview struct {
	Path    string `json:"path"`
	Exists  bool   `json:"exists"`
	Preview string `json:"preview"`
}

// latestArtifacts finds the newest do run among the last 20 and previews
// each artifact it recorded.
func (s *Server) latestArtifacts(ctx context.Context) (map[string]any, error) {
	runs, err := s.runs.TailRuns(ctx, 20)
	if err != nil {
		return nil, err
	}
	for _, run := range runs {
		if run.Command != cli.CmdDo {
			continue
		}
		paths, _ := run.Metadata["artifacts"].(map[string]any)
		artifacts := make(map[string]ArtifactPreview, len(paths))
		for name, p := range paths {
			path, ok := p.(string)
			if !ok {
				continue
			}
			artifacts[name] = preview(path)
		}
		return map[string]any{"run_id": run.ID, "status": run.Status, "artifacts": artifacts}, nil
	}
	return map[string]any{"run_id": nil, "artifacts": map[string]ArtifactPreview{}}, nil
}

func preview(path string) ArtifactPreview {
	data, err := os.ReadFile(path)
	if err != nil {
		return ArtifactPreview{Path: path}
	}
	text := []rune(string(data))
	if len(text) > previewLimit {
		text = text[:previewLimit]
	}
	return ArtifactPreview{Path: path, Exists: true, Preview: string(text)}
}
