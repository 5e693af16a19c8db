// Package cli defines the canvas-ai cobra command tree. Commands parse
// flags, call a handler and hand the envelope to the emitter; they never
// format output themselves.
package cli

import (
	"context"
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/canvasai/internal/adapters/cli"
	"github.com/example/canvasai/internal/ports/primary"
	"github.com/example/canvasai/internal/version"
	"github.com/example/canvasai/internal/wire"
)

// ErrCommandFailed is returned after an error envelope has been emitted.
// The caller only needs to set the exit code.
var ErrCommandFailed = errors.New("command failed")

// loadHandlers is replaced in tests.
var loadHandlers = wire.Handlers

// RootCmd returns the canvas-ai root command with every subcommand attached.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "canvas-ai",
		Short:   "Human-in-the-loop Canvas assignment assistant",
		Version: version.String(),
		Long: `canvas-ai helps with Canvas LMS coursework: it lists courses and
assignments, drafts and reviews work through a resumable workflow, and only
submits after an explicit, token-gated confirmation.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().Bool("json", false, "Machine-readable JSON output")
	root.PersistentFlags().Bool("quiet", false, "Suppress non-essential output")

	root.AddCommand(InitCmd())
	root.AddCommand(AuthCmd())
	root.AddCommand(OrgCmd())
	root.AddCommand(CoursesCmd())
	root.AddCommand(AssignmentsCmd())
	root.AddCommand(AssignmentCmd())

	// Workflow
	root.AddCommand(DraftCmd())
	root.AddCommand(DoCmd())
	root.AddCommand(PlanCmd())
	root.AddCommand(ExecuteCmd())
	root.AddCommand(ReviewCmd())
	root.AddCommand(SubmitCmd())

	// History and agent surface
	root.AddCommand(RunsCmd())
	root.AddCommand(FeedbackCmd())
	root.AddCommand(MetricsCmd())
	root.AddCommand(AgentCmd())
	root.AddCommand(MCPCmd())
	root.AddCommand(VersionCmd())

	return root
}

func emitter(cmd *cobra.Command) *cliadapter.Emitter {
	jsonMode, _ := cmd.Flags().GetBool("json")
	quiet, _ := cmd.Flags().GetBool("quiet")
	return cliadapter.NewEmitter(cmd.OutOrStdout(), cmd.ErrOrStderr(), jsonMode, quiet)
}

func jsonMode(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

// run resolves the handlers, calls fn and emits its envelope.
func run(cmd *cobra.Command, command string, fn func(ctx context.Context, h *cliadapter.Handlers) cliadapter.Envelope) error {
	var env cliadapter.Envelope
	h, err := loadHandlers()
	if err != nil {
		env = cliadapter.Fail(command, err)
	} else {
		env = fn(cmd.Context(), h)
	}
	return emit(cmd, env)
}

func emit(cmd *cobra.Command, env cliadapter.Envelope) error {
	if err := emitter(cmd).Emit(env); err != nil {
		return err
	}
	if !env.OK {
		return ErrCommandFailed
	}
	return nil
}

// invalid emits a validation error envelope without touching any service.
func invalid(cmd *cobra.Command, command, format string, args ...any) error {
	return emit(cmd, cliadapter.Fail(command, primary.NewValidationError(format, args...)))
}

func parseID(arg string) (int64, bool) {
	id, err := strconv.ParseInt(arg, 10, 64)
	return id, err == nil
}

// optionalID returns nil unless the flag was set.
func optionalID(cmd *cobra.Command, name string) *int64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetInt64(name)
	return &v
}

func optionalString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}
