package cli

import (
	"context"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/canvasai/internal/adapters/cli"
	"github.com/example/canvasai/internal/ports/primary"
)

// assignmentCmd builds a command taking a single assignment ID.
func assignmentCmd(use, short, command string, fn func(ctx context.Context, h *cliadapter.Handlers, id int64) cliadapter.Envelope) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <assignment-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := parseID(args[0])
			if !ok {
				return invalid(cmd, command, "Invalid assignment id: %s", args[0])
			}
			return run(cmd, command, func(ctx context.Context, h *cliadapter.Handlers) cliadapter.Envelope {
				return fn(ctx, h, id)
			})
		},
	}
}

// DraftCmd returns the draft command
func DraftCmd() *cobra.Command {
	return assignmentCmd("draft", "Print placeholder draft text", cliadapter.CmdDraft,
		func(ctx context.Context, h *cliadapter.Handlers, id int64) cliadapter.Envelope {
			return h.Draft(ctx, id)
		})
}

// DoCmd returns the do command
func DoCmd() *cobra.Command {
	var p cliadapter.DoParams

	cmd := &cobra.Command{
		Use:   "do <assignment-id>",
		Short: "Run the assignment workflow and write review artifacts",
		Long: `Advance a workflow run through planning, drafting and reviewing until it
is ready. Artifacts are written for human review; nothing is submitted.

Interrupted runs continue from their last completed stage with --resume.

Examples:
  canvas-ai do 42 --mode draft --goal "stronger thesis"
  canvas-ai do 42 --mode polish --input-file essay.md
  canvas-ai do 42 --mode draft --resume 3f2a...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := parseID(args[0])
			if !ok {
				return invalid(cmd, cliadapter.CmdDo, "Invalid assignment id: %s", args[0])
			}
			p.AssignmentID = id
			return run(cmd, cliadapter.CmdDo, func(ctx context.Context, h *cliadapter.Handlers) cliadapter.Envelope {
				return h.Do(ctx, p)
			})
		},
	}

	cmd.Flags().StringVar(&p.Mode, "mode", "", "tutor|outline|draft|polish")
	cmd.Flags().StringVar(&p.Goal, "goal", "", "Optional intent goal for this run")
	cmd.Flags().StringVar(&p.Resume, "resume", "", "Resume an existing do run_id")
	cmd.Flags().StringVar(&p.InputFile, "input-file", "", "Optional draft input for --mode polish")

	return cmd
}

// PlanCmd returns the plan command
func PlanCmd() *cobra.Command {
	return assignmentCmd("plan", "Generate and store a step plan", cliadapter.CmdPlan,
		func(ctx context.Context, h *cliadapter.Handlers, id int64) cliadapter.Envelope {
			return h.Plan(ctx, id)
		})
}

// ExecuteCmd returns the execute command
func ExecuteCmd() *cobra.Command {
	var step int

	cmd := &cobra.Command{
		Use:   "execute <plan-id>",
		Short: "Record the execution of one plan step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if step < 1 {
				return invalid(cmd, cliadapter.CmdExecute, "--step must be at least 1")
			}
			return run(cmd, cliadapter.CmdExecute, func(ctx context.Context, h *cliadapter.Handlers) cliadapter.Envelope {
				return h.Execute(ctx, args[0], step)
			})
		},
	}

	cmd.Flags().IntVar(&step, "step", 0, "1-based step number")

	return cmd
}

// ReviewCmd returns the review command
func ReviewCmd() *cobra.Command {
	return assignmentCmd("review", "Review an assignment and issue a confirm token", cliadapter.CmdReview,
		func(ctx context.Context, h *cliadapter.Handlers, id int64) cliadapter.Envelope {
			return h.Review(ctx, id)
		})
}

// SubmitCmd returns the submit command
func SubmitCmd() *cobra.Command {
	var req primary.SubmitRequest

	cmd := &cobra.Command{
		Use:   "submit <assignment-id>",
		Short: "Submit a file after review",
		Long: `Submit a file for an assignment. Requires --confirm and the confirm token
printed by review. Policy rules may also require a dry run first.

Examples:
  canvas-ai submit 42 --file essay.md --confirm --confirm-token rvw_... --dry-run
  canvas-ai submit 42 --file essay.md --confirm --confirm-token rvw_... --idempotency-key essay-final`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := parseID(args[0])
			if !ok {
				return invalid(cmd, cliadapter.CmdSubmit, "Invalid assignment id: %s", args[0])
			}
			if req.FilePath == "" {
				return invalid(cmd, cliadapter.CmdSubmit, "--file is required")
			}
			req.AssignmentID = id
			return run(cmd, cliadapter.CmdSubmit, func(ctx context.Context, h *cliadapter.Handlers) cliadapter.Envelope {
				return h.Submit(ctx, req)
			})
		},
	}

	cmd.Flags().StringVar(&req.FilePath, "file", "", "File to submit")
	cmd.Flags().BoolVar(&req.Confirm, "confirm", false, "Required to execute submission")
	cmd.Flags().StringVar(&req.ConfirmToken, "confirm-token", "", "Token issued by review")
	cmd.Flags().StringVar(&req.IdempotencyKey, "idempotency-key", "", "Replay key")
	cmd.Flags().BoolVar(&req.DryRun, "dry-run", false, "Validate without sending")

	return cmd
}
