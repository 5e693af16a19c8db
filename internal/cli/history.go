package cli

import (
	"context"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/canvasai/internal/adapters/cli"
	"github.com/example/canvasai/internal/ports/primary"
)

// RunsCmd returns the runs command
func RunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded runs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with decoded metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, cliadapter.CmdRunsShow, func(ctx context.Context, h *cliadapter.Handlers) cliadapter.Envelope {
				return h.RunsShow(ctx, args[0])
			})
		},
	})

	var limit int
	tail := &cobra.Command{
		Use:   "tail",
		Short: "List the most recently updated runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, cliadapter.CmdRunsTail, func(ctx context.Context, h *cliadapter.Handlers) cliadapter.Envelope {
				return h.RunsTail(ctx, limit)
			})
		},
	}
	tail.Flags().IntVar(&limit, "limit", 10, "Number of runs (1-200)")
	cmd.AddCommand(tail)

	return cmd
}

// FeedbackCmd returns the feedback command
func FeedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Instructor feedback used as drafting hints",
	}

	cmd.AddCommand(feedbackAddCmd())
	cmd.AddCommand(feedbackListCmd())

	return cmd
}

func feedbackAddCmd() *cobra.Command {
	var text, source string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Store instructor feedback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := primary.AddFeedbackRequest{
				Text:         text,
				CourseID:     optionalID(cmd, "course-id"),
				AssignmentID: optionalID(cmd, "assignment-id"),
				Source:       source,
			}
			return run(cmd, cliadapter.CmdFeedbackAdd, func(ctx context.Context, h *cliadapter.Handlers) cliadapter.Envelope {
				return h.FeedbackAdd(ctx, req)
			})
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Feedback text")
	cmd.Flags().Int64("course-id", 0, "Course ID")
	cmd.Flags().Int64("assignment-id", 0, "Assignment ID")
	cmd.Flags().StringVar(&source, "source", "", "Where the feedback came from")

	return cmd
}

func feedbackListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored feedback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := primary.FeedbackFilters{
				CourseID:     optionalID(cmd, "course-id"),
				AssignmentID: optionalID(cmd, "assignment-id"),
			}
			return run(cmd, cliadapter.CmdFeedbackList, func(ctx context.Context, h *cliadapter.Handlers) cliadapter.Envelope {
				return h.FeedbackList(ctx, filters)
			})
		},
	}

	cmd.Flags().Int64("course-id", 0, "Filter by course ID")
	cmd.Flags().Int64("assignment-id", 0, "Filter by assignment ID")

	return cmd
}

// MetricsCmd returns the metrics command
func MetricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Run outcome metrics",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "summary",
		Short: "Summarize run outcomes and common error codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, cliadapter.CmdMetricsSummary, func(ctx context.Context, h *cliadapter.Handlers) cliadapter.Envelope {
				return h.MetricsSummary(ctx)
			})
		},
	})

	return cmd
}
