package cli

import (
	"context"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/canvasai/internal/adapters/cli"
)

// CoursesCmd returns the courses command
func CoursesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "Canvas courses",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List active courses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, cliadapter.CmdCoursesList, func(ctx context.Context, h *cliadapter.Handlers) cliadapter.Envelope {
				return h.CoursesList(ctx)
			})
		},
	})

	return cmd
}

// AssignmentsCmd returns the assignments command
func AssignmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assignments",
		Short: "Upcoming assignments",
	}

	var days int
	due := &cobra.Command{
		Use:   "due",
		Short: "List assignments due in the next days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return invalid(cmd, cliadapter.CmdAssignmentsDue, "--days must be at least 1")
			}
			return run(cmd, cliadapter.CmdAssignmentsDue, func(ctx context.Context, h *cliadapter.Handlers) cliadapter.Envelope {
				return h.AssignmentsDue(ctx, days)
			})
		},
	}
	due.Flags().IntVar(&days, "days", 14, "Window in days")
	cmd.AddCommand(due)

	return cmd
}

// AssignmentCmd returns the assignment command
func AssignmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assignment",
		Short: "A single assignment",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <assignment-id>",
		Short: "Show one assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := parseID(args[0])
			if !ok {
				return invalid(cmd, cliadapter.CmdAssignmentShow, "Invalid assignment id: %s", args[0])
			}
			return run(cmd, cliadapter.CmdAssignmentShow, func(ctx context.Context, h *cliadapter.Handlers) cliadapter.Envelope {
				return h.AssignmentShow(ctx, id)
			})
		},
	})

	return cmd
}
