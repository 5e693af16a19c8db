package cli

import (
	"context"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/canvasai/internal/adapters/cli"
	"github.com/example/canvasai/internal/ports/primary"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var baseURL, token string
	var writeTemplates, nonInteractive bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write config and the policy template",
		Long: `Write the Canvas base URL and token to the config file and, unless
--write-templates=false, a starter policy file.

Missing values are prompted for unless --non-interactive or --json is set.

Examples:
  canvas-ai init
  canvas-ai init --base-url https://school.instructure.com --token XXXX --non-interactive`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := primary.InitRequest{BaseURL: baseURL, Token: token, WriteTemplates: writeTemplates}
			if !nonInteractive && !jsonMode(cmd) {
				req.Prompter = newLinePrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
			}
			return run(cmd, cliadapter.CmdInit, func(ctx context.Context, h *cliadapter.Handlers) cliadapter.Envelope {
				return h.Init(ctx, req)
			})
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "Canvas base URL")
	cmd.Flags().StringVar(&token, "token", "", "Canvas API token")
	cmd.Flags().BoolVar(&writeTemplates, "write-templates", true, "Write the policy template")
	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "Never prompt")

	return cmd
}

// AuthCmd returns the auth command
func AuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage Canvas credentials",
	}

	cmd.AddCommand(authLoginCmd())
	cmd.AddCommand(authStatusCmd())
	cmd.AddCommand(authSetModeCmd())

	return cmd
}

func authLoginCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a Canvas API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" && !jsonMode(cmd) {
				answer, err := newLinePrompter(cmd.InOrStdin(), cmd.ErrOrStderr()).Prompt("Token", "", true)
				if err != nil {
					return err
				}
				token = answer
			}
			return run(cmd, cliadapter.CmdAuthLogin, func(ctx context.Context, h *cliadapter.Handlers) cliadapter.Envelope {
				return h.AuthLogin(ctx, token)
			})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Canvas API token (prompted when omitted)")

	return cmd
}

func authStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show auth mode, base URL and masked token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, cliadapter.CmdAuthStatus, func(ctx context.Context, h *cliadapter.Handlers) cliadapter.Envelope {
				return h.AuthStatus(ctx)
			})
		},
	}
}

func authSetModeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-mode <token|oauth_placeholder>",
		Short: "Set the auth mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, cliadapter.CmdAuthSetMode, func(ctx context.Context, h *cliadapter.Handlers) cliadapter.Envelope {
				return h.AuthSetMode(ctx, args[0])
			})
		},
	}
}

// OrgCmd returns the org command
func OrgCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "org",
		Short: "School branding",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Resolve school name and logo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, cliadapter.CmdOrgInfo, func(ctx context.Context, h *cliadapter.Handlers) cliadapter.Envelope {
				return h.OrgInfo(ctx)
			})
		},
	})
	cmd.AddCommand(orgSetCmd())
	cmd.AddCommand(orgProbeCmd())

	return cmd
}

func orgSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store branding overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := primary.SetBrandingRequest{
				SchoolName: optionalString(cmd, "school-name"),
				LogoURL:    optionalString(cmd, "logo-url"),
			}
			return run(cmd, cliadapter.CmdOrgSet, func(ctx context.Context, h *cliadapter.Handlers) cliadapter.Envelope {
				return h.OrgSet(ctx, req)
			})
		},
	}

	cmd.Flags().String("school-name", "", "School name override")
	cmd.Flags().String("logo-url", "", "Logo URL override")

	return cmd
}

func orgProbeCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Resolve branding and report every attempt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, cliadapter.CmdOrgProbe, func(ctx context.Context, h *cliadapter.Handlers) cliadapter.Envelope {
				return h.OrgProbe(ctx, verbose)
			})
		},
	}

	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show attempt details")

	return cmd
}
