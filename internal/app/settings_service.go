package app

import (
	"context"
	"fmt"

	"github.com/example/canvasai/internal/config"
	"github.com/example/canvasai/internal/core/policy"
	"github.com/example/canvasai/internal/ports/primary"
	"github.com/example/canvasai/internal/ports/secondary"
)

const defaultBaseURL = "https://canvas.instructure.com"

// SettingsServiceImpl implements the SettingsService interface.
type SettingsServiceImpl struct {
	settings secondary.SettingsStore
	policies secondary.PolicyStore
}

// NewSettingsService creates a new SettingsService with injected dependencies.
func NewSettingsService(settings secondary.SettingsStore, policies secondary.PolicyStore) *SettingsServiceImpl {
	return &SettingsServiceImpl{settings: settings, policies: policies}
}

// Init writes the config file, prompting for missing values when a
// Prompter is supplied, and optionally writes the policy template.
func (s *SettingsServiceImpl) Init(ctx context.Context, req primary.InitRequest) (*primary.InitResponse, error) {
	cfg, err := s.settings.Load()
	if err != nil {
		return nil, err
	}
	if req.BaseURL != "" {
		cfg.CanvasBaseURL = req.BaseURL
	}
	if req.Token != "" {
		cfg.Auth.Token = req.Token
		cfg.Auth.Mode = config.AuthModeToken
	}

	if req.Prompter != nil {
		if cfg.CanvasBaseURL == "" {
			entered, err := req.Prompter.Prompt("Canvas base URL", defaultBaseURL, false)
			if err != nil {
				return nil, fmt.Errorf("failed to read base URL: %w", err)
			}
			cfg.CanvasBaseURL = entered
		}
		if cfg.Auth.Token == "" {
			entered, err := req.Prompter.Prompt("Canvas API token (optional)", "", true)
			if err != nil {
				return nil, fmt.Errorf("failed to read token: %w", err)
			}
			if entered != "" {
				cfg.Auth.Token = entered
				cfg.Auth.Mode = config.AuthModeToken
			}
		}
	}

	path, err := s.settings.Save(cfg)
	if err != nil {
		return nil, err
	}

	resp := &primary.InitResponse{ConfigPath: path, Templates: []string{}}
	if req.WriteTemplates {
		tpl, err := s.policies.WriteTemplate(ctx, policy.Template())
		if err != nil {
			return nil, err
		}
		resp.Templates = append(resp.Templates, tpl)
	}
	return resp, nil
}

// Login stores the token and switches to token mode.
func (s *SettingsServiceImpl) Login(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", primary.NewValidationError("Token must not be empty.")
	}
	cfg, err := s.settings.Load()
	if err != nil {
		return "", err
	}
	cfg.Auth.Token = token
	cfg.Auth.Mode = config.AuthModeToken
	return s.settings.Save(cfg)
}

// Status reports the stored auth mode and the effective base URL and token.
func (s *SettingsServiceImpl) Status(ctx context.Context) (*primary.AuthStatus, error) {
	cfg, err := s.settings.Load()
	if err != nil {
		return nil, err
	}
	effective, err := s.settings.Settings()
	if err != nil {
		return nil, err
	}
	baseURL := effective.BaseURL
	if baseURL == "" {
		baseURL = "not configured"
	}
	return &primary.AuthStatus{
		AuthMode: config.NormalizeAuthMode(cfg.Auth.Mode),
		BaseURL:  baseURL,
		Token:    MaskToken(effective.Token),
	}, nil
}

// SetMode stores the auth mode.
func (s *SettingsServiceImpl) SetMode(ctx context.Context, mode string) (string, error) {
	if !config.ValidAuthMode(mode) {
		return "", primary.NewValidationError("Mode must be token or oauth_placeholder")
	}
	cfg, err := s.settings.Load()
	if err != nil {
		return "", err
	}
	cfg.Auth.Mode = mode
	return s.settings.Save(cfg)
}

// MaskToken hides all but the first and last two characters of a token.
func MaskToken(token string) string {
	switch {
	case token == "":
		return "not configured"
	case len(token) < 6:
		return "configured"
	default:
		return fmt.Sprintf("configured (%s***%s)", token[:2], token[len(token)-2:])
	}
}

// Ensure SettingsServiceImpl implements the interface
var _ primary.SettingsService = (*SettingsServiceImpl)(nil)
