package app

import (
	"context"
	"errors"

	"github.com/example/canvasai/internal/core/org"
	"github.com/example/canvasai/internal/ports/primary"
	"github.com/example/canvasai/internal/ports/secondary"
)

// OrgServiceImpl implements the OrgService interface.
type OrgServiceImpl struct {
	settings secondary.SettingsStore
	clients  secondary.ClientProvider
}

// NewOrgService creates a new OrgService with injected dependencies.
func NewOrgService(settings secondary.SettingsStore, clients secondary.ClientProvider) *OrgServiceImpl {
	return &OrgServiceImpl{settings: settings, clients: clients}
}

// Info resolves branding for the configured instance.
func (s *OrgServiceImpl) Info(ctx context.Context) (*org.Info, error) {
	resp, err := s.Probe(ctx)
	if err != nil {
		return nil, err
	}
	return &resp.Info, nil
}

// Probe resolves branding and returns the attempt trace. The API tier is
// called only when no override is set and a token is configured.
func (s *OrgServiceImpl) Probe(ctx context.Context) (*primary.ProbeResponse, error) {
	settings, err := s.settings.Settings()
	if err != nil {
		return nil, err
	}
	if settings.BaseURL == "" {
		return nil, primary.NewValidationError("Missing CANVAS_BASE_URL.")
	}

	in := org.ResolveInput{
		BaseURL: settings.BaseURL,
		Overrides: org.Overrides{
			SchoolName: settings.Branding.SchoolName,
			LogoURL:    settings.Branding.LogoURL,
		},
	}
	client := s.clients.OptionalClient(ctx)
	in.ClientAvailable = client != nil
	if org.NeedsAPI(in.Overrides, in.ClientAvailable) {
		in.Accounts = fetchAccounts(ctx, client)
		in.Theme = fetchTheme(ctx, client)
	}

	info, report := org.Resolve(in)
	return &primary.ProbeResponse{Info: info, Report: report}, nil
}

// SetBranding stores the overrides that are provided.
func (s *OrgServiceImpl) SetBranding(ctx context.Context, req primary.SetBrandingRequest) (string, error) {
	if req.SchoolName == nil && req.LogoURL == nil {
		return "", primary.NewValidationError("Provide --school-name and/or --logo-url")
	}
	cfg, err := s.settings.Load()
	if err != nil {
		return "", err
	}
	if req.SchoolName != nil {
		cfg.Branding.SchoolName = *req.SchoolName
	}
	if req.LogoURL != nil {
		cfg.Branding.LogoURL = *req.LogoURL
	}
	return s.settings.Save(cfg)
}

func fetchAccounts(ctx context.Context, client secondary.CanvasClient) *org.AccountsResult {
	accounts, err := client.ListAccounts(ctx)
	if err != nil {
		return &org.AccountsResult{Err: callError(err)}
	}
	if len(accounts) == 0 {
		return &org.AccountsResult{}
	}
	return &org.AccountsResult{Name: accounts[0].Name, DisplayName: accounts[0].DisplayName}
}

func fetchTheme(ctx context.Context, client secondary.CanvasClient) *org.ThemeResult {
	theme, err := client.GetBrandingTheme(ctx)
	if err != nil {
		return &org.ThemeResult{Err: callError(err)}
	}
	if theme == nil {
		return &org.ThemeResult{}
	}
	return &org.ThemeResult{Logo: theme.Logo, LogoURL: theme.LogoURL, BrandLogo: theme.BrandLogo}
}

// callError strips a client error down to what the resolver inspects.
func callError(err error) *org.CallError {
	var ce *secondary.ClientError
	if errors.As(err, &ce) {
		return &org.CallError{StatusCode: ce.StatusCode, Kind: string(ce.Kind), Message: ce.Message}
	}
	return &org.CallError{Kind: string(secondary.KindRequest), Message: err.Error()}
}

// Ensure OrgServiceImpl implements the interface
var _ primary.OrgService = (*OrgServiceImpl)(nil)
