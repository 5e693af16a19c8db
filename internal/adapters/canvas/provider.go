package canvas

import (
	"context"
	"math"

	"golang.org/x/time/rate"

	"github.com/example/canvasai/internal/config"
	"github.com/example/canvasai/internal/ports/primary"
	"github.com/example/canvasai/internal/ports/secondary"
)

// Provider builds clients from the effective settings on each call, so a
// login in the same process is picked up immediately.
type Provider struct {
	settings secondary.SettingsStore
	opts     []Option
}

// NewProvider creates a provider reading credentials from settings.
func NewProvider(settings secondary.SettingsStore, opts ...Option) *Provider {
	return &Provider{settings: settings, opts: opts}
}

// Client returns a client or an error explaining what configuration is missing.
func (p *Provider) Client(ctx context.Context) (secondary.CanvasClient, error) {
	s, err := p.settings.Settings()
	if err != nil {
		return nil, err
	}
	if s.AuthMode == config.AuthModeOAuthPlaceholder && s.Token == "" {
		return nil, primary.NewAuthError("Auth mode is oauth_placeholder; switch to token mode and login for now.")
	}
	if s.BaseURL == "" || s.Token == "" {
		return nil, primary.NewValidationError("Missing CANVAS_BASE_URL and/or CANVAS_API_TOKEN. Run `canvas-ai auth login`.")
	}
	return New(s.BaseURL, s.Token, p.options(s)...), nil
}

// OptionalClient returns a client when both base URL and token are set.
func (p *Provider) OptionalClient(ctx context.Context) secondary.CanvasClient {
	s, err := p.settings.Settings()
	if err != nil || s.BaseURL == "" || s.Token == "" {
		return nil
	}
	return New(s.BaseURL, s.Token, p.options(s)...)
}

// options appends the configured rate limit to the provider options.
func (p *Provider) options(s *config.Settings) []Option {
	if s.RequestsPerSecond <= 0 {
		return p.opts
	}
	burst := int(math.Max(1, math.Ceil(s.RequestsPerSecond)))
	opts := append([]Option{}, p.opts...)
	return append(opts, WithRateLimit(rate.Limit(s.RequestsPerSecond), burst))
}

// Ensure Provider implements the interface.
var _ secondary.ClientProvider = (*Provider)(nil)
