package primary

import "context"

// SettingsService defines the primary port for local configuration.
type SettingsService interface {
	// Init writes the config file and, optionally, a policy template.
	Init(ctx context.Context, req InitRequest) (*InitResponse, error)

	// Login stores a token and switches to token mode. Returns the config path.
	Login(ctx context.Context, token string) (string, error)

	// Status reports the effective auth settings with the token masked.
	Status(ctx context.Context) (*AuthStatus, error)

	// SetMode stores the auth mode. Returns the config path.
	SetMode(ctx context.Context, mode string) (string, error)
}

// Prompter asks the operator for missing values during interactive init.
type Prompter interface {
	Prompt(label, defaultValue string, secret bool) (string, error)
}

// InitRequest contains parameters for init.
type InitRequest struct {
	BaseURL        string
	Token          string
	WriteTemplates bool
	Prompter       Prompter // nil means non-interactive
}

// InitResponse lists the files written.
type InitResponse struct {
	ConfigPath string
	Templates  []string
}

// AuthStatus is the effective auth configuration.
type AuthStatus struct {
	AuthMode string `json:"auth_mode"`
	BaseURL  string `json:"base_url"`
	Token    string `json:"token"`
}
