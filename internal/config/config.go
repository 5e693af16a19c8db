package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Auth modes
const (
	AuthModeToken            = "token"
	AuthModeOAuthPlaceholder = "oauth_placeholder"
)

// Config represents ~/.config/canvas-ai/config.json as written on disk.
type Config struct {
	CanvasBaseURL  string   `json:"canvas_base_url,omitempty" mapstructure:"canvas_base_url"`
	CanvasAPIToken string   `json:"canvas_api_token,omitempty" mapstructure:"canvas_api_token"` // legacy v1 key
	Auth           Auth     `json:"auth" mapstructure:"auth"`
	Branding       Branding `json:"branding" mapstructure:"branding"`

	// RequestsPerSecond caps Canvas API calls; zero keeps the client default.
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" mapstructure:"requests_per_second"`
}

// Auth holds the credential settings.
type Auth struct {
	Mode  string `json:"mode,omitempty" mapstructure:"mode"`
	Token string `json:"token,omitempty" mapstructure:"token"`
}

// Branding holds user overrides for org info.
type Branding struct {
	SchoolName string `json:"school_name,omitempty" mapstructure:"school_name"`
	LogoURL    string `json:"logo_url,omitempty" mapstructure:"logo_url"`
}

// Settings are the effective values after environment overrides.
type Settings struct {
	BaseURL           string
	Token             string
	AuthMode          string
	Branding          Branding
	RequestsPerSecond float64
}

// Paths locates the config and data directories.
type Paths struct {
	ConfigDir string
	DataDir   string
}

// DefaultPaths returns ~/.config/canvas-ai and ~/.local/share/canvas-ai,
// relocatable with CANVAS_AI_CONFIG_DIR and CANVAS_AI_DATA_DIR.
func DefaultPaths() (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("failed to get home directory: %w", err)
	}
	p := Paths{
		ConfigDir: filepath.Join(home, ".config", "canvas-ai"),
		DataDir:   filepath.Join(home, ".local", "share", "canvas-ai"),
	}
	if dir := os.Getenv("CANVAS_AI_CONFIG_DIR"); dir != "" {
		p.ConfigDir = dir
	}
	if dir := os.Getenv("CANVAS_AI_DATA_DIR"); dir != "" {
		p.DataDir = dir
	}
	return p, nil
}

func (p Paths) ConfigFile() string   { return filepath.Join(p.ConfigDir, "config.json") }
func (p Paths) PolicyJSON() string   { return filepath.Join(p.ConfigDir, "policy.json") }
func (p Paths) PolicyYAML() string   { return filepath.Join(p.ConfigDir, "policy.yaml") }
func (p Paths) DBPath() string       { return filepath.Join(p.DataDir, "history.db") }
func (p Paths) ArtifactsDir() string { return filepath.Join(p.DataDir, "artifacts") }
func (p Paths) LogFile() string      { return filepath.Join(p.DataDir, "logs", "canvas-ai.log") }

// Store reads and writes the config file.
type Store struct {
	paths Paths
}

// NewStore creates a store rooted at the given paths.
func NewStore(paths Paths) *Store {
	return &Store{paths: paths}
}

// Path returns the config file location.
func (s *Store) Path() string {
	return s.paths.ConfigFile()
}

func (s *Store) newViper(withEnv bool) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(s.paths.ConfigFile())
	v.SetConfigType("json")
	if withEnv {
		_ = v.BindEnv("canvas_base_url", "CANVAS_BASE_URL")
		_ = v.BindEnv("auth.token", "CANVAS_API_TOKEN")
		_ = v.BindEnv("requests_per_second", "CANVAS_AI_REQUESTS_PER_SECOND")
	}
	return v
}

func (s *Store) read(withEnv bool) (*Config, error) {
	v := s.newViper(withEnv)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config exactly as stored, without environment overrides.
// A missing file yields an empty config.
func (s *Store) Load() (*Config, error) {
	return s.read(false)
}

// Save writes the config as indented JSON and returns its path.
func (s *Store) Save(cfg *Config) (string, error) {
	if err := os.MkdirAll(s.paths.ConfigDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	path := s.paths.ConfigFile()
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}

// Settings returns the effective settings. CANVAS_BASE_URL and
// CANVAS_API_TOKEN take precedence over the file; the legacy token key is
// used last.
func (s *Store) Settings() (*Settings, error) {
	cfg, err := s.read(true)
	if err != nil {
		return nil, err
	}
	token := cfg.Auth.Token
	if token == "" {
		token = cfg.CanvasAPIToken
	}
	return &Settings{
		BaseURL:           cfg.CanvasBaseURL,
		Token:             token,
		AuthMode:          NormalizeAuthMode(cfg.Auth.Mode),
		Branding:          cfg.Branding,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}, nil
}

// NormalizeAuthMode maps unknown or empty modes to token.
func NormalizeAuthMode(mode string) string {
	if mode == AuthModeOAuthPlaceholder {
		return mode
	}
	return AuthModeToken
}

// ValidAuthMode reports whether mode can be stored.
func ValidAuthMode(mode string) bool {
	return mode == AuthModeToken || mode == AuthModeOAuthPlaceholder
}
