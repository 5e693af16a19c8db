package secondary

import (
	"context"

	"github.com/example/canvasai/internal/config"
	"github.com/example/canvasai/internal/core/policy"
)

// SettingsStore defines the secondary port for the user config file.
type SettingsStore interface {
	// Load returns the config as stored on disk.
	Load() (*config.Config, error)

	// Save writes the config and returns its path.
	Save(cfg *config.Config) (string, error)

	// Settings returns effective values with environment overrides applied.
	Settings() (*config.Settings, error)

	// Path returns the config file location.
	Path() string
}

// PolicyStore defines the secondary port for course policy.
type PolicyStore interface {
	// Load returns the policy document; an absent policy is an empty document.
	Load(ctx context.Context) (*policy.Document, error)

	// WriteTemplate writes doc as the JSON policy file and returns its path.
	WriteTemplate(ctx context.Context, doc policy.Document) (string, error)
}

// FileWriter applies planned file effects.
type FileWriter interface {
	// MkdirAll creates a directory tree.
	MkdirAll(ctx context.Context, path string, perm uint32) error

	// WriteFile writes content to path.
	WriteFile(ctx context.Context, path string, content []byte, perm uint32) error
}
