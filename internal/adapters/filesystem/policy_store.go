// Package filesystem contains filesystem-based adapter implementations.
package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/example/canvasai/internal/core/canonical"
	"github.com/example/canvasai/internal/core/policy"
	"github.com/example/canvasai/internal/ports/secondary"
)

// PolicyStore reads course policy from policy.json, falling back to
// policy.yaml when no JSON file exists.
type PolicyStore struct {
	jsonPath string
	yamlPath string
}

// NewPolicyStore creates a policy store for the given file locations.
func NewPolicyStore(jsonPath, yamlPath string) *PolicyStore {
	return &PolicyStore{jsonPath: jsonPath, yamlPath: yamlPath}
}

// Load returns the policy document. No policy file is an empty document.
func (s *PolicyStore) Load(ctx context.Context) (*policy.Document, error) {
	doc := &policy.Document{}

	data, err := os.ReadFile(s.jsonPath)
	if err == nil {
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", s.jsonPath, err)
		}
		return doc, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", s.jsonPath, err)
	}

	data, err = os.ReadFile(s.yamlPath)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.yamlPath, err)
	}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.yamlPath, err)
	}
	return doc, nil
}

// WriteTemplate writes doc as indented JSON to the policy.json location.
func (s *PolicyStore) WriteTemplate(ctx context.Context, doc policy.Document) (string, error) {
	if doc.Courses == nil {
		doc.Courses = map[string]policy.Rule{}
	}
	content, err := canonical.Indent(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode policy: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.jsonPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create policy dir: %w", err)
	}
	if err := os.WriteFile(s.jsonPath, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write policy: %w", err)
	}
	return s.jsonPath, nil
}

// Ensure PolicyStore implements the interface
var _ secondary.PolicyStore = (*PolicyStore)(nil)
