package filesystem

import (
	"context"
	"fmt"
	"os"

	"github.com/example/canvasai/internal/ports/secondary"
)

// FileWriter implements secondary.FileWriter on the local disk.
type FileWriter struct{}

// NewFileWriter creates a new filesystem writer.
func NewFileWriter() *FileWriter {
	return &FileWriter{}
}

// MkdirAll creates path and any missing parents.
func (w *FileWriter) MkdirAll(ctx context.Context, path string, perm uint32) error {
	if err := os.MkdirAll(path, os.FileMode(perm)); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// WriteFile replaces the file at path with content.
func (w *FileWriter) WriteFile(ctx context.Context, path string, content []byte, perm uint32) error {
	if err := os.WriteFile(path, content, os.FileMode(perm)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Ensure FileWriter implements the interface
var _ secondary.FileWriter = (*FileWriter)(nil)
