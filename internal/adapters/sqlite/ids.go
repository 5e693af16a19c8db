// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// timestampLayout is fixed-width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// newID returns prefix followed by 16 hex characters of a random UUID.
func newID(prefix string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + hex[:16]
}

func now() string {
	return time.Now().UTC().Format(timestampLayout)
}
