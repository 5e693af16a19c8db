// Package canonical provides RFC 8785 canonical JSON so stored documents and
// emitted envelopes serialize identically across runs.
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// JCS returns the canonical JSON form of v: sorted keys, no HTML escaping,
// no insignificant whitespace.
func JCS(v any) ([]byte, error) {
	intermediate, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("jcs: pre-marshal failed: %w", err)
	}
	out, err := jcs.Transform(intermediate)
	if err != nil {
		return nil, fmt.Errorf("jcs: transform failed: %w", err)
	}
	return out, nil
}

// Indent returns the canonical form of v indented by two spaces.
func Indent(v any) ([]byte, error) {
	data, err := JCS(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, fmt.Errorf("jcs: indent failed: %w", err)
	}
	return buf.Bytes(), nil
}
