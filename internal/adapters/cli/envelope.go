// Package cli translates service calls into command envelopes and renders
// them for humans or machines. Handlers never print; the Emitter does.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/example/canvasai/internal/ports/primary"
	"github.com/example/canvasai/internal/ports/secondary"
)

const (
	// SchemaVersion is stamped on every envelope.
	SchemaVersion = "v5"

	// FeatureContractVersion identifies the CLI/MCP feature contract.
	FeatureContractVersion = "2026-02-v1"
)

// Style is the emphasis a line gets in human output.
type Style int

const (
	StylePlain Style = iota
	StyleSuccess
	StyleEmphasis
	StyleDim
)

// Line is one line of human output. It serializes as a bare string.
type Line struct {
	Text  string
	Style Style
}

func (l Line) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Text)
}

func (l *Line) UnmarshalJSON(data []byte) error {
	l.Style = StylePlain
	return json.Unmarshal(data, &l.Text)
}

func plain(format string, args ...any) Line {
	return Line{Text: fmt.Sprintf(format, args...)}
}

func success(format string, args ...any) Line {
	return Line{Text: fmt.Sprintf(format, args...), Style: StyleSuccess}
}

func emphasis(format string, args ...any) Line {
	return Line{Text: fmt.Sprintf(format, args...), Style: StyleEmphasis}
}

// ErrorBody is the error half of an envelope.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// Envelope is the result of every command.
type Envelope struct {
	SchemaVersion string     `json:"schema_version"`
	OK            bool       `json:"ok"`
	Command       string     `json:"command"`
	Result        any        `json:"result,omitempty"`
	Error         *ErrorBody `json:"error,omitempty"`
	Lines         []Line     `json:"lines,omitempty"`
}

// Succeed builds a success envelope.
func Succeed(command string, result any, lines ...Line) Envelope {
	return Envelope{SchemaVersion: SchemaVersion, OK: true, Command: command, Result: result, Lines: lines}
}

// Fail builds an error envelope from any error.
func Fail(command string, err error) Envelope {
	body := ToErrorBody(err)
	return Envelope{SchemaVersion: SchemaVersion, OK: false, Command: command, Error: &body}
}

// ToErrorBody maps an error onto the closed code set. Service refusals keep
// their code; client failures are translated by status and kind; anything
// else is INTERNAL_ERROR.
func ToErrorBody(err error) ErrorBody {
	var perr *primary.Error
	if errors.As(err, &perr) {
		details := perr.Details
		if details == nil {
			details = map[string]any{}
		}
		return ErrorBody{Code: string(perr.Code.Normalize()), Message: perr.Message, Details: details}
	}

	var ce *secondary.ClientError
	if errors.As(err, &ce) {
		details := map[string]any{"kind": string(ce.Kind)}
		if ce.Endpoint != "" {
			details["endpoint"] = ce.Endpoint
		}
		if ce.StatusCode != 0 {
			details["status_code"] = ce.StatusCode
		}
		return ErrorBody{
			Code:    string(clientErrorCode(ce)),
			Message: "Canvas API error: " + ce.Message,
			Details: details,
		}
	}

	return ErrorBody{Code: string(primary.CodeInternal), Message: err.Error(), Details: map[string]any{}}
}

func clientErrorCode(ce *secondary.ClientError) primary.ErrorCode {
	switch {
	case ce.StatusCode == http.StatusUnauthorized:
		return primary.CodeAuth
	case ce.StatusCode == http.StatusForbidden:
		return primary.CodePermission
	case ce.StatusCode == http.StatusNotFound:
		return primary.CodeNotFound
	case ce.StatusCode == http.StatusTooManyRequests:
		return primary.CodeRateLimit
	case ce.Kind == secondary.KindTimeout, ce.Kind == secondary.KindNetwork:
		return primary.CodeNetworkTimeout
	default:
		return primary.CodeInternal
	}
}
