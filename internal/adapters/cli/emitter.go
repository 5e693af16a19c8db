package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/example/canvasai/internal/core/canonical"
)

// Emitter renders envelopes. JSON mode writes exactly one canonical JSON
// document per envelope to out; human mode writes lines to out and errors
// to errOut.
type Emitter struct {
	out    io.Writer
	errOut io.Writer
	json   bool
	quiet  bool
}

// NewEmitter creates an Emitter. quiet suppresses human success lines only.
func NewEmitter(out, errOut io.Writer, jsonMode, quiet bool) *Emitter {
	return &Emitter{out: out, errOut: errOut, json: jsonMode, quiet: quiet}
}

// Emit writes the envelope.
func (e *Emitter) Emit(env Envelope) error {
	if e.json {
		data, err := canonical.JCS(env)
		if err != nil {
			return fmt.Errorf("failed to encode envelope: %w", err)
		}
		_, err = fmt.Fprintf(e.out, "%s\n", data)
		return err
	}

	if !env.OK {
		code := color.New(color.FgRed, color.Bold).Sprint(env.Error.Code)
		_, err := fmt.Fprintf(e.errOut, "%s: %s\n", code, env.Error.Message)
		return err
	}
	if e.quiet {
		return nil
	}
	for _, l := range env.Lines {
		if _, err := fmt.Fprintln(e.out, render(l)); err != nil {
			return err
		}
	}
	return nil
}

func render(l Line) string {
	switch l.Style {
	case StyleSuccess:
		return color.New(color.FgGreen).Sprint(l.Text)
	case StyleEmphasis:
		return color.New(color.Bold).Sprint(l.Text)
	case StyleDim:
		return color.New(color.Faint).Sprint(l.Text)
	default:
		return l.Text
	}
}
