package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/example/canvasai/internal/ports/primary"
)

// linePrompter reads answers line by line. Prompts go to out, which is
// stderr in practice so stdout stays clean.
type linePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newLinePrompter(in io.Reader, out io.Writer) *linePrompter {
	return &linePrompter{in: bufio.NewReader(in), out: out}
}

// Prompt asks for one value. An empty answer keeps defaultValue. Secret
// defaults are never echoed.
func (p *linePrompter) Prompt(label, defaultValue string, secret bool) (string, error) {
	switch {
	case defaultValue != "" && !secret:
		fmt.Fprintf(p.out, "%s [%s]: ", label, defaultValue)
	case defaultValue != "":
		fmt.Fprintf(p.out, "%s [keep current]: ", label)
	default:
		fmt.Fprintf(p.out, "%s: ", label)
	}

	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return defaultValue, nil
		}
		return "", fmt.Errorf("failed to read %s: %w", label, err)
	}
	answer := strings.TrimSpace(line)
	if answer == "" {
		return defaultValue, nil
	}
	return answer, nil
}

var _ primary.Prompter = (*linePrompter)(nil)
