package workflow

import (
	"strings"
)

// MaxFeedbackHints caps how many instructor hints a draft carries.
const MaxFeedbackHints = 3

const defaultTitle = "Untitled Assignment"

// ModeInput contains everything the planning stage needs to render a draft.
// All values are pre-fetched by the caller.
type ModeInput struct {
	Mode        Mode
	Title       string
	Description string
	PolishInput string
	Goal        string
	Hints       []string
}

// ModeOutput is the rendered draft and a one-line summary of it.
type ModeOutput struct {
	Draft   string
	Summary string
}

// GenerateModeOutput renders the mode-specific draft template.
func GenerateModeOutput(in ModeInput) ModeOutput {
	title := in.Title
	if title == "" {
		title = defaultTitle
	}
	description := strings.TrimSpace(in.Description)

	goalLine := ""
	if in.Goal != "" {
		goalLine = "\n**Goal:** " + in.Goal + "\n"
	}
	hints := renderHints(in.Hints)

	var b strings.Builder
	var summary string
	switch in.Mode {
	case ModeTutor:
		b.WriteString("# Study guide for: " + title + "\n")
		b.WriteString(goalLine + "\n")
		b.WriteString("## Guided steps\n")
		b.WriteString("1. Restate the assignment requirements in your own words.\n")
		b.WriteString("2. Identify what evidence or examples are required.\n")
		b.WriteString("3. Draft a thesis and test it against the prompt.\n")
		b.WriteString("4. Build an outline with claim -> support -> explanation.\n")
		b.WriteString("5. Self-check for rubric alignment before writing final prose.\n\n")
		b.WriteString("## Questions to answer\n")
		b.WriteString("- What is the core claim you want to make?\n")
		b.WriteString("- Which strongest two pieces of evidence support it?\n")
		b.WriteString("- Where could a reader disagree, and how will you address that?\n\n")
		b.WriteString(hints)
		b.WriteString("## Study hints\n")
		b.WriteString("- Use short work sprints and revise between sprints.\n")
		b.WriteString("- Keep a rubric checklist visible while drafting.\n")
		b.WriteString("- Explain each paragraph out loud to verify understanding.\n")
		summary = "Tutor mode generated guided steps, reflective questions, and study hints."
	case ModeOutline:
		b.WriteString("# Outline for: " + title + "\n")
		b.WriteString(goalLine + "\n")
		b.WriteString("## Section 1: Introduction\n")
		b.WriteString("- Goal: frame the prompt and present a clear thesis.\n\n")
		b.WriteString("## Section 2: Key point A\n")
		b.WriteString("- Goal: support thesis with strongest evidence/example.\n\n")
		b.WriteString("## Section 3: Key point B\n")
		b.WriteString("- Goal: expand analysis and address implications/counterpoint.\n\n")
		b.WriteString("## Section 4: Conclusion\n")
		b.WriteString("- Goal: synthesize argument and reinforce significance.\n")
		b.WriteString(hints)
		summary = "Outline mode generated structured sections with goals."
	case ModePolish:
		base := description
		if in.PolishInput != "" {
			base = strings.TrimSpace(in.PolishInput)
		}
		if base == "" {
			base = "(No input text provided; generated a revision scaffold.)"
		}
		b.WriteString("# Polished draft for: " + title + "\n")
		b.WriteString(goalLine + "\n")
		b.WriteString(base + "\n\n")
		b.WriteString("---\n")
		b.WriteString("## Rationale for revisions\n")
		b.WriteString("- Improved clarity with tighter topic sentences.\n")
		b.WriteString("- Strengthened flow using explicit transitions.\n")
		b.WriteString("- Elevated tone for academic consistency.\n")
		b.WriteString(hints)
		summary = "Polish mode improved provided draft and included revision rationale."
	default:
		b.WriteString("# First draft for: " + title + "\n")
		b.WriteString(goalLine + "\n")
		b.WriteString("This draft addresses the prompt directly, presents a main claim, " +
			"and supports that claim with evidence and explanation. " +
			"Expand each paragraph with assignment-specific details " +
			"and citations where required.\n")
		b.WriteString(hints)
		summary = "Draft mode generated a first-pass response."
	}

	if in.Goal != "" {
		summary += " Goal emphasis: " + in.Goal + "."
	}
	return ModeOutput{Draft: b.String(), Summary: summary}
}

func renderHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	if len(hints) > MaxFeedbackHints {
		hints = hints[:MaxFeedbackHints]
	}
	lines := make([]string, len(hints))
	for i, h := range hints {
		lines[i] = "- " + h
	}
	return "\n## Instructor feedback memory\n" + strings.Join(lines, "\n") + "\n"
}
