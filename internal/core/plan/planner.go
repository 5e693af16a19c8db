package plan

import "fmt"

const untitled = "Untitled Assignment"

// Step is one numbered instruction in a stored plan.
type Step struct {
	Step        int    `json:"step"`
	Instruction string `json:"instruction"`
}

// GenerateSteps returns the fixed six-step study plan for an assignment.
func GenerateSteps(title string) []string {
	if title == "" {
		title = untitled
	}
	return []string{
		fmt.Sprintf("Understand requirements for '%s'", title),
		"Break prompt into subtasks and acceptance criteria",
		"Collect references/materials",
		"Draft response in your own words",
		"Revise for clarity and citation compliance",
		"Final human review before submission",
	}
}

// Number pairs each instruction with its 1-based step number.
func Number(steps []string) []Step {
	out := make([]Step, len(steps))
	for i, s := range steps {
		out[i] = Step{Step: i + 1, Instruction: s}
	}
	return out
}

// PlaceholderDraft returns the guidance text shown by the standalone draft
// command. Text generation is not wired to a model; when a model key is
// present the text says so.
func PlaceholderDraft(title string, modelKeyPresent bool) string {
	if title == "" {
		title = untitled
	}
	if modelKeyPresent {
		return fmt.Sprintf("AI draft generation is configured but not implemented in v1 for '%s'.", title)
	}
	return fmt.Sprintf("[Placeholder draft for: %s]\n", title) +
		"No LLM API key found. Add OPENAI_API_KEY or ANTHROPIC_API_KEY to enable AI drafting.\n" +
		"Suggested approach:\n" +
		"1. Restate the prompt in your own words.\n" +
		"2. Outline key points and required evidence.\n" +
		"3. Write your own first draft and review for originality."
}
