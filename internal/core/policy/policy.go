// Package policy contains per-course rules that gate workflow and submission
// commands. Guards are pure functions that evaluate preconditions without
// side effects.
package policy

import (
	"fmt"
	"slices"
	"strconv"
	"time"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// Rule is the policy applied to one course.
type Rule struct {
	AllowedModes             []string `json:"allowed_modes,omitempty" yaml:"allowed_modes,omitempty"`
	DisableSubmit            bool     `json:"disable_submit,omitempty" yaml:"disable_submit,omitempty"`
	DryRunOnly               bool     `json:"dry_run_only,omitempty" yaml:"dry_run_only,omitempty"`
	MaxReviewTokenAgeMinutes *float64 `json:"max_review_token_age_minutes,omitempty" yaml:"max_review_token_age_minutes,omitempty"`
}

// Document is the whole policy file: a default rule plus per-course rules
// keyed by course id.
type Document struct {
	Default Rule            `json:"default" yaml:"default"`
	Courses map[string]Rule `json:"courses" yaml:"courses"`
}

// Template returns the policy written by `init`.
func Template() Document {
	maxAge := 10.0
	return Document{
		Default: Rule{
			AllowedModes:             []string{"tutor", "outline", "draft", "polish"},
			DryRunOnly:               true,
			MaxReviewTokenAgeMinutes: &maxAge,
		},
		Courses: map[string]Rule{},
	}
}

// IsEmpty reports whether the rule sets nothing, as a bare `{}` entry does.
func (r Rule) IsEmpty() bool {
	return r.AllowedModes == nil && !r.DisableSubmit && !r.DryRunOnly && r.MaxReviewTokenAgeMinutes == nil
}

// ForCourse returns the course rule, or the default when the course is
// unknown or its entry is empty.
func (d Document) ForCourse(courseID *int64) Rule {
	if courseID == nil {
		return d.Default
	}
	if r, ok := d.Courses[strconv.FormatInt(*courseID, 10)]; ok && !r.IsEmpty() {
		return r
	}
	return d.Default
}

// CanDo evaluates whether a workflow mode is permitted.
// Rules:
// - An empty allowed_modes list permits every mode
func CanDo(rule Rule, mode string) GuardResult {
	if len(rule.AllowedModes) > 0 && !slices.Contains(rule.AllowedModes, mode) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("POLICY_BLOCKED_MODE: mode '%s' is not allowed for this course", mode),
		}
	}
	return GuardResult{Allowed: true}
}

// SubmitContext provides context for submission guards.
type SubmitContext struct {
	Rule           Rule
	DryRun         bool
	TokenCreatedAt *time.Time // nil when no review token is known
	Now            time.Time
}

// CanSubmit evaluates whether a submission is permitted.
// Rules:
// - disable_submit blocks everything
// - dry_run_only requires a dry run
// - max_review_token_age_minutes applies to real submissions only
func CanSubmit(ctx SubmitContext) GuardResult {
	r := ctx.Rule
	if r.DisableSubmit {
		return GuardResult{Allowed: false, Reason: "POLICY_SUBMIT_DISABLED: submissions are disabled by course policy"}
	}
	if r.DryRunOnly && !ctx.DryRun {
		return GuardResult{Allowed: false, Reason: "POLICY_DRY_RUN_ONLY: policy requires --dry-run for this course"}
	}
	if ctx.DryRun || r.MaxReviewTokenAgeMinutes == nil {
		return GuardResult{Allowed: true}
	}
	if ctx.TokenCreatedAt == nil {
		return GuardResult{Allowed: false, Reason: "POLICY_REVIEW_TOKEN_REQUIRED: policy requires a recent review token for submit"}
	}
	age := ctx.Now.Sub(*ctx.TokenCreatedAt).Minutes()
	if age > *r.MaxReviewTokenAgeMinutes {
		return GuardResult{Allowed: false, Reason: "POLICY_REVIEW_TOKEN_TOO_OLD: review token is older than policy allows"}
	}
	return GuardResult{Allowed: true}
}
