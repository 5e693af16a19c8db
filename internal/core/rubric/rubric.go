// Package rubric scores draft text against assignment rubric criteria and
// iteratively appends improvement passes. Pure functions only.
package rubric

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Band is the per-criterion assessment.
type Band string

const (
	BandDeveloping  Band = "developing"
	BandApproaching Band = "approaching"
	BandProficient  Band = "proficient"
)

// DefaultMaxPasses is the optimization budget used by the workflow.
const DefaultMaxPasses = 2

const minDepth = 250

// ImprovementBlock is appended to a draft by every optimization pass that
// finds gaps.
const ImprovementBlock = "\n\n## Rubric improvement pass\n" +
	"- Clarified thesis statement for direct prompt alignment.\n" +
	"- Added concrete examples and evidence language.\n" +
	"- Improved transitions between supporting points.\n"

var defaultCriteria = []string{
	"Prompt coverage",
	"Evidence and examples",
	"Organization and clarity",
	"Grammar and style",
}

// Item is one rubric row as returned by the LMS.
type Item struct {
	Description     string `json:"description,omitempty"`
	Criterion       string `json:"criterion,omitempty"`
	LongDescription string `json:"long_description,omitempty"`
}

// CriterionResult is the assessment of one criterion.
type CriterionResult struct {
	Criterion      string   `json:"criterion"`
	Band           Band     `json:"estimated_score_band"`
	Gaps           []string `json:"gaps"`
	SuggestedFixes []string `json:"suggested_fixes"`
}

// Pass is one entry of the optimization log.
type Pass struct {
	Pass           int  `json:"pass"`
	ChangesApplied bool `json:"changes_applied"`
	GapCount       int  `json:"gap_count"`
}

// Summary is the optimization log.
type Summary struct {
	Passes    []Pass `json:"passes"`
	PassCount int    `json:"pass_count"`
}

// CriteriaFor returns the criterion labels for a rubric, falling back to the
// default set when no item carries a label.
func CriteriaFor(items []Item) []string {
	var criteria []string
	for _, it := range items {
		switch {
		case it.Description != "":
			criteria = append(criteria, it.Description)
		case it.Criterion != "":
			criteria = append(criteria, it.Criterion)
		case it.LongDescription != "":
			criteria = append(criteria, it.LongDescription)
		}
	}
	if len(criteria) == 0 {
		return append([]string(nil), defaultCriteria...)
	}
	return criteria
}

// Score assesses text against every criterion of the rubric.
func Score(items []Item, content string) []CriterionResult {
	text := strings.ToLower(strings.TrimSpace(content))
	length := utf8.RuneCountInString(text)
	concrete := strings.IndexFunc(text, unicode.IsDigit) >= 0 ||
		strings.Contains(text, "because") ||
		strings.Contains(text, "for example")
	questioning := strings.Contains(text, "?")

	criteria := CriteriaFor(items)
	rows := make([]CriterionResult, 0, len(criteria))
	for idx, criterion := range criteria {
		row := CriterionResult{Criterion: criterion}
		switch {
		case length < minDepth:
			row.Band = BandDeveloping
			row.Gaps = []string{"Needs more depth and detail"}
			row.SuggestedFixes = []string{"Add at least one concrete supporting paragraph"}
		case concrete:
			row.Band = BandProficient
			row.Gaps = []string{"Could strengthen specificity"}
			row.SuggestedFixes = []string{"Add source-backed facts and clearer transitions"}
		default:
			row.Band = BandApproaching
			row.Gaps = []string{"Limited concrete support"}
			row.SuggestedFixes = []string{"Add examples, data, or textual evidence"}
		}

		// The question-mark rule only ever tightens the first criterion.
		if idx == 0 && questioning {
			row.Band = BandApproaching
			row.Gaps = append(row.Gaps, "Main claim still exploratory")
			row.SuggestedFixes = append(row.SuggestedFixes, "Convert questions into a clear thesis statement")
		}
		rows = append(rows, row)
	}
	return rows
}

// Gaps returns the rows that are not yet proficient.
func Gaps(rows []CriterionResult) []CriterionResult {
	var out []CriterionResult
	for _, r := range rows {
		if r.Band != BandProficient {
			out = append(out, r)
		}
	}
	return out
}

// Optimize appends improvement passes to the draft until every criterion is
// proficient or maxPasses is spent, then re-scores the result. Termination
// does not imply every criterion is proficient.
func Optimize(items []Item, draft string, maxPasses int) (string, Summary, []CriterionResult) {
	current := draft
	passes := []Pass{}
	for idx := 1; idx <= maxPasses; idx++ {
		gaps := Gaps(Score(items, current))
		if len(gaps) == 0 {
			passes = append(passes, Pass{Pass: idx, ChangesApplied: false, GapCount: 0})
			break
		}
		current += ImprovementBlock
		passes = append(passes, Pass{Pass: idx, ChangesApplied: true, GapCount: len(gaps)})
	}
	return current, Summary{Passes: passes, PassCount: len(passes)}, Score(items, current)
}
