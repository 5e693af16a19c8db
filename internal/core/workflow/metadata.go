package workflow

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/canvasai/internal/core/rubric"
)

// HistoryEntry records when a run entered a state.
type HistoryEntry struct {
	State State  `json:"state"`
	TS    string `json:"ts"`
}

// ScheduleBlock is one suggested work session before the due date.
type ScheduleBlock struct {
	Label string `json:"label"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Plan is the planning-stage output persisted to plan.json.
type Plan struct {
	ScheduleBlocks []ScheduleBlock `json:"schedule_blocks"`
}

// EvidenceLink is a citation placeholder attached to a claim.
type EvidenceLink struct {
	Placeholder string `json:"placeholder"`
	Type        string `json:"type"`
	Note        string `json:"note"`
}

// Claim is a draft sentence that should carry a citation.
type Claim struct {
	ClaimID       string         `json:"claim_id"`
	Text          string         `json:"text"`
	EvidenceLinks []EvidenceLink `json:"evidence_links"`
}

// Sources is the drafting-stage citation document.
type Sources struct {
	Assignment    string  `json:"assignment"`
	GeneratedAt   string  `json:"generated_at"`
	CitationStyle string  `json:"citation_style"`
	Claims        []Claim `json:"claims"`
}

// Review is the reviewing-stage rubric document.
type Review struct {
	RubricScores []rubric.CriterionResult `json:"rubric_scores"`
	Optimization rubric.Summary           `json:"optimization"`
	Notes        string                   `json:"notes"`
	Goal         string                   `json:"goal"`
}

// Evidence summarizes what the run was generated from.
type Evidence struct {
	AssignmentID   int64  `json:"assignment_id"`
	AssignmentName string `json:"assignment_name"`
	Mode           Mode   `json:"mode"`
	Goal           string `json:"goal"`
	GeneratedAt    string `json:"generated_at"`
}

// Artifacts holds the paths written by the ready stage.
type Artifacts struct {
	DraftMD           string `json:"draft_md"`
	EvidenceJSON      string `json:"evidence_json"`
	ReviewJSON        string `json:"review_json"`
	SourcesJSON       string `json:"sources_json"`
	PlanJSON          string `json:"plan_json"`
	SubmitChecklistMD string `json:"submit_checklist_md"`
}

// Metadata is the document persisted on a workflow run. Stage fields are
// optional so documents written by earlier stages decode cleanly.
type Metadata struct {
	AssignmentID int64          `json:"assignment_id"`
	Mode         Mode           `json:"mode,omitempty"`
	Goal         string         `json:"goal,omitempty"`
	State        State          `json:"state"`
	StateHistory []HistoryEntry `json:"state_history"`

	Draft             string     `json:"draft,omitempty"`
	Summary           string     `json:"summary,omitempty"`
	FeedbackHintsUsed []string   `json:"feedback_hints_used,omitempty"`
	Plan              *Plan      `json:"plan,omitempty"`
	Sources           *Sources   `json:"sources,omitempty"`
	Review            *Review    `json:"review,omitempty"`
	Evidence          *Evidence  `json:"evidence,omitempty"`
	Artifacts         *Artifacts `json:"artifacts,omitempty"`
}

// FormatTimestamp renders a time the way workflow documents store it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// NewMetadata seeds the document for a fresh run in the initial state.
func NewMetadata(assignmentID int64, mode Mode, goal string, now time.Time) Metadata {
	return Metadata{
		AssignmentID: assignmentID,
		Mode:         mode,
		Goal:         goal,
		State:        InitialState(),
		StateHistory: []HistoryEntry{{State: InitialState(), TS: FormatTimestamp(now)}},
	}
}

// Advance moves the document to the next state and appends a history entry.
// Only the immediate successor of the current state is accepted.
func (m *Metadata) Advance(to State, now time.Time) error {
	next, ok := m.State.Next()
	if !ok {
		return fmt.Errorf("workflow is already %s", m.State)
	}
	if to != next {
		return fmt.Errorf("cannot advance from %s to %s (next is %s)", m.State, to, next)
	}
	m.State = to
	m.StateHistory = append(m.StateHistory, HistoryEntry{State: to, TS: FormatTimestamp(now)})
	return nil
}

// Encode serializes the document for storage.
func (m Metadata) Encode() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode workflow metadata: %w", err)
	}
	return string(data), nil
}

// DecodeMetadata parses a stored document. An empty document yields zero
// metadata. When the document has no state, fallbackState is used.
func DecodeMetadata(raw string, fallbackState string) (Metadata, error) {
	var m Metadata
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return Metadata{}, fmt.Errorf("failed to decode workflow metadata: %w", err)
		}
	}
	if m.State == "" {
		m.State = State(fallbackState)
	}
	if _, err := ParseState(string(m.State)); err != nil {
		return Metadata{}, err
	}
	return m, nil
}
