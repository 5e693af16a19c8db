package workflow

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/example/canvasai/internal/core/effects"
)

func TestDeriveSchedule(t *testing.T) {
	blocks := DeriveSchedule("2026-03-01T18:00:00Z")

	want := []ScheduleBlock{
		{Label: "Research", Start: "2026-02-24T16:00:00Z", End: "2026-02-24T17:00:00Z"},
		{Label: "Draft", Start: "2026-02-26T16:00:00Z", End: "2026-02-26T17:00:00Z"},
		{Label: "Revise", Start: "2026-02-28T16:00:00Z", End: "2026-02-28T17:00:00Z"},
		{Label: "Final QA", Start: "2026-03-01T16:00:00Z", End: "2026-03-01T17:00:00Z"},
	}
	if len(blocks) != len(want) {
		t.Fatalf("expected %d blocks, got %d", len(want), len(blocks))
	}
	for i := range want {
		if blocks[i] != want[i] {
			t.Errorf("block %d = %+v, want %+v", i, blocks[i], want[i])
		}
	}
}

func TestDeriveSchedule_OffsetDue(t *testing.T) {
	blocks := DeriveSchedule("2026-03-01T20:00:00+02:00")
	if len(blocks) != 4 || blocks[3].Start != "2026-03-01T16:00:00Z" {
		t.Errorf("expected UTC-normalized blocks, got %+v", blocks)
	}
}

func TestDeriveSchedule_NoDue(t *testing.T) {
	for _, due := range []string{"", "   ", "next tuesday"} {
		blocks := DeriveSchedule(due)
		if blocks == nil || len(blocks) != 0 {
			t.Errorf("DeriveSchedule(%q) = %v, want empty non-nil slice", due, blocks)
		}
	}
}

func TestGenerateModeOutput(t *testing.T) {
	tests := []struct {
		name        string
		in          ModeInput
		wantPrefix  string
		wantContain []string
		wantSummary string
	}{
		{
			name:        "tutor with goal",
			in:          ModeInput{Mode: ModeTutor, Title: "Essay 1", Goal: "cite sources"},
			wantPrefix:  "# Study guide for: Essay 1\n\n**Goal:** cite sources\n\n## Guided steps\n",
			wantContain: []string{"## Questions to answer", "## Study hints"},
			wantSummary: "Tutor mode generated guided steps, reflective questions, and study hints. Goal emphasis: cite sources.",
		},
		{
			name:        "outline",
			in:          ModeInput{Mode: ModeOutline, Title: "Essay 1"},
			wantPrefix:  "# Outline for: Essay 1\n\n## Section 1: Introduction\n",
			wantContain: []string{"## Section 4: Conclusion"},
			wantSummary: "Outline mode generated structured sections with goals.",
		},
		{
			name:        "polish uses supplied input",
			in:          ModeInput{Mode: ModePolish, Title: "Essay 1", Description: "desc", PolishInput: "  my text  "},
			wantPrefix:  "# Polished draft for: Essay 1\n\nmy text\n\n---\n",
			wantContain: []string{"## Rationale for revisions"},
			wantSummary: "Polish mode improved provided draft and included revision rationale.",
		},
		{
			name:       "polish falls back to description",
			in:         ModeInput{Mode: ModePolish, Description: " the prompt "},
			wantPrefix: "# Polished draft for: Untitled Assignment\n\nthe prompt\n\n",
		},
		{
			name:       "polish scaffold when nothing supplied",
			in:         ModeInput{Mode: ModePolish, Title: "T"},
			wantPrefix: "# Polished draft for: T\n\n(No input text provided; generated a revision scaffold.)\n\n",
		},
		{
			name:        "draft default",
			in:          ModeInput{Mode: ModeDraft, Title: "T"},
			wantPrefix:  "# First draft for: T\n\nThis draft addresses the prompt directly",
			wantSummary: "Draft mode generated a first-pass response.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := GenerateModeOutput(tt.in)
			if !strings.HasPrefix(out.Draft, tt.wantPrefix) {
				t.Errorf("draft prefix mismatch:\n got: %q\nwant: %q", out.Draft, tt.wantPrefix)
			}
			for _, c := range tt.wantContain {
				if !strings.Contains(out.Draft, c) {
					t.Errorf("draft missing %q", c)
				}
			}
			if tt.wantSummary != "" && out.Summary != tt.wantSummary {
				t.Errorf("summary = %q, want %q", out.Summary, tt.wantSummary)
			}
		})
	}
}

func TestGenerateModeOutput_HintsCapped(t *testing.T) {
	out := GenerateModeOutput(ModeInput{
		Mode:  ModeOutline,
		Title: "T",
		Hints: []string{"one", "two", "three", "four"},
	})
	if !strings.Contains(out.Draft, "\n## Instructor feedback memory\n- one\n- two\n- three\n") {
		t.Errorf("missing hints block:\n%s", out.Draft)
	}
	if strings.Contains(out.Draft, "four") {
		t.Errorf("expected at most 3 hints")
	}
}

const sampleDraft = "# Title\n" +
	"This opening sentence is long enough to count as a real claim.\n" +
	"short line.\n" +
	"Another sufficiently long sentence that ends with a period here.\n" +
	"A long line that does not end with a period but is long enough!"

func TestBuildSources(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	src := BuildSources("", sampleDraft, now)

	if src.Assignment != "Assignment" || src.CitationStyle != "placeholder" || src.GeneratedAt != "2026-02-01T00:00:00Z" {
		t.Errorf("unexpected header: %+v", src)
	}
	if len(src.Claims) != 2 {
		t.Fatalf("expected 2 claims, got %+v", src.Claims)
	}
	if src.Claims[0].ClaimID != "C2" || src.Claims[1].ClaimID != "C4" {
		t.Errorf("claim ids = %s, %s", src.Claims[0].ClaimID, src.Claims[1].ClaimID)
	}
	if src.Claims[1].EvidenceLinks[0].Placeholder != "[2]" {
		t.Errorf("second placeholder = %q", src.Claims[1].EvidenceLinks[0].Placeholder)
	}
}

func TestBuildSources_CapsAtFive(t *testing.T) {
	line := "This is one of many long sentences that each qualify as a claim."
	draft := strings.Repeat(line+"\n", 8)

	src := BuildSources("T", draft, time.Now())
	if len(src.Claims) != MaxClaims {
		t.Errorf("expected %d claims, got %d", MaxClaims, len(src.Claims))
	}
}

func TestBuildSources_EmptyClaimsSerializeAsArray(t *testing.T) {
	src := BuildSources("T", "nothing", time.Now())
	data, err := json.Marshal(src)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"claims":[]`) {
		t.Errorf("expected empty claims array, got %s", data)
	}
}

func TestInjectCitations(t *testing.T) {
	src := BuildSources("T", sampleDraft, time.Now())
	got := InjectCitations(sampleDraft, src)

	lines := strings.Split(got, "\n")
	if lines[1] != "This opening sentence is long enough to count as a real claim. [1]" {
		t.Errorf("line 2 = %q", lines[1])
	}
	if lines[3] != "Another sufficiently long sentence that ends with a period here. [2]" {
		t.Errorf("line 4 = %q", lines[3])
	}

	// A second injection is a no-op because the placeholder is already present.
	if again := InjectCitations(got, src); again != got {
		t.Errorf("re-injection changed the draft")
	}
}

func TestInjectCitations_DropsTrailingNewline(t *testing.T) {
	line := "A trailing sentence that is definitely longer than fifty characters."
	src := Sources{Claims: []Claim{{Text: line, EvidenceLinks: []EvidenceLink{{Placeholder: "[1]"}}}}}

	if got := InjectCitations(line+"\n", src); got != line+" [1]" {
		t.Errorf("InjectCitations() = %q", got)
	}
	if got := InjectCitations(line+"\n\n", src); got != line+" [1]\n" {
		t.Errorf("only one trailing newline should be dropped, got %q", got)
	}
	if got := InjectCitations("no claims\n", Sources{}); got != "no claims\n" {
		t.Errorf("draft without claims should be unchanged, got %q", got)
	}
}

func TestInjectCitations_FirstMatchWins(t *testing.T) {
	line := "Repeated sentence that is definitely longer than fifty characters."
	draft := line + "\n" + line
	src := Sources{Claims: []Claim{{
		ClaimID:       "C1",
		Text:          line,
		EvidenceLinks: []EvidenceLink{{Placeholder: "[1]"}},
	}}}

	got := InjectCitations(draft, src)
	want := line + " [1]\n" + line
	if got != want {
		t.Errorf("InjectCitations() = %q, want %q", got, want)
	}
}

func TestGenerateArtifactPlan(t *testing.T) {
	m := NewMetadata(9, ModeDraft, "", time.Now())
	m.Draft = "body"
	m.Plan = &Plan{ScheduleBlocks: []ScheduleBlock{}}

	plan, err := GenerateArtifactPlan(ArtifactPlanInput{RunID: "run_x", Dir: "/tmp/run_x", Metadata: m})
	if err != nil {
		t.Fatalf("GenerateArtifactPlan failed: %v", err)
	}
	if len(plan.FilesystemOps) != 7 {
		t.Fatalf("expected mkdir + 6 writes, got %d", len(plan.FilesystemOps))
	}
	if plan.FilesystemOps[0].Operation != "mkdir" || plan.FilesystemOps[0].Path != "/tmp/run_x" {
		t.Errorf("first op should create the run dir: %+v", plan.FilesystemOps[0])
	}
	if plan.Paths.PlanJSON != "/tmp/run_x/plan.json" {
		t.Errorf("plan path = %q", plan.Paths.PlanJSON)
	}

	contents := map[string]string{}
	for _, op := range plan.FilesystemOps {
		contents[op.Path] = string(op.Content)
	}
	if contents[plan.Paths.DraftMD] != "body" {
		t.Errorf("draft content = %q", contents[plan.Paths.DraftMD])
	}
	if contents[plan.Paths.ReviewJSON] != "{}" {
		t.Errorf("missing review should be an empty object, got %q", contents[plan.Paths.ReviewJSON])
	}
	if contents[plan.Paths.PlanJSON] != "{\n  \"schedule_blocks\": []\n}" {
		t.Errorf("plan json = %q", contents[plan.Paths.PlanJSON])
	}
	if contents[plan.Paths.SubmitChecklistMD] != SubmitChecklist {
		t.Errorf("checklist content mismatch")
	}
	effs := plan.Effects()
	if len(effs) != 8 {
		t.Fatalf("Effects() should list 7 file ops and a summary, got %d", len(effs))
	}
	summary, ok := effs[7].(effects.LogEffect)
	if !ok || summary.Message != "artifacts written" {
		t.Fatalf("last effect should be the summary log, got %+v", effs[7])
	}
	if summary.Fields["run_id"] != "run_x" || summary.Fields["files"] != 6 {
		t.Errorf("unexpected summary fields: %v", summary.Fields)
	}
}
