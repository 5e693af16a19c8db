package workflow

import (
	"path/filepath"

	"github.com/example/canvasai/internal/core/canonical"
	"github.com/example/canvasai/internal/core/effects"
)

// SubmitChecklist is the fixed checklist written beside every run's artifacts.
const SubmitChecklist = "# Submit checklist\n\n" +
	"- [ ] I reviewed the draft for accuracy and originality.\n" +
	"- [ ] I verified rubric criteria coverage.\n" +
	"- [ ] I ran my own final edits and citations check.\n" +
	"- [ ] I will submit manually using review + submit safeguards.\n"

// ArtifactPlanInput contains the inputs needed to plan artifact output.
// All values are pre-fetched by the caller - no I/O in the planner.
type ArtifactPlanInput struct {
	RunID    string
	Dir      string
	Metadata Metadata
}

// ArtifactPlan represents the planned effects for writing a run's artifacts.
type ArtifactPlan struct {
	Dir           string
	Paths         Artifacts
	FilesystemOps []effects.FileEffect
	Summary       effects.LogEffect
}

// Effects returns the file operations followed by the summary log line.
func (p ArtifactPlan) Effects() []effects.Effect {
	result := make([]effects.Effect, 0, len(p.FilesystemOps)+1)
	for _, e := range p.FilesystemOps {
		result = append(result, e)
	}
	return append(result, p.Summary)
}

// GenerateArtifactPlan lays out the six artifact files for a run.
// JSON documents are canonical and indented so reruns are byte-stable.
func GenerateArtifactPlan(in ArtifactPlanInput) (ArtifactPlan, error) {
	m := in.Metadata
	plan := ArtifactPlan{
		Dir: in.Dir,
		Paths: Artifacts{
			DraftMD:           filepath.Join(in.Dir, "draft.md"),
			EvidenceJSON:      filepath.Join(in.Dir, "evidence.json"),
			ReviewJSON:        filepath.Join(in.Dir, "review.json"),
			SourcesJSON:       filepath.Join(in.Dir, "sources.json"),
			PlanJSON:          filepath.Join(in.Dir, "plan.json"),
			SubmitChecklistMD: filepath.Join(in.Dir, "submit_checklist.md"),
		},
	}

	docs := []struct {
		path string
		doc  any
	}{
		{plan.Paths.EvidenceJSON, orEmpty(m.Evidence)},
		{plan.Paths.ReviewJSON, orEmpty(m.Review)},
		{plan.Paths.SourcesJSON, orEmpty(m.Sources)},
		{plan.Paths.PlanJSON, orEmpty(m.Plan)},
	}

	plan.FilesystemOps = append(plan.FilesystemOps,
		effects.FileEffect{Operation: "mkdir", Path: in.Dir, Mode: 0755},
		effects.FileEffect{Operation: "write", Path: plan.Paths.DraftMD, Content: []byte(m.Draft), Mode: 0644},
	)
	for _, d := range docs {
		content, err := canonical.Indent(d.doc)
		if err != nil {
			return ArtifactPlan{}, err
		}
		plan.FilesystemOps = append(plan.FilesystemOps, effects.FileEffect{
			Operation: "write",
			Path:      d.path,
			Content:   content,
			Mode:      0644,
		})
	}
	plan.FilesystemOps = append(plan.FilesystemOps, effects.FileEffect{
		Operation: "write",
		Path:      plan.Paths.SubmitChecklistMD,
		Content:   []byte(SubmitChecklist),
		Mode:      0644,
	})

	var written int
	for _, op := range plan.FilesystemOps {
		if op.Operation == "write" {
			written++
		}
	}
	plan.Summary = effects.LogEffect{
		Level:   "info",
		Message: "artifacts written",
		Fields:  map[string]any{"run_id": in.RunID, "dir": in.Dir, "files": written},
	}
	return plan, nil
}

// orEmpty maps a nil document pointer to an empty JSON object.
func orEmpty[T any](p *T) any {
	if p == nil {
		return map[string]any{}
	}
	return p
}
