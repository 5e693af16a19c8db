package workflow

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxClaims caps how many citation candidates a draft yields.
	MaxClaims = 5

	minClaimLength = 50
	claimNote      = "Replace with course reading, lecture, or credible reference."
)

// BuildSources extracts citation-candidate claims from a draft. A line is a
// claim when its trimmed text is longer than 50 characters and ends with a
// period. Claim ids carry the 1-based line number.
func BuildSources(title, draft string, now time.Time) Sources {
	if title == "" {
		title = "Assignment"
	}
	claims := []Claim{}
	for i, line := range strings.Split(draft, "\n") {
		text := strings.TrimSpace(line)
		if utf8.RuneCountInString(text) > minClaimLength && strings.HasSuffix(text, ".") {
			claims = append(claims, Claim{
				ClaimID: fmt.Sprintf("C%d", i+1),
				Text:    text,
				EvidenceLinks: []EvidenceLink{{
					Placeholder: fmt.Sprintf("[%d]", len(claims)+1),
					Type:        "source_placeholder",
					Note:        claimNote,
				}},
			})
		}
		if len(claims) >= MaxClaims {
			break
		}
	}
	return Sources{
		Assignment:    title,
		GeneratedAt:   FormatTimestamp(now),
		CitationStyle: "placeholder",
		Claims:        claims,
	}
}

// InjectCitations appends each claim's placeholder to the first draft line
// containing the claim text that does not already carry that placeholder.
// A rewritten draft loses its final line break.
func InjectCitations(draft string, sources Sources) string {
	if len(sources.Claims) == 0 {
		return draft
	}
	lines := strings.Split(strings.TrimSuffix(draft, "\n"), "\n")
	for _, claim := range sources.Claims {
		placeholder := "[1]"
		if len(claim.EvidenceLinks) > 0 && claim.EvidenceLinks[0].Placeholder != "" {
			placeholder = claim.EvidenceLinks[0].Placeholder
		}
		if claim.Text == "" {
			continue
		}
		for i, line := range lines {
			if strings.Contains(line, claim.Text) && !strings.Contains(line, placeholder) {
				lines[i] = line + " " + placeholder
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}
