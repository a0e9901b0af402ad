package ranking

import "strings"

// professorCandidate is a distinct instructor name with its matching forms precomputed.
type professorCandidate struct {
	display  string
	lower    string
	stripped string
}

func newProfessorCandidate(name string) professorCandidate {
	lowered := Fold(name)
	return professorCandidate{
		display:  name,
		lower:    lowered,
		stripped: StripSpaces(lowered),
	}
}

// scoreProfessor assigns a tier for an instructor name. Professor matching is prefix-only:
// there is no substring tier, so fragments like "an" do not match every "Johnson".
func scoreProfessor(q NormalizedQuery, p *professorCandidate) Tier {
	switch {
	case strings.HasPrefix(p.lower, q.Lower):
		return TierPrefix
	case strings.HasPrefix(p.stripped, q.Stripped):
		return TierStrippedPrefix
	default:
		return TierNone
	}
}
