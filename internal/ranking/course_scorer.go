package ranking

import (
	"strings"

	"github.com/hyperjump/kurasu/internal/models"
)

// courseCandidate is a corpus record with its matching forms precomputed.
type courseCandidate struct {
	display      string
	lowerDisplay string
	lowerNumber  string
	lowerTitle   string
	strippedCode string
}

func newCourseCandidate(r models.SearchableRecord) courseCandidate {
	return courseCandidate{
		display:      r.CourseDisplay(),
		lowerDisplay: Fold(r.CourseDisplay()),
		lowerNumber:  Fold(r.CourseNumber),
		lowerTitle:   Fold(r.CourseTitle),
		strippedCode: StripSpaces(Fold(r.SubjectID + r.CourseNumber)),
	}
}

// scoreCourse assigns the best tier the query reaches against a course candidate.
// All predicates are literal prefix/substring tests; the query is never compiled as a pattern.
func scoreCourse(q NormalizedQuery, c *courseCandidate) Tier {
	switch {
	case strings.HasPrefix(c.lowerDisplay, q.Lower) || c.lowerNumber == q.Lower:
		return TierPrefix
	case strings.HasPrefix(c.strippedCode, q.Stripped):
		return TierStrippedPrefix
	case strings.Contains(c.lowerTitle, q.Lower):
		return TierTitleSubstring
	default:
		return TierNone
	}
}
