// Package ranking provides tiered autocomplete ranking of course and professor names.
package ranking

import "github.com/hyperjump/kurasu/internal/models"

// DefaultLimit is the maximum number of suggestions returned per category.
const DefaultLimit = 20

// Tier is a match-quality bucket. Lower tiers sort first; TierNone is excluded from results.
type Tier int

const (
	// TierNone indicates the candidate did not match.
	TierNone Tier = iota
	// TierPrefix is a prefix match on the full display string, or an exact course number match.
	TierPrefix
	// TierStrippedPrefix is a prefix match with all whitespace removed from both sides.
	TierStrippedPrefix
	// TierTitleSubstring is a substring match inside a course title.
	TierTitleSubstring
)

// String returns a string representation of the tier.
func (t Tier) String() string {
	switch t {
	case TierNone:
		return "none"
	case TierPrefix:
		return "prefix"
	case TierStrippedPrefix:
		return "stripped_prefix"
	case TierTitleSubstring:
		return "title_substring"
	default:
		return "unknown"
	}
}

// Matched reports whether the tier represents a match.
func (t Tier) Matched() bool {
	return t > TierNone
}

// Result holds the independently ranked and truncated course and professor suggestions.
type Result struct {
	Courses    []models.Suggestion
	Professors []models.Suggestion
}

// Merged returns courses followed by professors.
func (r Result) Merged() []models.Suggestion {
	out := make([]models.Suggestion, 0, len(r.Courses)+len(r.Professors))
	out = append(out, r.Courses...)
	out = append(out, r.Professors...)
	return out
}

// Len returns the total number of suggestions in both categories.
func (r Result) Len() int {
	return len(r.Courses) + len(r.Professors)
}

func emptyResult() Result {
	return Result{Courses: []models.Suggestion{}, Professors: []models.Suggestion{}}
}
