package ranking

import (
	"strings"
	"unicode"

	"github.com/hyperjump/kurasu/internal/models"
)

// NormalizedQuery holds the derived forms of a search query used throughout scoring.
type NormalizedQuery struct {
	// Original is the query as received.
	Original string
	// Lower is the trimmed, NFC-composed, lowercased query.
	Lower string
	// Stripped is Lower with every whitespace character removed.
	Stripped string
}

// Normalize computes the lowercase and stripped-space forms of query.
func Normalize(query string) NormalizedQuery {
	lowered := Fold(strings.TrimSpace(query))
	return NormalizedQuery{
		Original: query,
		Lower:    lowered,
		Stripped: StripSpaces(lowered),
	}
}

// Empty reports whether the query has no searchable content.
func (q NormalizedQuery) Empty() bool {
	return q.Lower == ""
}

// Fold brings s to NFC and lowercases it. Candidates and queries are folded the same way
// so a decomposed "é" in one matches a composed "é" in the other.
func Fold(s string) string {
	return models.Fold(s)
}

// StripSpaces removes all Unicode whitespace from s.
func StripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
