package models

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DetailKind selects whether a detail lookup filters by course or by professor.
type DetailKind string

const (
	DetailCourse    DetailKind = "course"
	DetailProfessor DetailKind = "professor"
)

// Default sort applied when a detail query does not name one.
const (
	DefaultSortColumn = "course_number"
	DefaultDirection  = "asc"
)

var (
	// ErrEmptyKey is returned when a detail query has no course or professor key.
	ErrEmptyKey = errors.New("detail key cannot be empty")
	// ErrInvalidSort is returned when the sort column is not a grade row column.
	ErrInvalidSort = errors.New("invalid sort column")
	// ErrInvalidDirection is returned when the direction is neither asc nor desc.
	ErrInvalidDirection = errors.New("invalid sort direction")
	// ErrInvalidKind is returned for an unknown detail kind.
	ErrInvalidKind = errors.New("invalid detail kind")
)

// sortColumns are the grade row columns a caller may sort detail rows by.
var sortColumns = map[string]bool{
	"subject_id":     true,
	"course_number":  true,
	"course_title":   true,
	"instructor1":    true,
	"section_number": true,
	"semester":       true,
	"year":           true,
	"course_gpa":     true,
	"grades_count":   true,
	"grades_A":       true,
	"grades_B":       true,
	"grades_C":       true,
	"grades_D":       true,
	"grades_F":       true,
	"grades_I":       true,
	"grades_P":       true,
	"grades_Q":       true,
	"grades_W":       true,
	"grades_Z":       true,
	"grades_R":       true,
}

// IsSortColumn reports whether column may be used to order detail rows.
func IsSortColumn(column string) bool {
	return sortColumns[column]
}

// DetailQuery is an equality-filtered lookup of grade rows for one course or professor.
type DetailQuery struct {
	Kind      DetailKind `json:"kind"`
	Key       string     `json:"key"`
	Sort      string     `json:"sort,omitempty"`
	Direction string     `json:"direction,omitempty"`
}

// Validate normalizes the key to trimmed lowercase, fills sort defaults, and rejects
// unknown kinds, sort columns, and directions.
func (q *DetailQuery) Validate() error {
	if q.Kind != DetailCourse && q.Kind != DetailProfessor {
		return ErrInvalidKind
	}
	q.Key = NormalizeQuery(q.Key)
	if q.Key == "" {
		return ErrEmptyKey
	}
	if q.Sort == "" {
		q.Sort = DefaultSortColumn
	}
	if !IsSortColumn(q.Sort) {
		return ErrInvalidSort
	}
	q.Direction = strings.ToLower(strings.TrimSpace(q.Direction))
	if q.Direction == "" {
		q.Direction = DefaultDirection
	}
	if q.Direction != "asc" && q.Direction != "desc" {
		return ErrInvalidDirection
	}
	return nil
}

// NormalizeQuery trims and case-folds raw search input.
func NormalizeQuery(raw string) string {
	return Fold(strings.TrimSpace(raw))
}

// Fold brings s to NFC and lowercases it with full Unicode case mapping.
// Stored lookup keys and incoming keys are folded the same way.
func Fold(s string) string {
	if isASCII(s) {
		return strings.ToLower(s)
	}
	return strings.ToLower(norm.NFC.String(s))
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
