package importer

import (
	"errors"
	"testing"
)

func TestFoldHeader(t *testing.T) {
	tests := map[string]string{
		"Subject_ID":     "subjectid",
		" Catalog Nbr ":  "catalognbr",
		"Instructor 1":   "instructor1",
		"grades_A":       "gradesa",
		"\ufeffsubject":  "subject",
		"course-number.": "coursenumber",
	}
	for in, want := range tests {
		if got := foldHeader(in); got != want {
			t.Errorf("foldHeader(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseGrades(t *testing.T) {
	table := [][]string{
		{"subject_id", "course_number", "year", "grades_count", "a", "b"},
		{"CSE", "1310", "2023", "30", "10", "5"},
		{"CSE", "1320", "2023.0", "", "4"},
		{"CSE", "", "2023", "1", "1", "1"},
		{"CSE", "2312", "twenty", "1", "1", "1"},
	}
	rows, skipped, err := parseGrades(table)
	if err != nil {
		t.Fatal(err)
	}
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].GradesCount != 30 || rows[0].GradesA != 10 || rows[0].GradesB != 5 {
		t.Errorf("row 0 = %+v", rows[0])
	}
	// Short rows read missing cells as empty.
	if rows[1].Year != 2023 || rows[1].GradesA != 4 || rows[1].GradesB != 0 {
		t.Errorf("row 1 = %+v", rows[1])
	}
}

func TestParseGrades_MissingColumns(t *testing.T) {
	for _, table := range [][][]string{
		nil,
		{{"course_title", "instructor1"}},
		{{"subject_id"}},
	} {
		if _, _, err := parseGrades(table); !errors.Is(err, ErrMissingColumns) {
			t.Errorf("parseGrades(%v) err = %v, want ErrMissingColumns", table, err)
		}
	}
}
