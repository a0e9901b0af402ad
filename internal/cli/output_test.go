package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/kurasu/internal/models"
)

func sampleSuggestions() *models.SuggestResponse {
	courses := []models.Suggestion{{Text: "CSE 1310 Intro to Programming", Category: models.CategoryCourse, Tier: 1}}
	professors := []models.Suggestion{{Text: "Smith, John", Category: models.CategoryProfessor, Tier: 1}}
	return &models.SuggestResponse{
		Query:       "cse",
		Courses:     courses,
		Professors:  professors,
		Suggestions: append(append([]models.Suggestion{}, courses...), professors...),
		QueryTime:   3,
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{" compact ", OutputCompact, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteSuggestions_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSuggestions(&buf, sampleSuggestions(), OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.SuggestResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded.Query != "cse" || len(decoded.Suggestions) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
	if !strings.Contains(buf.String(), `"type": "professor"`) {
		t.Errorf("JSON should carry the suggestion type: %s", buf.String())
	}
}

func TestWriteSuggestions_TextAndCompact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSuggestions(&buf, sampleSuggestions(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Found 2 suggestions", "--- Courses ---", "--- Professors ---", "Smith, John"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := WriteSuggestions(&buf, sampleSuggestions(), OutputCompact); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || lines[0] != "course\tCSE 1310 Intro to Programming" {
		t.Errorf("compact lines = %q", lines)
	}
}

func TestWriteDetails(t *testing.T) {
	rows := []models.GradeRow{{SubjectID: "CSE", CourseNumber: "1310", CourseTitle: "Intro to Programming",
		Instructor: "Smith, John", Semester: "Fall", Year: 2023, SectionNumber: "001", CourseGPA: 3.1, GradesA: 20}}

	var buf bytes.Buffer
	if err := WriteDetails(&buf, rows, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "COURSE") || !strings.Contains(buf.String(), "Fall 2023") {
		t.Errorf("table output:\n%s", buf.String())
	}

	buf.Reset()
	if err := WriteDetails(&buf, nil, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No grade records") {
		t.Errorf("empty output: %q", buf.String())
	}

	buf.Reset()
	if err := WriteDetails(&buf, nil, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty JSON = %q, want []", buf.String())
	}
}

func TestWriteRatingAndStatus(t *testing.T) {
	var buf bytes.Buffer
	r := &models.ProfessorRating{Name: "Smith, John", QualityRating: 4.2, TotalRatings: 9, Tags: []string{"caring", "tough grader"}}
	if err := WriteRating(&buf, r, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "4.2 / 5 (9 ratings)") || !strings.Contains(buf.String(), "caring, tough grader") {
		t.Errorf("rating output:\n%s", buf.String())
	}

	buf.Reset()
	size := int64(4096)
	s := &models.Status{GradeRows: 12, DiskUsageBytes: &size, Corpus: models.CorpusInfo{Loaded: true, Courses: 3},
		Analytics: &models.AnalyticsStats{Dropped: 1}}
	if err := WriteStatus(&buf, s, OutputText); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"grade_rows:         12", "disk_usage_bytes:   4096", "courses:            3", "dropped:            1"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("status output missing %q:\n%s", want, buf.String())
		}
	}
}
