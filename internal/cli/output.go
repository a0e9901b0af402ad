// Package cli provides output rendering for the kurasu command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/hyperjump/kurasu/internal/models"
	"github.com/hyperjump/kurasu/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one line per item, suitable for piping.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat parses a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSuggestions writes a suggestion response to w in the given format.
func WriteSuggestions(w io.Writer, resp *models.SuggestResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, resp)
	case OutputCompact:
		for _, s := range resp.Suggestions {
			if _, err := fmt.Fprintf(w, "%s\t%s\n", s.Category, s.Text); err != nil {
				return err
			}
		}
		return nil
	default:
		writeSuggestionsText(w, resp)
		return nil
	}
}

func writeSuggestionsText(w io.Writer, resp *models.SuggestResponse) {
	cached := ""
	if resp.Cached {
		cached = ", cached"
	}
	fmt.Fprintf(w, "\nFound %d suggestions for %q in %dms (%d courses, %d professors%s)\n",
		len(resp.Suggestions), resp.Query, resp.QueryTime, len(resp.Courses), len(resp.Professors), cached)
	writeGroup(w, "Courses", resp.Courses)
	writeGroup(w, "Professors", resp.Professors)
	fmt.Fprintln(w)
}

func writeGroup(w io.Writer, title string, items []models.Suggestion) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n--- %s ---\n", title)
	for i, s := range items {
		fmt.Fprintf(w, "%2d. %s\n", i+1, s.Text)
	}
}

// WriteDetails writes grade rows to w. Text output is an aligned table.
func WriteDetails(w io.Writer, rows []models.GradeRow, format OutputFormat) error {
	switch format {
	case OutputJSON:
		if rows == nil {
			rows = []models.GradeRow{}
		}
		return writeJSON(w, rows)
	case OutputCompact:
		for _, g := range rows {
			if _, err := fmt.Fprintf(w, "%s %s\t%s\t%s %d\t%s\t%.2f\n",
				g.SubjectID, g.CourseNumber, g.Instructor, g.Semester, g.Year, g.SectionNumber, g.CourseGPA); err != nil {
				return err
			}
		}
		return nil
	default:
		if len(rows) == 0 {
			_, err := fmt.Fprintln(w, "No grade records found.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "COURSE\tTITLE\tINSTRUCTOR\tTERM\tSECTION\tGPA\tA\tB\tC\tD\tF\tW\tTOTAL")
		for _, g := range rows {
			fmt.Fprintf(tw, "%s %s\t%s\t%s\t%s %d\t%s\t%.2f\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
				g.SubjectID, g.CourseNumber, utils.Truncate(g.CourseTitle, 32), g.Instructor, g.Semester, g.Year,
				g.SectionNumber, g.CourseGPA, g.GradesA, g.GradesB, g.GradesC, g.GradesD, g.GradesF, g.GradesW,
				g.GradesCount)
		}
		return tw.Flush()
	}
}

// WriteRating writes a professor rating to w.
func WriteRating(w io.Writer, r *models.ProfessorRating, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, r)
	}
	if format == OutputCompact {
		_, err := fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%d\n", r.Name, r.QualityRating, r.DifficultyRating, r.TotalRatings)
		return err
	}
	fmt.Fprintf(w, "%s\n", r.Name)
	if r.Department != "" {
		fmt.Fprintf(w, "  department:       %s\n", r.Department)
	}
	fmt.Fprintf(w, "  quality:          %.1f / 5 (%d ratings)\n", r.QualityRating, r.TotalRatings)
	fmt.Fprintf(w, "  difficulty:       %.1f / 5\n", r.DifficultyRating)
	if r.WouldTakeAgain > 0 {
		fmt.Fprintf(w, "  would take again: %.0f%%\n", r.WouldTakeAgain)
	}
	if len(r.Tags) > 0 {
		fmt.Fprintf(w, "  tags:             %s\n", strings.Join(r.Tags, ", "))
	}
	if r.URL != "" {
		fmt.Fprintf(w, "  url:              %s\n", r.URL)
	}
	return nil
}

// WriteStatus writes the service status to w.
func WriteStatus(w io.Writer, s *models.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, s)
	}
	fmt.Fprintf(w, "grade_rows:         %d   # rows in allgrades\n", s.GradeRows)
	fmt.Fprintf(w, "rated_professors:   %d   # professors with ratings\n", s.RatedProfessors)
	fmt.Fprintf(w, "search_events:      %d   # recorded suggestion queries\n", s.SearchEvents)
	if s.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # %s database + WAL on disk\n", *s.DiskUsageBytes, utils.FormatBytes(*s.DiskUsageBytes))
	}
	if s.DatabasePath != "" {
		fmt.Fprintf(w, "database_path:      %s\n", s.DatabasePath)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# corpus")
	fmt.Fprintf(w, "loaded:             %t\n", s.Corpus.Loaded)
	if s.Corpus.Loaded {
		fmt.Fprintf(w, "records:            %d\n", s.Corpus.Records)
		fmt.Fprintf(w, "courses:            %d\n", s.Corpus.Courses)
		fmt.Fprintf(w, "professors:         %d\n", s.Corpus.Professors)
		fmt.Fprintf(w, "load_duration_ms:   %d\n", s.Corpus.LoadDuration)
	}
	fmt.Fprintf(w, "cache_items:        %d\n", s.CacheItems)
	if a := s.Analytics; a != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# analytics")
		fmt.Fprintf(w, "recorded:           %d\n", a.Recorded)
		fmt.Fprintf(w, "dropped:            %d\n", a.Dropped)
		fmt.Fprintf(w, "failed:             %d\n", a.Failed)
		fmt.Fprintf(w, "pending:            %d\n", a.Pending)
	}
	return nil
}
