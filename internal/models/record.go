// Package models defines core data structures for the course corpus, suggestions, and detail lookups.
package models

import "time"

// SearchableRecord is one row of the reference corpus the suggestion ranker searches over.
type SearchableRecord struct {
	SubjectID      string `json:"subject_id" db:"subject_id"`
	CourseNumber   string `json:"course_number" db:"course_number"`
	CourseTitle    string `json:"course_title" db:"course_title"`
	InstructorName string `json:"instructor_name" db:"instructor1"`
}

// CourseDisplay returns the course suggestion text: "{subject} {number} {title}".
func (r SearchableRecord) CourseDisplay() string {
	return r.SubjectID + " " + r.CourseNumber + " " + r.CourseTitle
}

// CourseKey returns the folded detail-lookup key for the record's course, e.g. "cse 1310".
func (r SearchableRecord) CourseKey() string {
	return NormalizeQuery(r.SubjectID + " " + r.CourseNumber)
}

// InstructorKey returns the folded detail-lookup key for the record's instructor.
func (r SearchableRecord) InstructorKey() string {
	return NormalizeQuery(r.InstructorName)
}

// GradeRow is the grade distribution of one course section.
type GradeRow struct {
	SubjectID     string  `json:"subject_id" db:"subject_id"`
	CourseNumber  string  `json:"course_number" db:"course_number"`
	CourseTitle   string  `json:"course_title" db:"course_title"`
	Instructor    string  `json:"instructor1" db:"instructor1"`
	SectionNumber string  `json:"section_number" db:"section_number"`
	Semester      string  `json:"semester" db:"semester"`
	Year          int     `json:"year" db:"year"`
	CourseGPA     float64 `json:"course_gpa" db:"course_gpa"`
	GradesCount   int     `json:"grades_count" db:"grades_count"`
	GradesA       int     `json:"grades_A" db:"grades_A"`
	GradesB       int     `json:"grades_B" db:"grades_B"`
	GradesC       int     `json:"grades_C" db:"grades_C"`
	GradesD       int     `json:"grades_D" db:"grades_D"`
	GradesF       int     `json:"grades_F" db:"grades_F"`
	GradesI       int     `json:"grades_I" db:"grades_I"`
	GradesP       int     `json:"grades_P" db:"grades_P"`
	GradesQ       int     `json:"grades_Q" db:"grades_Q"`
	GradesW       int     `json:"grades_W" db:"grades_W"`
	GradesZ       int     `json:"grades_Z" db:"grades_Z"`
	GradesR       int     `json:"grades_R" db:"grades_R"`
}

// Record returns the searchable projection of the row.
func (g GradeRow) Record() SearchableRecord {
	return SearchableRecord{
		SubjectID:      g.SubjectID,
		CourseNumber:   g.CourseNumber,
		CourseTitle:    g.CourseTitle,
		InstructorName: g.Instructor,
	}
}

// ProfessorRating holds RateMyProfessor-style ratings for one instructor.
type ProfessorRating struct {
	Name             string   `json:"name"`
	RMPName          string   `json:"rmp_name"`
	URL              string   `json:"url"`
	Department       string   `json:"department"`
	QualityRating    float64  `json:"quality_rating"`
	DifficultyRating float64  `json:"difficulty_rating"`
	TotalRatings     int      `json:"total_ratings"`
	WouldTakeAgain   float64  `json:"would_take_again"`
	Tags             []string `json:"tags"`
}

// SearchEvent is one recorded suggestion query, written by the analytics recorder.
type SearchEvent struct {
	ID             string    `json:"id"`
	Query          string    `json:"query"`
	Client         string    `json:"client,omitempty"`
	CourseCount    int       `json:"course_count"`
	ProfessorCount int       `json:"professor_count"`
	CreatedAt      time.Time `json:"created_at"`
}
