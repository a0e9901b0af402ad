package importer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperjump/kurasu/internal/models"
)

// ErrMissingColumns is returned when a grade table lacks the subject or course number column.
var ErrMissingColumns = errors.New("missing required columns")

type column int

const (
	colSubject column = iota
	colNumber
	colTitle
	colInstructor
	colSection
	colSemester
	colYear
	colGPA
	colCount
	colA
	colB
	colC
	colD
	colF
	colI
	colP
	colQ
	colW
	colZ
	colR
	numColumns
)

// headerAliases maps a folded header name to its column.
var headerAliases = map[string]column{
	"subjectid": colSubject, "subject": colSubject, "subj": colSubject,
	"coursenumber": colNumber, "catalognbr": colNumber, "catalognumber": colNumber, "number": colNumber,
	"coursetitle": colTitle, "title": colTitle, "coursedescription": colTitle,
	"instructor1": colInstructor, "instructor": colInstructor, "professor": colInstructor,
	"sectionnumber": colSection, "section": colSection,
	"semester": colSemester, "term": colSemester,
	"year":      colYear,
	"coursegpa": colGPA, "gpa": colGPA, "averagegpa": colGPA,
	"gradescount": colCount, "total": colCount, "totalgrades": colCount,
	"gradesa": colA, "a": colA,
	"gradesb": colB, "b": colB,
	"gradesc": colC, "c": colC,
	"gradesd": colD, "d": colD,
	"gradesf": colF, "f": colF,
	"gradesi": colI, "i": colI,
	"gradesp": colP, "p": colP,
	"gradesq": colQ, "q": colQ,
	"gradesw": colW, "w": colW,
	"gradesz": colZ, "z": colZ,
	"gradesr": colR, "r": colR,
}

func foldHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		switch r {
		case ' ', '_', '-', '.':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// mapHeader returns, per column, the index of its cell in a data row, or -1.
func mapHeader(header []string) ([numColumns]int, error) {
	var idx [numColumns]int
	for i := range idx {
		idx[i] = -1
	}
	for i, h := range header {
		if c, ok := headerAliases[foldHeader(h)]; ok && idx[c] < 0 {
			idx[c] = i
		}
	}
	if idx[colSubject] < 0 || idx[colNumber] < 0 {
		return idx, fmt.Errorf("%w: need subject and course number, have %v", ErrMissingColumns, header)
	}
	return idx, nil
}

// parseGrades converts a table whose first row is a header into grade rows.
// Rows without a subject or course number, or with malformed numbers, are skipped.
func parseGrades(table [][]string) (rows []models.GradeRow, skipped int, err error) {
	if len(table) == 0 {
		return nil, 0, fmt.Errorf("%w: empty table", ErrMissingColumns)
	}
	idx, err := mapHeader(table[0])
	if err != nil {
		return nil, 0, err
	}
	rows = make([]models.GradeRow, 0, len(table)-1)
	for _, record := range table[1:] {
		row, ok := parseRow(record, idx)
		if !ok {
			skipped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

func parseRow(record []string, idx [numColumns]int) (models.GradeRow, bool) {
	cell := func(c column) string {
		i := idx[c]
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	g := models.GradeRow{
		SubjectID:     cell(colSubject),
		CourseNumber:  cell(colNumber),
		CourseTitle:   cell(colTitle),
		Instructor:    cell(colInstructor),
		SectionNumber: cell(colSection),
		Semester:      cell(colSemester),
	}
	if g.SubjectID == "" || g.CourseNumber == "" {
		return g, false
	}

	ok := true
	atoi := func(c column) int {
		s := cell(c)
		if s == "" {
			return 0
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil {
				ok = false
				return 0
			}
			n = int(f)
		}
		return n
	}
	g.Year = atoi(colYear)
	if s := cell(colGPA); s != "" {
		gpa, err := strconv.ParseFloat(s, 64)
		if err != nil {
			ok = false
		}
		g.CourseGPA = gpa
	}
	counts := []*int{&g.GradesA, &g.GradesB, &g.GradesC, &g.GradesD, &g.GradesF,
		&g.GradesI, &g.GradesP, &g.GradesQ, &g.GradesW, &g.GradesZ, &g.GradesR}
	total := 0
	for i, p := range counts {
		*p = atoi(colA + column(i))
		total += *p
	}
	g.GradesCount = atoi(colCount)
	if idx[colCount] < 0 {
		g.GradesCount = total
	}
	return g, ok
}
