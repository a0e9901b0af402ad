package ranking

import (
	"sort"

	"github.com/hyperjump/kurasu/internal/models"
)

// Index is an immutable, query-ready view of a corpus. Building it once per corpus
// snapshot avoids re-folding every record on every keystroke.
type Index struct {
	courses    []courseCandidate
	professors []professorCandidate
	limit      int
}

// IndexOption configures an Index.
type IndexOption func(*Index)

// WithLimit sets the per-category result cap. Non-positive values keep DefaultLimit.
func WithLimit(n int) IndexOption {
	return func(idx *Index) {
		if n > 0 {
			idx.limit = n
		}
	}
}

// NewIndex precomputes matching forms for every distinct course and instructor in corpus.
// corpus is only read.
func NewIndex(corpus []models.SearchableRecord, opts ...IndexOption) *Index {
	idx := &Index{limit: DefaultLimit}
	for _, opt := range opts {
		opt(idx)
	}

	seenCourse := make(map[models.SearchableRecord]struct{})
	seenProf := make(map[string]struct{})
	for _, r := range corpus {
		course := models.SearchableRecord{SubjectID: r.SubjectID, CourseNumber: r.CourseNumber, CourseTitle: r.CourseTitle}
		if _, ok := seenCourse[course]; !ok && (course.SubjectID != "" || course.CourseNumber != "") {
			seenCourse[course] = struct{}{}
			idx.courses = append(idx.courses, newCourseCandidate(course))
		}
		if r.InstructorName == "" {
			continue
		}
		if _, ok := seenProf[r.InstructorName]; !ok {
			seenProf[r.InstructorName] = struct{}{}
			idx.professors = append(idx.professors, newProfessorCandidate(r.InstructorName))
		}
	}
	return idx
}

// Courses returns the number of distinct courses in the index.
func (idx *Index) Courses() int { return len(idx.courses) }

// Professors returns the number of distinct instructors in the index.
func (idx *Index) Professors() int { return len(idx.professors) }

// Rank returns up to limit course and limit professor suggestions for query.
// An empty (or whitespace-only) query yields an empty result.
func (idx *Index) Rank(query string) Result {
	q := Normalize(query)
	if q.Empty() {
		return emptyResult()
	}

	courses := make(map[string]Tier)
	for i := range idx.courses {
		c := &idx.courses[i]
		if tier := scoreCourse(q, c); tier.Matched() {
			keepBest(courses, c.display, tier)
		}
	}
	professors := make(map[string]Tier)
	for i := range idx.professors {
		p := &idx.professors[i]
		if tier := scoreProfessor(q, p); tier.Matched() {
			keepBest(professors, p.display, tier)
		}
	}

	return Result{
		Courses:    rankCategory(courses, models.CategoryCourse, idx.limit),
		Professors: rankCategory(professors, models.CategoryProfessor, idx.limit),
	}
}

// Rank ranks corpus against query with the default limit. It is a pure function of its inputs.
func Rank(query string, corpus []models.SearchableRecord) Result {
	if Normalize(query).Empty() {
		return emptyResult()
	}
	return NewIndex(corpus).Rank(query)
}

// keepBest records tier for display unless a better (lower) tier was already seen.
// The display string is the dedup key.
func keepBest(m map[string]Tier, display string, tier Tier) {
	if prev, ok := m[display]; ok && prev <= tier {
		return
	}
	m[display] = tier
}

// rankCategory orders matches by tier, then display string ascending, and truncates to limit.
func rankCategory(matches map[string]Tier, category models.Category, limit int) []models.Suggestion {
	out := make([]models.Suggestion, 0, len(matches))
	for display, tier := range matches {
		out = append(out, models.Suggestion{Text: display, Category: category, Tier: int(tier)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		return out[i].Text < out[j].Text
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
