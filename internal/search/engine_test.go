package search

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/kurasu/internal/corpus"
	"github.com/hyperjump/kurasu/internal/models"
	"github.com/hyperjump/kurasu/internal/storage"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.SearchEvent
}

func (n *recordingNotifier) Notify(ev models.SearchEvent) {
	n.mu.Lock()
	n.events = append(n.events, ev)
	n.mu.Unlock()
}

type failingSource struct{}

func (failingSource) LoadRecords(context.Context) ([]models.SearchableRecord, error) {
	return nil, errors.New("no such table: allgrades")
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *storage.SQLiteStorage) {
	t.Helper()
	ctx := context.Background()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "grades.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	rows := []models.GradeRow{
		{SubjectID: "CSE", CourseNumber: "1310", CourseTitle: "Intro to Programming", Instructor: "Smith, John",
			SectionNumber: "001", Semester: "Fall", Year: 2023, CourseGPA: 3.1},
		{SubjectID: "CSE", CourseNumber: "1310", CourseTitle: "Intro to Programming", Instructor: "Nguyen, Anh",
			SectionNumber: "002", Semester: "Spring", Year: 2024, CourseGPA: 2.8},
		{SubjectID: "CSE", CourseNumber: "3318", CourseTitle: "Algorithms", Instructor: "Smith, John",
			SectionNumber: "001", Semester: "Fall", Year: 2024, CourseGPA: 2.6},
	}
	if _, err := store.ReplaceGrades(ctx, "test", rows); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertProfessorRatings(ctx, []models.ProfessorRating{
		{Name: "Smith, John", QualityRating: 4.2, DifficultyRating: 3.0, TotalRatings: 12, Tags: []string{"clear grading"}},
	}); err != nil {
		t.Fatal(err)
	}
	return NewEngine(corpus.New(store), store, opts...), store
}

func TestEngine_Suggest(t *testing.T) {
	notifier := &recordingNotifier{}
	engine, _ := newTestEngine(t, WithNotifier(notifier))
	ctx := context.Background()

	resp, err := engine.Suggest(ctx, models.SuggestRequest{Query: "  CSE13 ", Client: "c1"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Query != "CSE13" {
		t.Errorf("Query = %q, want trimmed input", resp.Query)
	}
	if len(resp.Courses) != 1 || resp.Courses[0].Text != "CSE 1310 Intro to Programming" {
		t.Fatalf("Courses = %+v", resp.Courses)
	}
	if len(resp.Professors) != 0 {
		t.Errorf("Professors = %+v, want none", resp.Professors)
	}
	if len(resp.Suggestions) != 1 {
		t.Errorf("Suggestions = %+v", resp.Suggestions)
	}
	if len(notifier.events) != 1 || notifier.events[0].Client != "c1" || notifier.events[0].CourseCount != 1 {
		t.Errorf("notifier events = %+v", notifier.events)
	}

	resp, err = engine.Suggest(ctx, models.SuggestRequest{Query: "smith"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Professors) != 1 || resp.Professors[0].Category != models.CategoryProfessor {
		t.Errorf("Professors = %+v", resp.Professors)
	}
}

func TestEngine_SuggestEmptyQuery(t *testing.T) {
	notifier := &recordingNotifier{}
	engine := NewEngine(corpus.New(failingSource{}), nil, WithNotifier(notifier))

	for _, q := range []string{"", "   ", "\t\n"} {
		resp, err := engine.Suggest(context.Background(), models.SuggestRequest{Query: q})
		if err != nil {
			t.Fatalf("Suggest(%q): %v", q, err)
		}
		if resp.Suggestions == nil || len(resp.Suggestions) != 0 {
			t.Errorf("Suggest(%q) = %+v, want empty non-nil list", q, resp.Suggestions)
		}
	}
	if engine.Corpus().Info().Loaded {
		t.Error("empty queries must not load the corpus")
	}
	if len(notifier.events) != 0 {
		t.Errorf("empty queries must not be recorded, got %d events", len(notifier.events))
	}
}

func TestEngine_SuggestCorpusUnavailable(t *testing.T) {
	engine := NewEngine(corpus.New(failingSource{}), nil)
	_, err := engine.Suggest(context.Background(), models.SuggestRequest{Query: "cse"})
	if !errors.Is(err, corpus.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestEngine_SuggestCache(t *testing.T) {
	engine, _ := newTestEngine(t, WithCache(time.Minute, time.Minute))
	ctx := context.Background()

	first, err := engine.Suggest(ctx, models.SuggestRequest{Query: "Algo"})
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached {
		t.Error("first query should not be cached")
	}
	second, err := engine.Suggest(ctx, models.SuggestRequest{Query: "algo"})
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached {
		t.Error("case-folded repeat should hit the cache")
	}
	if len(second.Courses) != len(first.Courses) || second.Courses[0] != first.Courses[0] {
		t.Errorf("cached result differs: %+v vs %+v", second.Courses, first.Courses)
	}
	if engine.CacheItems() != 1 {
		t.Errorf("CacheItems = %d, want 1", engine.CacheItems())
	}
	engine.FlushCache()
	if engine.CacheItems() != 0 {
		t.Errorf("CacheItems after flush = %d", engine.CacheItems())
	}
}

func TestEngine_SuggestResponseDoesNotAliasCache(t *testing.T) {
	engine, _ := newTestEngine(t, WithCache(time.Minute, time.Minute))
	ctx := context.Background()

	first, err := engine.Suggest(ctx, models.SuggestRequest{Query: "cse"})
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Courses) == 0 {
		t.Fatal("expected course suggestions")
	}
	want := first.Courses[0].Text
	first.Courses[0].Text = "mutated"
	first.Professors = append(first.Professors[:0], models.Suggestion{Text: "mutated"})

	second, err := engine.Suggest(ctx, models.SuggestRequest{Query: "cse"})
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached {
		t.Fatal("repeat should hit the cache")
	}
	if second.Courses[0].Text != want {
		t.Errorf("cached course = %q, want %q", second.Courses[0].Text, want)
	}
	for _, p := range second.Professors {
		if p.Text == "mutated" {
			t.Errorf("cached professors were mutated: %+v", second.Professors)
		}
	}
}

func TestEngine_CacheDisabled(t *testing.T) {
	engine, _ := newTestEngine(t, WithCache(0, time.Minute))
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		resp, err := engine.Suggest(ctx, models.SuggestRequest{Query: "cse"})
		if err != nil {
			t.Fatal(err)
		}
		if resp.Cached {
			t.Error("cache disabled but response reported cached")
		}
	}
	if engine.CacheItems() != 0 {
		t.Errorf("CacheItems = %d, want 0", engine.CacheItems())
	}
}

func TestEngine_Details(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	rows, err := engine.Details(ctx, models.DetailQuery{Kind: models.DetailCourse, Key: "CSE 1310", Sort: "year", Direction: "desc"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].Year != 2024 {
		t.Errorf("rows = %+v", rows)
	}

	_, err = engine.Details(ctx, models.DetailQuery{Kind: models.DetailCourse, Key: "CSE 1310", Sort: "year; DROP TABLE allgrades"})
	if !errors.Is(err, models.ErrInvalidSort) {
		t.Errorf("expected ErrInvalidSort, got %v", err)
	}
}

func TestEngine_ProfessorRating(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	r, err := engine.ProfessorRating(ctx, " smith, john ")
	if err != nil {
		t.Fatal(err)
	}
	if r.QualityRating != 4.2 || len(r.Tags) != 1 {
		t.Errorf("rating = %+v", r)
	}
	if _, err := engine.ProfessorRating(ctx, "Nobody"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := engine.ProfessorRating(ctx, "  "); !errors.Is(err, models.ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
}

func TestEngine_Status(t *testing.T) {
	engine, store := newTestEngine(t, WithCache(time.Minute, time.Minute))
	ctx := context.Background()

	status, err := engine.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if status.Corpus.Loaded {
		t.Error("corpus should not be loaded before the first query")
	}
	if status.GradeRows != 3 || status.RatedProfessors != 1 || status.SearchEvents != 0 {
		t.Errorf("status = %+v", status)
	}

	if _, err := engine.Suggest(ctx, models.SuggestRequest{Query: "cse"}); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordSearchEvent(ctx, &models.SearchEvent{ID: "e1", Query: "cse"}); err != nil {
		t.Fatal(err)
	}
	status, err = engine.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !status.Corpus.Loaded || status.Corpus.Courses != 2 || status.Corpus.Professors != 2 {
		t.Errorf("corpus = %+v", status.Corpus)
	}
	if status.CacheItems != 1 || status.SearchEvents != 1 {
		t.Errorf("status = %+v", status)
	}
}
