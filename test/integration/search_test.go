// Package integration provides end-to-end tests (requires real storage and importers).
package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kurasu/internal/analytics"
	"github.com/hyperjump/kurasu/internal/config"
	"github.com/hyperjump/kurasu/internal/corpus"
	"github.com/hyperjump/kurasu/internal/importer"
	"github.com/hyperjump/kurasu/internal/models"
	"github.com/hyperjump/kurasu/internal/search"
	"github.com/hyperjump/kurasu/internal/server"
	"github.com/hyperjump/kurasu/internal/storage"
	"go.uber.org/zap"
)

const gradesCSV = `subject_id,course_number,course_title,instructor1,section_number,semester,year,course_gpa,grades_A,grades_B,grades_C,grades_D,grades_F
CSE,1310,Intro to Programming,"Smith, John",001,Fall,2023,3.1,20,10,5,2,1
CSE,1310,Intro to Programming,"Smith, John",002,Spring,2024,2.9,15,12,6,3,2
CSE,1320,Intermediate Programming,"Lee, Dana",001,Fall,2023,2.8,10,10,8,2,2
MATH,1426,Calculus I,"Nguyen, Anh",001,Fall,2022,2.5,8,9,10,4,5
`

const ratingsJSON = `{"professors": [{"name": "Smith, John", "quality_rating": 4.4, "difficulty_rating": 3.0, "total_ratings": 31}]}`

func TestIntegration_ImportSuggestDetails(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Storage: config.StorageConfig{DatabasePath: filepath.Join(dir, "db.sqlite")}}
	config.ApplyDefaults(cfg)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	dropDir := filepath.Join(dir, "drop")
	if err := os.MkdirAll(dropDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dropDir, "fall.csv"), []byte(gradesCSV), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dropDir, "ratings.json"), []byte(ratingsJSON), 0644); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	imp := importer.New(store)
	results, err := imp.ImportDirectory(ctx, dropDir, cfg.Import.Extensions, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("imported %d files, want 2", len(results))
	}

	rec := analytics.NewRecorder(store, analytics.WithDebounce(0))
	engine := search.NewEngine(
		corpus.New(store, corpus.WithLimit(cfg.Suggest.Limit)),
		store,
		search.WithCache(cfg.Suggest.CacheTTL, cfg.Suggest.CacheCleanup),
		search.WithNotifier(rec),
	)
	srv := server.NewServer(engine, cfg, zap.NewNop(), server.WithRecorder(rec))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	var suggestions models.SuggestResponse
	getJSON(t, ts.URL+"/api/v1/suggest?query=cse13", &suggestions)
	if len(suggestions.Courses) != 2 {
		t.Fatalf("courses = %+v, want CSE 1310 and CSE 1320", suggestions.Courses)
	}
	if suggestions.Courses[0].Text != "CSE 1310 Intro to Programming" {
		t.Errorf("first course = %q", suggestions.Courses[0].Text)
	}

	var rows []models.GradeRow
	getJSON(t, ts.URL+"/api/v1/courses/search?query=zzz&course=cse%201310&sort=year&direction=desc", &rows)
	if len(rows) != 2 || rows[0].Year != 2024 {
		t.Errorf("detail rows = %+v", rows)
	}

	var rating models.ProfessorRating
	getJSON(t, ts.URL+"/api/v1/professors/rating?name=Smith,%20John", &rating)
	if rating.QualityRating != 4.4 || rating.TotalRatings != 31 {
		t.Errorf("rating = %+v", rating)
	}

	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}
	events, err := store.CountSearchEvents(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if events != 2 {
		t.Errorf("search events = %d, want 2", events)
	}
}

func getJSON(t *testing.T, url string, out interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatal(err)
	}
}
