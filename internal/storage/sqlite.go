// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kurasu/internal/models"
)

// gradeColumns lists allgrades columns in GradeRow field order.
const gradeColumns = `subject_id, course_number, course_title, instructor1, section_number, semester, year,
	course_gpa, grades_count, grades_A, grades_B, grades_C, grades_D, grades_F, grades_I, grades_P,
	grades_Q, grades_W, grades_Z, grades_R`

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA cache_size = 10000",
		"PRAGMA temp_store = MEMORY",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS allgrades (
		subject_id TEXT NOT NULL,
		course_number TEXT NOT NULL,
		course_title TEXT NOT NULL DEFAULT '',
		instructor1 TEXT NOT NULL DEFAULT '',
		section_number TEXT NOT NULL DEFAULT '',
		semester TEXT NOT NULL DEFAULT '',
		year INTEGER NOT NULL DEFAULT 0,
		course_gpa REAL NOT NULL DEFAULT 0,
		grades_count INTEGER NOT NULL DEFAULT 0,
		grades_A INTEGER NOT NULL DEFAULT 0,
		grades_B INTEGER NOT NULL DEFAULT 0,
		grades_C INTEGER NOT NULL DEFAULT 0,
		grades_D INTEGER NOT NULL DEFAULT 0,
		grades_F INTEGER NOT NULL DEFAULT 0,
		grades_I INTEGER NOT NULL DEFAULT 0,
		grades_P INTEGER NOT NULL DEFAULT 0,
		grades_Q INTEGER NOT NULL DEFAULT 0,
		grades_W INTEGER NOT NULL DEFAULT 0,
		grades_Z INTEGER NOT NULL DEFAULT 0,
		grades_R INTEGER NOT NULL DEFAULT 0,
		source_id TEXT NOT NULL DEFAULT '',
		course_key TEXT NOT NULL DEFAULT '',
		instructor_key TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_allgrades_source ON allgrades(source_id);

	CREATE TABLE IF NOT EXISTS professors (
		name TEXT PRIMARY KEY COLLATE NOCASE,
		rmp_name TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		department TEXT NOT NULL DEFAULT '',
		quality_rating REAL NOT NULL DEFAULT 0,
		difficulty_rating REAL NOT NULL DEFAULT 0,
		total_ratings INTEGER NOT NULL DEFAULT 0,
		would_take_again REAL NOT NULL DEFAULT 0,
		tags TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS search_events (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL,
		client TEXT NOT NULL DEFAULT '',
		course_count INTEGER NOT NULL DEFAULT 0,
		professor_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_search_events_created_at ON search_events(created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	if err := migrateLookupKeys(db); err != nil {
		return fmt.Errorf("failed to migrate lookup keys: %w", err)
	}
	_, err := db.Exec(`
	CREATE INDEX IF NOT EXISTS idx_allgrades_course_key ON allgrades(course_key);
	CREATE INDEX IF NOT EXISTS idx_allgrades_instructor_key ON allgrades(instructor_key);
	`)
	return err
}

// migrateLookupKeys adds the folded course_key and instructor_key columns to databases
// created before they existed and fills them for the rows already present.
func migrateLookupKeys(db *sql.DB) error {
	rows, err := db.Query(`PRAGMA table_info(allgrades)`)
	if err != nil {
		return err
	}
	have := map[string]bool{}
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			rows.Close()
			return err
		}
		have[name] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if have["course_key"] && have["instructor_key"] {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, col := range []string{"course_key", "instructor_key"} {
		if have[col] {
			continue
		}
		if _, err := tx.Exec(`ALTER TABLE allgrades ADD COLUMN ` + col + ` TEXT NOT NULL DEFAULT ''`); err != nil {
			return err
		}
	}

	type keyed struct {
		rowid int64
		rec   models.SearchableRecord
	}
	var existing []keyed
	scan, err := tx.Query(`SELECT rowid, subject_id, course_number, instructor1 FROM allgrades`)
	if err != nil {
		return err
	}
	for scan.Next() {
		var k keyed
		if err := scan.Scan(&k.rowid, &k.rec.SubjectID, &k.rec.CourseNumber, &k.rec.InstructorName); err != nil {
			scan.Close()
			return err
		}
		existing = append(existing, k)
	}
	scan.Close()
	if err := scan.Err(); err != nil {
		return err
	}
	for _, k := range existing {
		if _, err := tx.Exec(`UPDATE allgrades SET course_key = ?, instructor_key = ? WHERE rowid = ?`,
			k.rec.CourseKey(), k.rec.InstructorKey(), k.rowid); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadRecords returns every distinct (course, instructor) row of the grade dataset.
func (s *SQLiteStorage) LoadRecords(ctx context.Context) ([]models.SearchableRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT subject_id, course_number, course_title, instructor1 FROM allgrades`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.SearchableRecord
	for rows.Next() {
		var r models.SearchableRecord
		if err := rows.Scan(&r.SubjectID, &r.CourseNumber, &r.CourseTitle, &r.InstructorName); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Details returns the grade rows whose folded course key or instructor equals q.Key,
// ordered by the allowlisted q.Sort column. q is validated first.
func (s *SQLiteStorage) Details(ctx context.Context, q models.DetailQuery) ([]models.GradeRow, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	var filter string
	switch q.Kind {
	case models.DetailCourse:
		filter = `course_key = ?`
	case models.DetailProfessor:
		filter = `instructor_key = ?`
	}
	// Sort and direction are checked against an allowlist by Validate; they are never user text here.
	query := fmt.Sprintf(`SELECT DISTINCT %s FROM allgrades WHERE %s ORDER BY %s %s`,
		gradeColumns, filter, q.Sort, strings.ToUpper(q.Direction))

	rows, err := s.db.QueryContext(ctx, query, q.Key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.GradeRow{}
	for rows.Next() {
		var g models.GradeRow
		if err := rows.Scan(
			&g.SubjectID, &g.CourseNumber, &g.CourseTitle, &g.Instructor, &g.SectionNumber, &g.Semester, &g.Year,
			&g.CourseGPA, &g.GradesCount, &g.GradesA, &g.GradesB, &g.GradesC, &g.GradesD, &g.GradesF, &g.GradesI,
			&g.GradesP, &g.GradesQ, &g.GradesW, &g.GradesZ, &g.GradesR,
		); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ReplaceGrades atomically replaces all rows previously written for sourceID with rows.
// Returns the number of rows inserted.
func (s *SQLiteStorage) ReplaceGrades(ctx context.Context, sourceID string, rows []models.GradeRow) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM allgrades WHERE source_id = ?`, sourceID); err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO allgrades (`+gradeColumns+`, source_id, course_key, instructor_key)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, g := range rows {
		rec := g.Record()
		if _, err := stmt.ExecContext(ctx,
			g.SubjectID, g.CourseNumber, g.CourseTitle, g.Instructor, g.SectionNumber, g.Semester, g.Year,
			g.CourseGPA, g.GradesCount, g.GradesA, g.GradesB, g.GradesC, g.GradesD, g.GradesF, g.GradesI,
			g.GradesP, g.GradesQ, g.GradesW, g.GradesZ, g.GradesR, sourceID,
			rec.CourseKey(), rec.InstructorKey(),
		); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// DeleteGradesBySource removes the rows written for sourceID and returns how many were deleted.
func (s *SQLiteStorage) DeleteGradesBySource(ctx context.Context, sourceID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM allgrades WHERE source_id = ?`, sourceID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// UpsertProfessorRatings inserts ratings, replacing existing entries with the same name.
func (s *SQLiteStorage) UpsertProfessorRatings(ctx context.Context, ratings []models.ProfessorRating) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO professors (name, rmp_name, url, department, quality_rating, difficulty_rating,
			total_ratings, would_take_again, tags)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			rmp_name = excluded.rmp_name,
			url = excluded.url,
			department = excluded.department,
			quality_rating = excluded.quality_rating,
			difficulty_rating = excluded.difficulty_rating,
			total_ratings = excluded.total_ratings,
			would_take_again = excluded.would_take_again,
			tags = excluded.tags`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range ratings {
		tags := r.Tags
		if tags == nil {
			tags = []string{}
		}
		tagsJSON, err := json.Marshal(tags)
		if err != nil {
			return fmt.Errorf("failed to marshal tags: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, r.Name, r.RMPName, r.URL, r.Department, r.QualityRating,
			r.DifficultyRating, r.TotalRatings, r.WouldTakeAgain, string(tagsJSON)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetProfessorRating returns the rating for name (case-insensitive exact match).
func (s *SQLiteStorage) GetProfessorRating(ctx context.Context, name string) (*models.ProfessorRating, error) {
	var r models.ProfessorRating
	var tagsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT name, rmp_name, url, department, quality_rating, difficulty_rating,
			total_ratings, would_take_again, tags
		 FROM professors WHERE name = ?`, strings.TrimSpace(name),
	).Scan(&r.Name, &r.RMPName, &r.URL, &r.Department, &r.QualityRating, &r.DifficultyRating,
		&r.TotalRatings, &r.WouldTakeAgain, &tagsJSON)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("professor %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &r.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	return &r, nil
}

// RecordSearchEvent persists a search analytics event.
func (s *SQLiteStorage) RecordSearchEvent(ctx context.Context, ev *models.SearchEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_events (id, query, client, course_count, professor_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Query, ev.Client, ev.CourseCount, ev.ProfessorCount, ev.CreatedAt,
	)
	return err
}

// CountGrades returns the total number of grade rows.
func (s *SQLiteStorage) CountGrades(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM allgrades`)
}

// CountProfessors returns the number of professors with ratings.
func (s *SQLiteStorage) CountProfessors(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM professors`)
}

// CountSearchEvents returns the number of recorded search events.
func (s *SQLiteStorage) CountSearchEvents(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM search_events`)
}

func (s *SQLiteStorage) count(ctx context.Context, query string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
