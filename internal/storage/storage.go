// Package storage defines the persistence interface for the grade dataset, professor ratings, and search events.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/kurasu/internal/models"
)

// ErrNotFound is returned when a looked-up entity does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines reference-data and analytics persistence operations.
type Storage interface {
	// Corpus
	LoadRecords(ctx context.Context) ([]models.SearchableRecord, error)

	// Grade distributions
	Details(ctx context.Context, q models.DetailQuery) ([]models.GradeRow, error)
	ReplaceGrades(ctx context.Context, sourceID string, rows []models.GradeRow) (int, error)
	DeleteGradesBySource(ctx context.Context, sourceID string) (int64, error)

	// Professor ratings
	UpsertProfessorRatings(ctx context.Context, ratings []models.ProfessorRating) error
	GetProfessorRating(ctx context.Context, name string) (*models.ProfessorRating, error)

	// Analytics
	RecordSearchEvent(ctx context.Context, ev *models.SearchEvent) error

	// Stats
	CountGrades(ctx context.Context) (int64, error)
	CountProfessors(ctx context.Context) (int64, error)
	CountSearchEvents(ctx context.Context) (int64, error)

	Close() error
}
