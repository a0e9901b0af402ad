// Package importer loads grade distributions and professor ratings from files into storage.
package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/kurasu/internal/storage"
	"go.uber.org/zap"
)

// ErrUnsupportedFormat is returned for files that are not .csv, .xlsx or .json.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Kind is what a file contained.
type Kind string

const (
	KindGrades  Kind = "grades"
	KindRatings Kind = "ratings"
)

// Result summarizes one imported file.
type Result struct {
	Path     string `json:"path"`
	SourceID string `json:"source_id"`
	Kind     Kind   `json:"kind"`
	Rows     int    `json:"rows"`
	Skipped  int    `json:"skipped"`
}

// Importer writes parsed files to storage. Grade rows of one file replace the rows
// previously imported from the same path.
type Importer struct {
	storage storage.Storage
	logger  *zap.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets a logger for debug output (file imported, source removed, etc.).
func WithLogger(l *zap.Logger) Option {
	return func(im *Importer) {
		if l != nil {
			im.logger = l
		}
	}
}

// New creates an importer writing to store.
func New(store storage.Storage, opts ...Option) *Importer {
	im := &Importer{storage: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// SourceID returns a stable identifier for the file at absolutePath.
// Same path always yields the same ID.
func SourceID(absolutePath string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(absolutePath)))
	return "file:" + hex.EncodeToString(sum[:])
}

// ImportFile parses path by extension and writes it to storage.
func (im *Importer) ImportFile(ctx context.Context, path string) (*Result, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}

	res := &Result{Path: absPath, SourceID: SourceID(absPath)}
	switch ext := strings.ToLower(filepath.Ext(absPath)); ext {
	case ".json":
		ratings, err := readRatings(absPath)
		if err != nil {
			return nil, err
		}
		if err := im.storage.UpsertProfessorRatings(ctx, ratings); err != nil {
			return nil, fmt.Errorf("store ratings: %w", err)
		}
		res.Kind, res.Rows = KindRatings, len(ratings)
	case ".csv", ".xlsx":
		var table [][]string
		if ext == ".csv" {
			table, err = readCSV(absPath)
		} else {
			table, err = readXLSX(absPath)
		}
		if err != nil {
			return nil, err
		}
		rows, skipped, err := parseGrades(table)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(absPath), err)
		}
		n, err := im.storage.ReplaceGrades(ctx, res.SourceID, rows)
		if err != nil {
			return nil, fmt.Errorf("store grades: %w", err)
		}
		res.Kind, res.Rows, res.Skipped = KindGrades, n, skipped
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	im.logger.Debug("importer file imported",
		zap.String("path", absPath),
		zap.String("kind", string(res.Kind)),
		zap.Int("rows", res.Rows),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// ImportDirectory walks dir and imports each regular file whose extension is in
// allowedExts (all supported files when empty). Returns the results of the files
// imported and the first error encountered, if any.
func (im *Importer) ImportDirectory(ctx context.Context, dir string, allowedExts []string, recursive bool) ([]*Result, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", absDir)
	}
	if len(allowedExts) == 0 {
		allowedExts = SupportedExtensions()
	}

	var results []*Result
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if !recursive && path != absDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !ExtensionAllowed(filepath.Ext(path), allowedExts) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := im.ImportFile(ctx, path)
		if err != nil {
			return err
		}
		results = append(results, res)
		return nil
	})
	return results, err
}

// RemoveFile deletes the grade rows imported from path. Ratings are kept.
func (im *Importer) RemoveFile(ctx context.Context, path string) (int64, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	n, err := im.storage.DeleteGradesBySource(ctx, SourceID(absPath))
	if err != nil {
		return 0, fmt.Errorf("remove source: %w", err)
	}
	im.logger.Debug("importer source removed", zap.String("path", absPath), zap.Int64("rows", n))
	return n, nil
}

// SupportedExtensions returns the file extensions ImportFile understands.
func SupportedExtensions() []string {
	return []string{".csv", ".xlsx", ".json"}
}

// ExtensionAllowed reports whether ext is in allowed, ignoring case and a leading dot.
func ExtensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
