package importer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hyperjump/kurasu/internal/models"
	"github.com/xuri/excelize/v2"
)

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	table, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV: %w", err)
	}
	return table, nil
}

// readXLSX returns the rows of the first sheet.
func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("open Excel: no sheets in %s", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

type ratingsFile struct {
	Professors []models.ProfessorRating `json:"professors"`
}

// readRatings accepts {"professors": [...]} or a bare array of ratings.
func readRatings(path string) ([]models.ProfessorRating, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ratings: %w", err)
	}
	var ratings []models.ProfessorRating
	if err := json.Unmarshal(data, &ratings); err != nil {
		var wrapped ratingsFile
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("parse ratings: %w", err)
		}
		ratings = wrapped.Professors
	}
	out := ratings[:0]
	for _, r := range ratings {
		if r.Name != "" {
			out = append(out, r)
		}
	}
	return out, nil
}
