package search

import (
	"context"

	"github.com/hyperjump/kurasu/internal/models"
)

// Request is the combined search of the course search route: a suggestion query
// plus an optional course or professor whose grade rows are returned instead.
type Request struct {
	Query     string
	Course    string
	Professor string
	Sort      string
	Direction string
	Client    string
}

// Response holds either suggestions or grade rows. Exactly one is non-nil.
type Response struct {
	Suggestions []models.Suggestion
	Rows        []models.GradeRow
}

// Value returns the populated list.
func (r *Response) Value() any {
	if r.Suggestions != nil {
		return r.Suggestions
	}
	return r.Rows
}

// detailQuery picks the detail lookup for req. The professor wins when both are set.
func detailQuery(req Request) (models.DetailQuery, bool) {
	q := models.DetailQuery{Sort: req.Sort, Direction: req.Direction}
	switch {
	case models.NormalizeQuery(req.Professor) != "":
		q.Kind, q.Key = models.DetailProfessor, req.Professor
	case models.NormalizeQuery(req.Course) != "":
		q.Kind, q.Key = models.DetailCourse, req.Course
	default:
		return q, false
	}
	return q, true
}

// Search returns suggestions when the query produces any. Otherwise it returns the
// grade rows of the requested professor or course, or an empty list.
func (e *Engine) Search(ctx context.Context, req Request) (*Response, error) {
	dq, wantDetails := detailQuery(req)
	if wantDetails {
		if err := dq.Validate(); err != nil {
			return nil, err
		}
	}

	if models.NormalizeQuery(req.Query) != "" {
		resp, err := e.Suggest(ctx, models.SuggestRequest{Query: req.Query, Client: req.Client})
		if err != nil {
			return nil, err
		}
		if len(resp.Suggestions) > 0 {
			return &Response{Suggestions: resp.Suggestions}, nil
		}
	}

	if !wantDetails {
		return &Response{Rows: []models.GradeRow{}}, nil
	}
	rows, err := e.Details(ctx, dq)
	if err != nil {
		return nil, err
	}
	return &Response{Rows: rows}, nil
}
