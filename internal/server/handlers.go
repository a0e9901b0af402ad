package server

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/kurasu/internal/corpus"
	"github.com/hyperjump/kurasu/internal/models"
	"github.com/hyperjump/kurasu/internal/search"
	"github.com/hyperjump/kurasu/internal/storage"
	"go.uber.org/zap"
)

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	req := models.SuggestRequest{Query: r.URL.Query().Get("query"), Client: clientKey(r)}
	resp, err := s.engine.Suggest(r.Context(), req)
	if err != nil {
		s.respondFailure(w, "suggest failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleCourseSearch serves the combined route: a JSON array of suggestions, or of
// grade rows when the query has no suggestions.
func (s *Server) handleCourseSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := search.Request{
		Query:     q.Get("query"),
		Course:    q.Get("course"),
		Professor: q.Get("professor"),
		Sort:      q.Get("sort"),
		Direction: q.Get("direction"),
		Client:    clientKey(r),
	}
	s.logger.Debug("course search request",
		zap.String("query", req.Query),
		zap.String("course", req.Course),
		zap.String("professor", req.Professor),
	)
	resp, err := s.engine.Search(r.Context(), req)
	if err != nil {
		s.respondFailure(w, "course search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp.Value())
}

func (s *Server) handleCourseGrades(w http.ResponseWriter, r *http.Request) {
	s.handleDetails(w, r, models.DetailCourse, chi.URLParam(r, "course"))
}

func (s *Server) handleProfessorGrades(w http.ResponseWriter, r *http.Request) {
	s.handleDetails(w, r, models.DetailProfessor, chi.URLParam(r, "name"))
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request, kind models.DetailKind, key string) {
	// chi returns the raw segment when the path holds escapes like %2C.
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}
	q := models.DetailQuery{
		Kind:      kind,
		Key:       key,
		Sort:      r.URL.Query().Get("sort"),
		Direction: r.URL.Query().Get("direction"),
	}
	rows, err := s.engine.Details(r.Context(), q)
	if err != nil {
		s.respondFailure(w, "details failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, rows)
}

func (s *Server) handleProfessorRating(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		s.respondError(w, http.StatusBadRequest, "Professor name is required")
		return
	}
	rating, err := s.engine.ProfessorRating(r.Context(), name)
	if err != nil {
		s.respondFailure(w, "professor rating failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, rating)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.engine.Status(r.Context())
	if err != nil {
		s.respondFailure(w, "status failed", err)
		return
	}
	if s.config != nil {
		status.DatabasePath = s.config.Storage.DatabasePath
		if size, err := storage.DatabaseSizeBytes(s.config.Storage.DatabasePath); err == nil {
			status.DiskUsageBytes = &size
		}
	}
	if s.recorder != nil {
		stats := s.recorder.Stats()
		status.Analytics = &stats
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// clientKey identifies the caller for analytics debouncing: the remote host without
// its port, so every connection from one browser shares a key. RealIP has already
// replaced RemoteAddr with the forwarded address when a proxy sets one.
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// statusFor maps an error to its HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrEmptyKey),
		errors.Is(err, models.ErrInvalidSort),
		errors.Is(err, models.ErrInvalidDirection),
		errors.Is(err, models.ErrInvalidKind):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, corpus.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondFailure(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError, http.StatusServiceUnavailable:
		s.logger.Error(msg, zap.Error(err))
		s.respondError(w, status, http.StatusText(status))
	default:
		s.logger.Debug(msg, zap.Error(err))
		s.respondError(w, status, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
