// Package search provides the suggestion engine and grade detail lookups.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/kurasu/internal/analytics"
	"github.com/hyperjump/kurasu/internal/corpus"
	"github.com/hyperjump/kurasu/internal/models"
	"github.com/hyperjump/kurasu/internal/ranking"
	"github.com/hyperjump/kurasu/internal/storage"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Engine answers suggestion queries from the corpus snapshot and detail queries from storage.
type Engine struct {
	corpus   *corpus.Corpus
	storage  storage.Storage
	cache    *cache.Cache
	notifier analytics.Notifier
	logger   *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache caches ranked results per normalized query for ttl. A zero ttl disables caching.
func WithCache(ttl, cleanup time.Duration) Option {
	return func(e *Engine) {
		if ttl <= 0 {
			e.cache = nil
			return
		}
		e.cache = cache.New(ttl, cleanup)
	}
}

// WithNotifier sets the analytics notifier called after each non-empty suggestion query.
func WithNotifier(n analytics.Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine over the corpus and storage.
func NewEngine(c *corpus.Corpus, store storage.Storage, opts ...Option) *Engine {
	e := &Engine{
		corpus:   c,
		storage:  store,
		notifier: analytics.Nop{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Suggest returns ranked course and professor suggestions for a partial query.
// An empty or whitespace-only query returns an empty response without loading the corpus.
func (e *Engine) Suggest(ctx context.Context, req models.SuggestRequest) (*models.SuggestResponse, error) {
	start := time.Now()
	query := strings.TrimSpace(req.Query)
	key := ranking.Fold(query)
	if key == "" {
		return models.EmptySuggestResponse(query), nil
	}

	result, cached := e.cached(key)
	if !cached {
		snap, err := e.corpus.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("suggest %q: %w", query, err)
		}
		result = snap.Rank(query)
		if e.cache != nil {
			e.cache.SetDefault(key, result)
		}
	}

	// result may be shared with the cache; the response gets its own slices.
	resp := &models.SuggestResponse{
		Query:       query,
		Suggestions: result.Merged(),
		Courses:     append([]models.Suggestion{}, result.Courses...),
		Professors:  append([]models.Suggestion{}, result.Professors...),
		QueryTime:   time.Since(start).Milliseconds(),
		Cached:      cached,
	}
	e.notifier.Notify(models.SearchEvent{
		Query:          query,
		Client:         req.Client,
		CourseCount:    len(result.Courses),
		ProfessorCount: len(result.Professors),
	})
	e.logger.Debug("suggest",
		zap.String("query", query),
		zap.Int("courses", len(result.Courses)),
		zap.Int("professors", len(result.Professors)),
		zap.Bool("cached", cached),
	)
	return resp, nil
}

func (e *Engine) cached(key string) (ranking.Result, bool) {
	if e.cache == nil {
		return ranking.Result{}, false
	}
	v, found := e.cache.Get(key)
	if !found {
		return ranking.Result{}, false
	}
	result, ok := v.(ranking.Result)
	return result, ok
}

// CacheItems returns the number of cached query results.
func (e *Engine) CacheItems() int {
	if e.cache == nil {
		return 0
	}
	return e.cache.ItemCount()
}

// FlushCache drops all cached results.
func (e *Engine) FlushCache() {
	if e.cache != nil {
		e.cache.Flush()
	}
}

// Corpus returns the engine's corpus.
func (e *Engine) Corpus() *corpus.Corpus {
	return e.corpus
}

// Details returns grade rows for one course or professor.
func (e *Engine) Details(ctx context.Context, q models.DetailQuery) ([]models.GradeRow, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	rows, err := e.storage.Details(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s details %q: %w", q.Kind, q.Key, err)
	}
	return rows, nil
}

// ProfessorRating returns the rating for a professor, or an error wrapping storage.ErrNotFound.
func (e *Engine) ProfessorRating(ctx context.Context, name string) (*models.ProfessorRating, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.ErrEmptyKey
	}
	return e.storage.GetProfessorRating(ctx, name)
}

// Status reports corpus state, row counts and cache size.
func (e *Engine) Status(ctx context.Context) (*models.Status, error) {
	grades, err := e.storage.CountGrades(ctx)
	if err != nil {
		return nil, fmt.Errorf("count grades: %w", err)
	}
	professors, err := e.storage.CountProfessors(ctx)
	if err != nil {
		return nil, fmt.Errorf("count professors: %w", err)
	}
	events, err := e.storage.CountSearchEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("count search events: %w", err)
	}
	return &models.Status{
		Corpus:          e.corpus.Info(),
		GradeRows:       grades,
		RatedProfessors: professors,
		SearchEvents:    events,
		CacheItems:      e.CacheItems(),
	}, nil
}
