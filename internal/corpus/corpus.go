// Package corpus provides the load-once, read-only snapshot of searchable course records.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hyperjump/kurasu/internal/models"
	"github.com/hyperjump/kurasu/internal/ranking"
	"go.uber.org/zap"
)

// ErrUnavailable is returned when the corpus could not be loaded.
var ErrUnavailable = errors.New("corpus unavailable")

const defaultLoadTimeout = 30 * time.Second

// Source supplies the records of the reference dataset.
type Source interface {
	LoadRecords(ctx context.Context) ([]models.SearchableRecord, error)
}

// Snapshot is an immutable view of the corpus. It is never modified after Get returns it.
type Snapshot struct {
	records      []models.SearchableRecord
	index        *ranking.Index
	loadedAt     time.Time
	loadDuration time.Duration
}

// Rank ranks the snapshot's records against query.
func (s *Snapshot) Rank(query string) ranking.Result {
	return s.index.Rank(query)
}

// Len returns the number of records in the snapshot.
func (s *Snapshot) Len() int { return len(s.records) }

// Records returns a copy of the snapshot's records.
func (s *Snapshot) Records() []models.SearchableRecord {
	return append([]models.SearchableRecord(nil), s.records...)
}

// Info summarizes a loaded snapshot.
type Info = models.CorpusInfo

// Corpus lazily loads a Snapshot from a Source exactly once per successful load.
//
// The first Get starts the load; concurrent callers wait on that same load.
// A successful snapshot is kept for the lifetime of the Corpus. A failed load is
// reported to every caller waiting on it and is not kept, so a later Get starts a
// new attempt.
type Corpus struct {
	source      Source
	limit       int
	loadTimeout time.Duration
	logger      *zap.Logger

	mu       sync.Mutex
	snapshot *Snapshot
	inflight *loadCall
}

type loadCall struct {
	done     chan struct{}
	snapshot *Snapshot
	err      error
}

// Option configures a Corpus.
type Option func(*Corpus)

// WithLogger sets a logger for load events.
func WithLogger(l *zap.Logger) Option {
	return func(c *Corpus) { c.logger = l }
}

// WithLimit sets the per-category suggestion cap used by snapshots.
func WithLimit(n int) Option {
	return func(c *Corpus) { c.limit = n }
}

// WithLoadTimeout bounds a single load attempt.
func WithLoadTimeout(d time.Duration) Option {
	return func(c *Corpus) {
		if d > 0 {
			c.loadTimeout = d
		}
	}
}

// New creates a Corpus reading from source. Nothing is loaded until Get or Warm.
func New(source Source, opts ...Option) *Corpus {
	c := &Corpus{
		source:      source,
		limit:       ranking.DefaultLimit,
		loadTimeout: defaultLoadTimeout,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the snapshot, loading it if necessary. It returns ctx.Err() if ctx ends
// while waiting; the load itself continues for other callers.
func (c *Corpus) Get(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	if c.snapshot != nil {
		snap := c.snapshot
		c.mu.Unlock()
		return snap, nil
	}
	call := c.inflight
	if call == nil {
		call = &loadCall{done: make(chan struct{})}
		c.inflight = call
		go c.load(context.WithoutCancel(ctx), call)
	}
	c.mu.Unlock()

	select {
	case <-call.done:
		return call.snapshot, call.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Warm loads the corpus eagerly.
func (c *Corpus) Warm(ctx context.Context) error {
	_, err := c.Get(ctx)
	return err
}

// Info reports whether a snapshot is loaded and its size.
func (c *Corpus) Info() Info {
	c.mu.Lock()
	snap := c.snapshot
	c.mu.Unlock()
	if snap == nil {
		return Info{}
	}
	return Info{
		Loaded:       true,
		Records:      snap.Len(),
		Courses:      snap.index.Courses(),
		Professors:   snap.index.Professors(),
		LoadedAt:     snap.loadedAt,
		LoadDuration: snap.loadDuration.Milliseconds(),
	}
}

func (c *Corpus) load(ctx context.Context, call *loadCall) {
	ctx, cancel := context.WithTimeout(ctx, c.loadTimeout)
	defer cancel()

	start := time.Now()
	c.logger.Info("corpus load starting")
	records, err := c.source.LoadRecords(ctx)
	if err != nil {
		call.err = fmt.Errorf("%w: %w", ErrUnavailable, err)
		c.logger.Error("corpus load failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
	} else {
		call.snapshot = &Snapshot{
			records:      records,
			index:        ranking.NewIndex(records, ranking.WithLimit(c.limit)),
			loadedAt:     time.Now(),
			loadDuration: time.Since(start),
		}
		c.logger.Info("corpus loaded",
			zap.Int("records", len(records)),
			zap.Int("courses", call.snapshot.index.Courses()),
			zap.Int("professors", call.snapshot.index.Professors()),
			zap.Duration("elapsed", call.snapshot.loadDuration),
		)
	}

	c.mu.Lock()
	if call.err == nil {
		c.snapshot = call.snapshot
	}
	c.inflight = nil
	c.mu.Unlock()
	close(call.done)
}
