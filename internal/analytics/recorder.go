// Package analytics records search events without ever blocking the search path.
package analytics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/kurasu/internal/models"
	"go.uber.org/zap"
)

const (
	defaultDebounce   = time.Second
	defaultBufferSize = 256
	writeTimeout      = 5 * time.Second
)

// Notifier receives search events. Notify must return immediately and never fail.
type Notifier interface {
	Notify(ev models.SearchEvent)
}

// Nop is a Notifier that discards events.
type Nop struct{}

// Notify discards ev.
func (Nop) Notify(models.SearchEvent) {}

// Sink persists search events.
type Sink interface {
	RecordSearchEvent(ctx context.Context, ev *models.SearchEvent) error
}

// Stats are cumulative recorder counters.
type Stats = models.AnalyticsStats

// Recorder debounces events per client and writes them to a Sink from a single
// background worker. While a client keeps typing only its latest query is kept.
// Events that arrive when the queue is full are dropped.
type Recorder struct {
	sink     Sink
	debounce time.Duration
	logger   *zap.Logger
	queue    chan models.SearchEvent

	mu      sync.Mutex
	pending map[string]*pendingEvent
	closed  bool
	wg      sync.WaitGroup

	recorded atomic.Int64
	dropped  atomic.Int64
	failed   atomic.Int64
}

type pendingEvent struct {
	timer *time.Timer
	ev    models.SearchEvent
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLogger sets a logger for write failures and drops.
func WithLogger(l *zap.Logger) RecorderOption {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithDebounce sets the per-client quiet period. Zero disables debouncing.
func WithDebounce(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d >= 0 {
			r.debounce = d
		}
	}
}

// WithBufferSize sets the queue capacity between Notify and the writer.
func WithBufferSize(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.queue = make(chan models.SearchEvent, n)
		}
	}
}

// NewRecorder creates a Recorder and starts its writer goroutine. Call Close to stop it.
func NewRecorder(sink Sink, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		sink:     sink,
		debounce: defaultDebounce,
		logger:   zap.NewNop(),
		queue:    make(chan models.SearchEvent, defaultBufferSize),
		pending:  make(map[string]*pendingEvent),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Notify schedules ev for recording. It never blocks.
func (r *Recorder) Notify(ev models.SearchEvent) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	if r.debounce <= 0 {
		r.enqueue(ev)
		return
	}

	key := ev.Client
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if p, ok := r.pending[key]; ok {
		p.timer.Stop()
	}
	p := &pendingEvent{ev: ev}
	p.timer = time.AfterFunc(r.debounce, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed || r.pending[key] != p {
			return
		}
		delete(r.pending, key)
		r.send(p.ev)
	})
	r.pending[key] = p
}

func (r *Recorder) enqueue(ev models.SearchEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.send(ev)
}

// send must be called with r.mu held and the queue open.
func (r *Recorder) send(ev models.SearchEvent) {
	select {
	case r.queue <- ev:
	default:
		r.dropped.Add(1)
		r.logger.Debug("search event dropped, queue full", zap.String("query", ev.Query))
	}
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for ev := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := r.sink.RecordSearchEvent(ctx, &ev)
		cancel()
		if err != nil {
			r.failed.Add(1)
			r.logger.Warn("failed to record search event", zap.String("query", ev.Query), zap.Error(err))
			continue
		}
		r.recorded.Add(1)
	}
}

// Stats returns the recorder counters.
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	pending := len(r.pending)
	r.mu.Unlock()
	return Stats{
		Recorded: r.recorded.Load(),
		Dropped:  r.dropped.Load(),
		Failed:   r.failed.Load(),
		Pending:  pending,
	}
}

// Close flushes debounced events, waits for queued events to be written, and stops the writer.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	for key, p := range r.pending {
		if p.timer.Stop() {
			r.send(p.ev)
		}
		delete(r.pending, key)
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
	return nil
}
