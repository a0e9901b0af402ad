package corpus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperjump/kurasu/internal/models"
)

type fakeSource struct {
	calls   atomic.Int32
	gate    chan struct{}
	fail    atomic.Bool
	records []models.SearchableRecord
}

func (f *fakeSource) LoadRecords(ctx context.Context) ([]models.SearchableRecord, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fail.Load() {
		return nil, errors.New("disk on fire")
	}
	return f.records, nil
}

func testRecords() []models.SearchableRecord {
	return []models.SearchableRecord{
		{SubjectID: "CSE", CourseNumber: "1310", CourseTitle: "Intro to Programming", InstructorName: "Smith, John"},
		{SubjectID: "CSE", CourseNumber: "1320", CourseTitle: "Intermediate Programming", InstructorName: "Smith, John"},
	}
}

func TestCorpus_ConcurrentGetLoadsOnce(t *testing.T) {
	src := &fakeSource{gate: make(chan struct{}), records: testRecords()}
	c := New(src)

	const callers = 16
	var wg sync.WaitGroup
	snaps := make([]*Snapshot, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snaps[i], errs[i] = c.Get(context.Background())
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	if n := src.calls.Load(); n != 1 {
		t.Errorf("LoadRecords called %d times, want 1", n)
	}
	for i := range snaps {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if snaps[i] != snaps[0] {
			t.Errorf("caller %d got a different snapshot", i)
		}
	}

	again, err := c.Get(context.Background())
	if err != nil || again != snaps[0] {
		t.Errorf("later Get should return the cached snapshot, err=%v", err)
	}
	if n := src.calls.Load(); n != 1 {
		t.Errorf("LoadRecords called %d times after cached Get, want 1", n)
	}
}

func TestCorpus_FailedLoadIsNotCached(t *testing.T) {
	src := &fakeSource{records: testRecords()}
	src.fail.Store(true)
	c := New(src)

	_, err := c.Get(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if c.Info().Loaded {
		t.Error("failed load should not mark corpus loaded")
	}

	src.fail.Store(false)
	snap, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("second attempt: %v", err)
	}
	if snap.Len() != 2 {
		t.Errorf("Len() = %d, want 2", snap.Len())
	}
	if n := src.calls.Load(); n != 2 {
		t.Errorf("LoadRecords called %d times, want 2", n)
	}
}

func TestCorpus_GetHonorsCallerContext(t *testing.T) {
	src := &fakeSource{gate: make(chan struct{}), records: testRecords()}
	c := New(src)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := c.Get(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	// The load started by the cancelled caller keeps going for everyone else.
	close(src.gate)
	snap, err := c.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Len() != 2 {
		t.Errorf("Len() = %d, want 2", snap.Len())
	}
	if n := src.calls.Load(); n != 1 {
		t.Errorf("LoadRecords called %d times, want 1", n)
	}
}

func TestCorpus_LoadTimeout(t *testing.T) {
	src := &fakeSource{gate: make(chan struct{}), records: testRecords()}
	defer close(src.gate)
	c := New(src, WithLoadTimeout(10*time.Millisecond))
	if _, err := c.Get(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable after load timeout, got %v", err)
	}
}

func TestSnapshot_RankAndInfo(t *testing.T) {
	c := New(&fakeSource{records: testRecords()}, WithLimit(1))
	if c.Info().Loaded {
		t.Fatal("corpus should not load before Get")
	}
	if err := c.Warm(context.Background()); err != nil {
		t.Fatal(err)
	}
	snap, _ := c.Get(context.Background())
	res := snap.Rank("cse")
	if len(res.Courses) != 1 {
		t.Errorf("WithLimit(1): got %d courses", len(res.Courses))
	}
	info := c.Info()
	if !info.Loaded || info.Records != 2 || info.Courses != 2 || info.Professors != 1 {
		t.Errorf("Info() = %+v", info)
	}

	recs := snap.Records()
	recs[0].SubjectID = "XXX"
	if snap.Records()[0].SubjectID != "CSE" {
		t.Error("Records() must not expose the snapshot's backing slice")
	}
}
