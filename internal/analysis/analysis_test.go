package analysis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"persona-mcp/internal/forecast"
	"persona-mcp/internal/optimizer"
	"persona-mcp/internal/persona"
	"persona-mcp/internal/source"
)

func sampleEntries() []persona.Entry {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var entries []persona.Entry
	for i := 0; i < 60; i++ {
		d := start.AddDate(0, 0, i)
		sleep := 7 + 0.25*float64(i%4)
		if i == 30 {
			sleep = 16
		}
		entries = append(entries,
			persona.NewEntry(d, persona.Sleep, sleep),
			persona.NewEntry(d, persona.Individual, 1.5),
		)
		if persona.DayTypeOf(d) == persona.Weekday {
			entries = append(entries, persona.NewEntry(d, persona.Professional, 8))
		}
	}
	return entries
}

func testEngine() *Engine {
	svc := forecast.NewService(time.Time{})
	svc.Now = func() time.Time { return time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC) }
	return NewEngine(svc, 30)
}

func TestPrepare(t *testing.T) {
	snap, err := testEngine().Prepare(context.Background(), sampleEntries())
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	if snap.ID == "" || snap.EntryCount == 0 {
		t.Errorf("Expected an identified snapshot, got id=%q count=%d", snap.ID, snap.EntryCount)
	}
	if snap.FirstDate != "2024-01-01" || snap.LastDate != "2024-02-29" {
		t.Errorf("Unexpected span %s..%s", snap.FirstDate, snap.LastDate)
	}
	if len(snap.Forecasts) != len(persona.All()) || len(snap.Means) != len(persona.All()) {
		t.Errorf("Expected forecasts and run-rates for every persona")
	}
	if snap.Readiness.Score < 0 || snap.Readiness.Score > 1 {
		t.Errorf("Readiness out of bounds: %v", snap.Readiness.Score)
	}
	if _, ok := snap.Decomposition(persona.Sleep); !ok {
		t.Error("Expected a sleep decomposition")
	}
	if _, ok := snap.Decomposition(persona.Family); ok {
		t.Error("Expected no decomposition for a persona without entries")
	}

	found := false
	for _, a := range snap.Anomalies {
		if a.Date == "2024-01-31" && a.Persona == persona.Sleep.Label() {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected the sleep spike on 2024-01-31 to be reported, got %+v", snap.Anomalies)
	}
}

func TestSnapshotOptimize(t *testing.T) {
	snap, err := testEngine().Prepare(context.Background(), sampleEntries())
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	cfg := optimizer.DefaultConfig()
	cfg.Readiness = 0
	sol, err := snap.Optimize(context.Background(), cfg, false)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if sol.AmbitionFactor != optimizer.AmbitionFactor(snap.Readiness.Score) {
		t.Errorf("Expected the snapshot readiness to drive ambition, got %v", sol.AmbitionFactor)
	}

	// Repeated solves against the same snapshot leave the run-rates untouched.
	before := snap.Means[persona.Professional]
	for i := 0; i < 10; i++ {
		cfg.MinWorkHoursPerMonth = float64(i * 20)
		if _, err := snap.Optimize(context.Background(), cfg, false); err != nil {
			t.Fatalf("Optimize failed: %v", err)
		}
	}
	if snap.Means[persona.Professional] != before {
		t.Error("Optimize must not mutate cached run-rates")
	}

	bad := optimizer.DefaultConfig()
	bad.MaxDailyHours = 0
	if _, err := snap.Optimize(context.Background(), bad, true); !errors.Is(err, optimizer.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestCache_SharesInFlightLoad(t *testing.T) {
	c := NewCache()
	var calls atomic.Int32
	release := make(chan struct{})

	load := func(ctx context.Context) (*Snapshot, error) {
		calls.Add(1)
		<-release
		return &Snapshot{ID: "shared"}, nil
	}

	var wg sync.WaitGroup
	results := make([]*Snapshot, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := c.Get(context.Background(), "dataset", load)
			if err != nil {
				t.Errorf("Get failed: %v", err)
				return
			}
			results[i] = s
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("Expected exactly one load, got %d", n)
	}
	for i, s := range results {
		if s == nil || s.ID != "shared" {
			t.Errorf("Caller %d got %+v", i, s)
		}
	}
}

func TestCache_InvalidateAndErrors(t *testing.T) {
	c := NewCache()
	var calls int
	load := func(ctx context.Context) (*Snapshot, error) {
		calls++
		return &Snapshot{ID: "v"}, nil
	}

	if _, err := c.Get(context.Background(), "k", load); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(context.Background(), "k", load); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("Expected cached second call, got %d loads", calls)
	}

	c.Invalidate()
	if c.Current() != nil {
		t.Error("Expected no snapshot after Invalidate")
	}
	if _, err := c.Get(context.Background(), "k", load); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("Expected reload after Invalidate, got %d loads", calls)
	}

	boom := errors.New("boom")
	_, err := c.Get(context.Background(), "other", func(ctx context.Context) (*Snapshot, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Errorf("Expected load error to propagate, got %v", err)
	}
	if c.Current() == nil || c.Current().ID != "v" {
		t.Error("A failed load must not drop the previous snapshot")
	}
}

func TestRefresher_RejectsZeroInterval(t *testing.T) {
	r := &Refresher{Refresh: func(context.Context) error { return nil }}
	if err := r.Run(context.Background()); err == nil {
		t.Error("Expected an error for a zero interval")
	}
}

type countingSource struct {
	fetches atomic.Int32
}

func (s *countingSource) Name() string { return "counting" }

func (s *countingSource) Fetch(ctx context.Context) ([]persona.Entry, error) {
	s.fetches.Add(1)
	return sampleEntries(), nil
}

func TestService_SnapshotFollowsDatasetVersion(t *testing.T) {
	src := &countingSource{}
	svc := NewService(source.NewProvider("test", src, nil), testEngine())
	ctx := context.Background()

	if err := svc.Warm(ctx); err != nil {
		t.Fatalf("Warm failed: %v", err)
	}
	first, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	again, _ := svc.Snapshot(ctx)
	if first != again {
		t.Error("Expected the cached snapshot to be reused")
	}

	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	fresh, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if fresh.ID == first.ID {
		t.Error("Expected a new snapshot after refresh")
	}
	if n := src.fetches.Load(); n != 2 {
		t.Errorf("Expected 2 fetches, got %d", n)
	}
}

// gatedSource blocks its first fetch until release is closed and serves only
// the first half of the sample from it.
type gatedSource struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (s *gatedSource) Name() string { return "gated" }

func (s *gatedSource) Fetch(ctx context.Context) ([]persona.Entry, error) {
	all := sampleEntries()
	if s.calls.Add(1) == 1 {
		close(s.started)
		<-s.release
		return all[:len(all)/2], nil
	}
	return all, nil
}

func TestService_RefreshDuringSnapshotKeepsCacheConsistent(t *testing.T) {
	src := &gatedSource{started: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(source.NewProvider("test", src, nil), testEngine())
	ctx := context.Background()

	type result struct {
		snap *Snapshot
		err  error
	}
	pending := make(chan result, 1)
	go func() {
		snap, err := svc.Snapshot(ctx)
		pending <- result{snap, err}
	}()
	<-src.started

	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	close(src.release)

	old := <-pending
	if old.err != nil {
		t.Fatalf("Snapshot failed: %v", old.err)
	}
	full := len(sampleEntries())
	if old.snap.EntryCount != full/2 {
		t.Errorf("Expected the pending snapshot to cover %d entries, got %d", full/2, old.snap.EntryCount)
	}

	current, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if current.EntryCount != full {
		t.Errorf("Expected the cached snapshot to cover all %d entries, got %d", full, current.EntryCount)
	}
	again, _ := svc.Snapshot(ctx)
	if again != current {
		t.Error("Expected the refreshed snapshot to be reused")
	}
}
