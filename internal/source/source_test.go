package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"persona-mcp/internal/persona"
)

const feed = `[
	{"date":"2024-03-01","persona":"P0 Sleep","hours":7.5,"dayType":"Weekday"},
	{"date":"2024-03-01","persona":"P3 Professional","hours":NaN,"dayType":"Weekday"},
	{"date":"2024-03-02","persona":"P5 Family","hours":4},
	{"date":"2024-03-02","persona":"P9 Unknown","hours":1},
	{"date":"2024-03-03","persona":"P2 Individual","hours":-Infinity}
]`

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"hours":NaN}`, `{"hours":null}`},
		{`[Infinity, -Infinity,+Infinity]`, `[null, null,null]`},
		{`{"note":"NaN is fine inside strings"}`, `{"note":"NaN is fine inside strings"}`},
		{`{"hours": 1.5}`, `{"hours": 1.5}`},
	}
	for _, tt := range tests {
		if got := string(Sanitize([]byte(tt.in))); got != tt.want {
			t.Errorf("Sanitize(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDecodeEntries_DropsMalformedRecords(t *testing.T) {
	entries, err := DecodeEntries(strings.NewReader(feed), "test")
	if err != nil {
		t.Fatalf("DecodeEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 valid entries, got %d: %+v", len(entries), entries)
	}
	if entries[1].Persona != persona.Family || entries[1].DayType != persona.Weekend {
		t.Errorf("Expected derived weekend family entry, got %+v", entries[1])
	}

	if _, err := DecodeEntries(strings.NewReader(`[]`), "empty"); !errors.Is(err, ErrNoEntries) {
		t.Errorf("Expected ErrNoEntries, got %v", err)
	}
	if _, err := DecodeEntries(strings.NewReader(`{not json`), "broken"); err == nil {
		t.Error("Expected a decode error")
	}
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/entries.json":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(feed))
		case "/limited":
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	entries, err := NewHTTPSource(srv.URL+"/entries.json", time.Second).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(entries))
	}

	if _, err := NewHTTPSource(srv.URL+"/missing", time.Second).Fetch(context.Background()); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected not found error, got %v", err)
	}
	if _, err := NewHTTPSource(srv.URL+"/limited", time.Second).Fetch(context.Background()); err == nil || !strings.Contains(err.Error(), "30") {
		t.Errorf("Expected rate limit error with retry hint, got %v", err)
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.json")
	if err := os.WriteFile(path, []byte(feed), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := (&FileSource{Path: path}).Fetch(context.Background())
	if err != nil || len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d (%v)", len(entries), err)
	}

	if _, err := (&FileSource{Path: path + ".missing"}).Fetch(context.Background()); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewMemory()
	if err != nil {
		t.Fatalf("NewMemory failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if _, err := store.Fetch(ctx); !errors.Is(err, ErrNoEntries) {
		t.Errorf("Expected ErrNoEntries on an empty store, got %v", err)
	}

	d := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	in := []persona.Entry{
		persona.NewEntry(d.AddDate(0, 0, 1), persona.Sleep, 8),
		persona.NewEntry(d, persona.Spiritual, 1.25),
	}
	if err := store.Insert(ctx, in); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	n, err := store.Count(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Expected 2 rows, got %d (%v)", n, err)
	}

	out, err := store.Fetch(ctx)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(out) != 2 || out[0].Persona != persona.Spiritual || out[0].Hours != 1.25 || !out[0].Date.Equal(d) {
		t.Errorf("Expected entries in date order, got %+v", out)
	}
	if out[0].DayType != persona.Weekend {
		t.Errorf("Expected day type to round-trip, got %v", out[0].DayType)
	}
}

type stubSource struct {
	name    string
	entries []persona.Entry
	err     error
	delay   time.Duration
	calls   atomic.Int32
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(ctx context.Context) ([]persona.Entry, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.entries, s.err
}

func oneEntry() []persona.Entry {
	return []persona.Entry{persona.NewEntry(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), persona.Sleep, 8)}
}

func TestChain(t *testing.T) {
	failing := &stubSource{name: "a", err: errors.New("down")}
	working := &stubSource{name: "b", entries: oneEntry()}
	unused := &stubSource{name: "c", entries: oneEntry()}

	chain := &Chain{Sources: []Source{failing, working, unused}, Timeout: time.Second}
	entries, err := chain.Fetch(context.Background())
	if err != nil || len(entries) != 1 {
		t.Fatalf("Expected the second source to win, got %v (%v)", entries, err)
	}
	if unused.calls.Load() != 0 {
		t.Error("Expected sources after the first success to be skipped")
	}

	chain = &Chain{Sources: []Source{failing, &stubSource{name: "d", err: ErrNoEntries}}}
	_, err = chain.Fetch(context.Background())
	if !errors.Is(err, ErrAllSourcesFailed) || !errors.Is(err, ErrNoEntries) {
		t.Errorf("Expected ErrAllSourcesFailed wrapping each cause, got %v", err)
	}
}

func TestChain_SharedTimeout(t *testing.T) {
	slow := &stubSource{name: "slow", delay: time.Second, entries: oneEntry()}
	next := &stubSource{name: "next", entries: oneEntry()}

	chain := &Chain{Sources: []Source{slow, next}, Timeout: 20 * time.Millisecond}
	_, err := chain.Fetch(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected the shared deadline to end the chain, got %v", err)
	}
	if next.calls.Load() != 0 {
		t.Error("Expected no further sources once the shared timeout expired")
	}
}

func TestSnapshotCache(t *testing.T) {
	cache := &SnapshotCache{Dir: filepath.Join(t.TempDir(), "cache")}

	if _, err := cache.Load("personal"); !errors.Is(err, ErrNoEntries) {
		t.Errorf("Expected ErrNoEntries for a missing snapshot, got %v", err)
	}

	in := oneEntry()
	if err := cache.Save("personal", in); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cache.Dir, "personal.jsonl.sz.tmp")); !os.IsNotExist(err) {
		t.Error("Expected the temp file to be renamed away")
	}

	out, err := cache.Load("personal")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(out) != 1 || out[0].Persona != persona.Sleep || out[0].Hours != 8 {
		t.Errorf("Unexpected snapshot contents: %+v", out)
	}

	if err := cache.Delete("personal"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := cache.Load("personal"); !errors.Is(err, ErrNoEntries) {
		t.Errorf("Expected ErrNoEntries after delete, got %v", err)
	}
}

func TestProvider_SingleInFlightFetch(t *testing.T) {
	src := &stubSource{name: "slow", delay: 50 * time.Millisecond, entries: oneEntry()}
	p := NewProvider("personal", src, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Entries(context.Background()); err != nil {
				t.Errorf("Entries failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := src.calls.Load(); n != 1 {
		t.Errorf("Expected one shared fetch, got %d", n)
	}

	if _, err := p.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := src.calls.Load(); n != 2 {
		t.Errorf("Expected a refetch after Refresh, got %d fetches", n)
	}
	if p.Version() != "personal@2" {
		t.Errorf("Expected version personal@2, got %s", p.Version())
	}
}

// gatedSource blocks its first fetch until release is closed; later fetches
// return two entries immediately.
type gatedSource struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (s *gatedSource) Name() string { return "gated" }

func (s *gatedSource) Fetch(ctx context.Context) ([]persona.Entry, error) {
	if s.calls.Add(1) == 1 {
		close(s.started)
		<-s.release
		return oneEntry(), nil
	}
	return append(oneEntry(), oneEntry()...), nil
}

func TestProvider_RefreshSupersedesPendingLoad(t *testing.T) {
	src := &gatedSource{started: make(chan struct{}), release: make(chan struct{})}
	p := NewProvider("personal", src, nil)
	ctx := context.Background()

	type result struct {
		entries []persona.Entry
		version string
		err     error
	}
	pending := make(chan result, 1)
	go func() {
		entries, version, err := p.EntriesVersion(ctx)
		pending <- result{entries, version, err}
	}()
	<-src.started

	fresh, err := p.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if len(fresh) != 2 {
		t.Fatalf("Expected Refresh to refetch instead of joining the pending load, got %d entries", len(fresh))
	}

	close(src.release)
	old := <-pending
	if old.err != nil {
		t.Fatalf("Pending load failed: %v", old.err)
	}
	if len(old.entries) != 1 || old.version != "" {
		t.Errorf("Expected the superseded load to return 1 entry without a version, got %d entries at %q", len(old.entries), old.version)
	}

	entries, version, err := p.EntriesVersion(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || version != "personal@1" {
		t.Errorf("Expected the refreshed entries at personal@1, got %d entries at %q", len(entries), version)
	}
	if n := src.calls.Load(); n != 2 {
		t.Errorf("Expected 2 fetches, got %d", n)
	}
}

func TestProvider_FallsBackToSnapshot(t *testing.T) {
	cache := &SnapshotCache{Dir: t.TempDir()}
	good := &stubSource{name: "good", entries: oneEntry()}

	if _, err := NewProvider("personal", good, cache).Entries(context.Background()); err != nil {
		t.Fatalf("Initial load failed: %v", err)
	}

	broken := &stubSource{name: "broken", err: errors.New("offline")}
	entries, err := NewProvider("personal", broken, cache).Entries(context.Background())
	if err != nil {
		t.Fatalf("Expected the cached snapshot to be served, got %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 cached entry, got %d", len(entries))
	}

	if _, err := NewProvider("other", broken, cache).Entries(context.Background()); err == nil {
		t.Error("Expected an error without a snapshot to fall back to")
	}
}
