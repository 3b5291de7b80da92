package source

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"persona-mcp/internal/persona"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Provider is the injected, process-local entry cache. Concurrent callers
// share one in-flight fetch.
type Provider struct {
	dataset string
	source  Source
	cache   *SnapshotCache

	group singleflight.Group

	mu         sync.RWMutex
	entries    []persona.Entry
	fetchedAt  time.Time
	version    int
	generation int
}

// NewProvider wires a provider. cache may be nil.
func NewProvider(dataset string, src Source, cache *SnapshotCache) *Provider {
	if dataset == "" {
		dataset = "entries"
	}
	return &Provider{dataset: dataset, source: src, cache: cache}
}

// Entries returns the loaded entries, fetching them on first use or after Invalidate.
// The returned slice is shared and must not be modified.
func (p *Provider) Entries(ctx context.Context) ([]persona.Entry, error) {
	entries, _, err := p.EntriesVersion(ctx)
	return entries, err
}

// EntriesVersion returns the loaded entries together with the version they
// were stored under. An empty version means the load was superseded by
// Invalidate while it ran; such entries must not key derived caches.
func (p *Provider) EntriesVersion(ctx context.Context) ([]persona.Entry, string, error) {
	p.mu.RLock()
	if p.entries != nil {
		entries, version := p.entries, p.versionLocked()
		p.mu.RUnlock()
		return entries, version, nil
	}
	p.mu.RUnlock()

	ch := p.group.DoChan(p.dataset, func() (any, error) {
		return p.load(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, "", res.Err
		}
		l := res.Val.(loaded)
		return l.entries, l.version, nil
	}
}

type loaded struct {
	entries []persona.Entry
	version string
}

func (p *Provider) load(ctx context.Context) (loaded, error) {
	p.mu.RLock()
	gen := p.generation
	p.mu.RUnlock()

	entries, err := p.source.Fetch(ctx)
	if err != nil {
		if p.cache == nil {
			return loaded{}, err
		}
		cached, cerr := p.cache.Load(p.dataset)
		if cerr != nil {
			return loaded{}, fmt.Errorf("%w (cache fallback: %v)", err, cerr)
		}
		log.Warn().Err(err).Int("entries", len(cached)).Msg("Entry fetch failed, serving cached snapshot")
		entries = cached
	} else if p.cache != nil {
		if err := p.cache.Save(p.dataset, entries); err != nil {
			log.Warn().Err(err).Msg("Failed to save entry snapshot")
		}
	}

	slices.SortStableFunc(entries, func(a, b persona.Entry) int { return a.Date.Compare(b.Date) })

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generation != gen {
		log.Debug().Str("dataset", p.dataset).Msg("Discarding entry load superseded by a refresh")
		return loaded{entries: entries}, nil
	}
	p.entries = entries
	p.fetchedAt = time.Now()
	p.version++
	return loaded{entries: entries, version: p.versionLocked()}, nil
}

// Invalidate forces the next Entries call to refetch. A load still in flight
// is neither joined nor stored afterwards.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	p.entries = nil
	p.generation++
	p.mu.Unlock()
	p.group.Forget(p.dataset)
}

// Refresh drops the loaded entries and fetches them again.
func (p *Provider) Refresh(ctx context.Context) ([]persona.Entry, error) {
	p.Invalidate()
	return p.Entries(ctx)
}

// Version increments on every successful load. It keys derived caches.
func (p *Provider) Version() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.versionLocked()
}

func (p *Provider) versionLocked() string {
	return fmt.Sprintf("%s@%d", p.dataset, p.version)
}

// FetchedAt reports when the entries were last loaded.
func (p *Provider) FetchedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.fetchedAt
}

// IsNoEntries reports whether err means there was simply nothing to load.
func IsNoEntries(err error) bool {
	return errors.Is(err, ErrNoEntries)
}
