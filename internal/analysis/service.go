package analysis

import (
	"context"
	"time"

	"persona-mcp/internal/persona"
	"persona-mcp/internal/source"

	"github.com/rs/zerolog/log"
)

// Service binds the entry provider to the engine and its snapshot cache.
// Both the MCP and HTTP front-ends read through it.
type Service struct {
	Provider *source.Provider
	Engine   *Engine
	Cache    *Cache
}

// NewService wires a service with an empty snapshot cache.
func NewService(provider *source.Provider, engine *Engine) *Service {
	return &Service{Provider: provider, Engine: engine, Cache: NewCache()}
}

// Entries returns the current entry log.
func (s *Service) Entries(ctx context.Context) ([]persona.Entry, error) {
	return s.Provider.Entries(ctx)
}

// Snapshot returns the heavy-phase results for the current entry log,
// computing them at most once per dataset version.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	entries, version, err := s.Provider.EntriesVersion(ctx)
	if err != nil {
		return nil, err
	}
	prepare := func(ctx context.Context) (*Snapshot, error) {
		return s.Engine.Prepare(ctx, entries)
	}
	if version == "" {
		return prepare(ctx)
	}
	return s.Cache.Get(ctx, version, prepare)
}

// Refresh refetches the entry log and drops derived results.
func (s *Service) Refresh(ctx context.Context) error {
	start := time.Now()
	s.Cache.Invalidate()
	entries, err := s.Provider.Refresh(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("entries", len(entries)).Dur("elapsed", time.Since(start)).Msg("Entry log refreshed")
	return nil
}

// Warm loads the entries and builds a snapshot so the first request is fast.
func (s *Service) Warm(ctx context.Context) error {
	_, err := s.Snapshot(ctx)
	return err
}
