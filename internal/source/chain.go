package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"persona-mcp/internal/persona"

	"github.com/rs/zerolog/log"
)

// Chain tries its sources in order under one shared timeout. The first
// source to return entries wins.
type Chain struct {
	Sources []Source
	Timeout time.Duration
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Fetch(ctx context.Context) ([]persona.Entry, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var errs []error
	for _, s := range c.Sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			break
		}

		entries, err := s.Fetch(ctx)
		if err == nil {
			log.Info().Str("source", s.Name()).Int("entries", len(entries)).Msg("Time entries loaded")
			return entries, nil
		}
		log.Warn().Err(err).Str("source", s.Name()).Msg("Entry source failed, trying next")
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}

	return nil, fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(errs...))
}
