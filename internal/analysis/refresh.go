package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
)

// Refresher periodically re-runs a refresh function, e.g. refetching entries
// and rebuilding the snapshot.
type Refresher struct {
	Interval time.Duration
	Refresh  func(ctx context.Context) error
}

// Run blocks until ctx is cancelled. The first refresh happens one interval after start.
func (r *Refresher) Run(ctx context.Context) error {
	if r.Interval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", r.Interval)
	}

	scheduler := gocron.NewScheduler(time.UTC)
	_, err := scheduler.Every(r.Interval).WaitForSchedule().Do(func() {
		log.Info().Msg("Scheduled refresh started")
		if err := r.Refresh(ctx); err != nil {
			log.Error().Err(err).Msg("Scheduled refresh failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}

	scheduler.StartAsync()
	log.Info().Dur("interval", r.Interval).Msg("Refresh scheduler started")

	<-ctx.Done()

	scheduler.Stop()
	log.Info().Msg("Refresh scheduler stopped")
	return nil
}
