package pipeline

import (
	"context"
	"time"

	"github.com/infinite-experiment/vatwatch/internal/logging"
	"github.com/infinite-experiment/vatwatch/internal/sectors"
	"github.com/infinite-experiment/vatwatch/internal/store/repositories"
)

// CleanupTick adapts sectors.Cleaner.Run to the scheduler.Job shape, then
// purges the engine's in-memory per-flight state for callsigns no longer
// present in the live flights table, per §4.5's cleanup job contract.
func CleanupTick(cleaner *sectors.Cleaner, engine *sectors.Engine, flights *repositories.FlightRepository) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		now := time.Now().UTC()
		if err := cleaner.Run(ctx, now); err != nil {
			return err
		}

		live, err := flights.ListActive(ctx)
		if err != nil {
			logging.WithComponent("sector_cleanup").Warnw("failed to list active flights for state purge", "error", err)
			return nil
		}
		liveSet := make(map[string]struct{}, len(live))
		for _, f := range live {
			liveSet[f.Callsign] = struct{}{}
		}
		if purged := engine.PurgeAbsent(liveSet); purged > 0 {
			logging.WithComponent("sector_cleanup").Infow("purged stale in-memory flight state", "count", purged)
		}
		return nil
	}
}
