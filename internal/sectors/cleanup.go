package sectors

import (
	"context"
	"time"

	"github.com/infinite-experiment/vatwatch/internal/logging"
	"github.com/infinite-experiment/vatwatch/internal/metrics"
)

// StaleOccupant is one flight whose sector interval is still open but whose
// last known sample is older than the staleness cutoff.
type StaleOccupant struct {
	Callsign string
	Lat      float64
	Lon      float64
	Altitude int
}

// StaleLookup finds open-interval callsigns that have stopped reporting.
// Implemented by store/repositories as a join between flights and
// flight_sector_occupancy on last_updated.
type StaleLookup interface {
	FindStaleOccupants(ctx context.Context, cutoff time.Time) ([]StaleOccupant, error)
}

// Cleaner closes sector intervals abandoned by aircraft that have stopped
// reporting, per §4.5's cleanup job and scenario 5.
type Cleaner struct {
	lookup  StaleLookup
	store   OccupancyStore
	timeout time.Duration
	metrics *metrics.Registry
}

// NewCleaner builds a Cleaner. timeout is the flight-silence threshold
// (FLIGHT_TIMEOUT_MINUTES) past which an open interval is considered
// abandoned.
func NewCleaner(lookup StaleLookup, store OccupancyStore, timeout time.Duration, reg *metrics.Registry) *Cleaner {
	return &Cleaner{lookup: lookup, store: store, timeout: timeout, metrics: reg}
}

// Run executes one cleanup pass against the current time.
func (c *Cleaner) Run(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-c.timeout)
	occupants, err := c.lookup.FindStaleOccupants(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, occ := range occupants {
		// Scenario 5: an interval opened at T with no samples after T+30s is
		// found by the first pass after T+30s+flight_timeout and closed at
		// that pass's time (the moment staleness is detected), not at the
		// staleness cutoff itself.
		closed, err := c.store.CloseOpenIntervals(ctx, occ.Callsign, now, occ.Lat, occ.Lon, occ.Altitude)
		if err != nil {
			logging.WithComponent("sector_cleanup").Warnw("failed to close stale interval", "callsign", occ.Callsign, "error", err)
			continue
		}
		if closed > 0 && c.metrics != nil {
			c.metrics.StaleIntervalsClosedTotal.Add(float64(closed))
		}
	}

	logging.WithComponent("sector_cleanup").Infow("stale sector cleanup pass complete", "closed_candidates", len(occupants))
	return nil
}
