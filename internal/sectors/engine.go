package sectors

import (
	"context"
	"sync"
	"time"

	"github.com/infinite-experiment/vatwatch/internal/domain"
	"github.com/infinite-experiment/vatwatch/internal/logging"
	"github.com/infinite-experiment/vatwatch/internal/metrics"
)

// OccupancyStore is the persistence seam the engine writes through. It is
// implemented by store/repositories against the flight_sector_occupancy
// table; tests substitute a hand-rolled fake instead of a real database,
// the way the teacher's service tests fake out a repository interface.
type OccupancyStore interface {
	// CloseOpenIntervals closes every interval with exit_timestamp IS NULL
	// for callsign, setting exit_timestamp/duration_seconds/last_* from the
	// given sample. It returns the number of intervals closed, which should
	// be 0 or 1 in the steady state and >1 only when self-healing I-S1.
	CloseOpenIntervals(ctx context.Context, callsign string, exitTime time.Time, lastLat, lastLon float64, lastAlt int) (int, error)
	// OpenInterval inserts a new occupancy row.
	OpenInterval(ctx context.Context, occ domain.SectorOccupancy) error
	// UpdateLastPosition refreshes last_lat/last_lon/last_alt on the open
	// interval for callsign without closing it.
	UpdateLastPosition(ctx context.Context, callsign string, lat, lon float64, alt int) error
}

// flightState is the per-aircraft in-memory state described in §4.5.
type flightState struct {
	currentSector *string
	exitCounter   int
}

// Engine runs the speed-hysteresis sector occupancy state machine. Update
// runs on the poll task; the cleanup job calls PurgeAbsent on the same
// Engine, and both go through the mutex that guards the state map.
type Engine struct {
	index *Index

	enterKts      int
	exitKts       int
	exitDebounce  int

	mu     sync.Mutex
	states map[string]*flightState

	store   OccupancyStore
	metrics *metrics.Registry
}

// NewEngine builds an Engine against the given sector index and store.
func NewEngine(index *Index, store OccupancyStore, enterKts, exitKts, exitDebounce int, reg *metrics.Registry) *Engine {
	return &Engine{
		index:        index,
		store:        store,
		enterKts:     enterKts,
		exitKts:      exitKts,
		exitDebounce: exitDebounce,
		states:       make(map[string]*flightState),
		metrics:      reg,
	}
}

// Update applies one pilot sample to the state machine, per the three
// speed bands in §4.5:
//
//  1. speed >= ENTER: assign/refresh the current sector, resetting the
//     exit counter.
//  2. EXIT <= speed < ENTER: deadband — retain the current sector, zero
//     the exit counter.
//  3. speed < EXIT: increment the exit counter; once it reaches the
//     debounce threshold, close the interval and clear the current sector.
func (e *Engine) Update(ctx context.Context, sample domain.PilotSample) {
	if sample.Groundspeed == nil {
		// Rule 1: no speed this tick. Retain the current sector, zero the
		// exit counter, emit nothing.
		e.mu.Lock()
		if st, ok := e.states[sample.Callsign]; ok {
			st.exitCounter = 0
		}
		e.mu.Unlock()
		return
	}
	if sample.Latitude == nil || sample.Longitude == nil {
		// Open question (§9): position missing but speed present. Retain
		// whatever state exists and do nothing further, since sector
		// assignment needs a position; leave the exit counter untouched
		// since this sample carries no hysteresis signal either way.
		return
	}

	altitude := 0
	if sample.Altitude != nil {
		altitude = *sample.Altitude
	}
	speed := *sample.Groundspeed

	e.mu.Lock()
	st, ok := e.states[sample.Callsign]
	if !ok {
		st = &flightState{}
		e.states[sample.Callsign] = st
	}
	e.mu.Unlock()

	switch {
	case speed >= e.enterKts:
		e.handleEnterBand(ctx, sample, st, *sample.Latitude, *sample.Longitude, altitude)
	case speed >= e.exitKts:
		st.exitCounter = 0
		e.refreshPosition(ctx, sample.Callsign, st, *sample.Latitude, *sample.Longitude, altitude)
	default:
		e.handleExitBand(ctx, sample, st)
	}
}

func (e *Engine) handleEnterBand(ctx context.Context, sample domain.PilotSample, st *flightState, lat, lon float64, altitude int) {
	newSector, found := e.index.SectorOf(lat, lon, altitude)

	var newSectorPtr *string
	if found {
		newSectorPtr = &newSector
	}

	changed := !sameSector(st.currentSector, newSectorPtr)
	if changed {
		if st.currentSector != nil {
			e.closeInterval(ctx, sample.Callsign, *st.currentSector, sample.ReportedTime, lat, lon, altitude, "sector_change")
		}
		if newSectorPtr != nil {
			e.openInterval(ctx, sample, newSector, lat, lon, altitude)
		}
	} else if newSectorPtr != nil {
		e.refreshPosition(ctx, sample.Callsign, st, lat, lon, altitude)
	}

	st.exitCounter = 0
	st.currentSector = newSectorPtr
}

func (e *Engine) handleExitBand(ctx context.Context, sample domain.PilotSample, st *flightState) {
	if st.currentSector == nil {
		return
	}
	st.exitCounter++
	if st.exitCounter < e.exitDebounce {
		return
	}

	lat, lon, altitude := 0.0, 0.0, 0
	if sample.Latitude != nil {
		lat = *sample.Latitude
	}
	if sample.Longitude != nil {
		lon = *sample.Longitude
	}
	if sample.Altitude != nil {
		altitude = *sample.Altitude
	}

	e.closeInterval(ctx, sample.Callsign, *st.currentSector, sample.ReportedTime, lat, lon, altitude, "speed_exit")
	st.currentSector = nil
	st.exitCounter = 0
}

func (e *Engine) refreshPosition(ctx context.Context, callsign string, st *flightState, lat, lon float64, altitude int) {
	if st.currentSector == nil {
		return
	}
	if err := e.store.UpdateLastPosition(ctx, callsign, lat, lon, altitude); err != nil {
		logging.WithComponent("sector_engine").Warnw("failed to refresh last position", "callsign", callsign, "error", err)
	}
}

func (e *Engine) openInterval(ctx context.Context, sample domain.PilotSample, sectorName string, lat, lon float64, altitude int) {
	occ := domain.SectorOccupancy{
		Callsign:       sample.Callsign,
		SectorName:     sectorName,
		EntryTimestamp: sample.ReportedTime,
		EntryLat:       lat,
		EntryLon:       lon,
		EntryAltitude:  altitude,
		LastLat:        lat,
		LastLon:        lon,
		LastAlt:        altitude,
	}
	if err := e.store.OpenInterval(ctx, occ); err != nil {
		logging.WithComponent("sector_engine").Warnw("failed to open sector interval", "callsign", sample.Callsign, "sector", sectorName, "error", err)
		return
	}
	if e.metrics != nil {
		e.metrics.SectorEntriesTotal.WithLabelValues(sectorName).Inc()
	}
}

func (e *Engine) closeInterval(ctx context.Context, callsign, sectorName string, exitTime time.Time, lat, lon float64, altitude int, reason string) {
	closed, err := e.store.CloseOpenIntervals(ctx, callsign, exitTime, lat, lon, altitude)
	if err != nil {
		logging.WithComponent("sector_engine").Warnw("failed to close sector interval", "callsign", callsign, "error", err)
		return
	}
	if closed > 1 && e.metrics != nil {
		// I-S1 violation self-healed: more than one open interval existed.
		e.metrics.SectorInvariantRepairsTotal.Inc()
		logging.WithComponent("sector_engine").Warnw("self-healed multiple open sector intervals", "callsign", callsign, "closed", closed)
	}
	if e.metrics != nil && closed > 0 {
		e.metrics.SectorExitsTotal.WithLabelValues(sectorName, reason).Inc()
	}
}

// Snapshot returns the current sector assignment for every tracked
// callsign that is inside a sector right now, for consumers (the sector
// cache, the status endpoint) that want a point-in-time read without
// touching the database.
func (e *Engine) Snapshot() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]string, len(e.states))
	for callsign, st := range e.states {
		if st.currentSector != nil {
			out[callsign] = *st.currentSector
		}
	}
	return out
}

// PurgeAbsent drops per-flight state for any tracked callsign not present in
// live, per §4.5's cleanup job ("purge the in-memory per-flight state map of
// callsigns now absent from the live table"). It returns the number purged.
func (e *Engine) PurgeAbsent(live map[string]struct{}) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	purged := 0
	for callsign := range e.states {
		if _, ok := live[callsign]; !ok {
			delete(e.states, callsign)
			purged++
		}
	}
	return purged
}

func sameSector(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
