package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/infinite-experiment/vatwatch/internal/domain"
)

// SummaryRepository inserts the roll-up rows produced by the summarizer
// (C7). Insert failure here must abort the archive+delete step for the
// same session (§4.7): callers check the returned error before proceeding.
type SummaryRepository struct {
	db *sqlx.DB
}

// NewSummaryRepository builds a SummaryRepository over db.
func NewSummaryRepository(db *sqlx.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// InsertFlightSummary inserts one flight_summaries row.
func (r *SummaryRepository) InsertFlightSummary(ctx context.Context, s domain.FlightSummary) error {
	const query = `
		INSERT INTO flight_summaries (
			callsign, cid, logon_time, session_start_time, session_end_time,
			duration_minutes, max_altitude, min_altitude, max_speed,
			flight_rules, departure, arrival, aircraft_type, aircraft_faa,
			aircraft_short, route, planned_altitude, deptime, enroute_time,
			fuel_time, remarks, distinct_frequencies, name
		) VALUES (
			:callsign, :cid, :logon_time, :session_start_time, :session_end_time,
			:duration_minutes, :max_altitude, :min_altitude, :max_speed,
			:flight_rules, :departure, :arrival, :aircraft_type, :aircraft_faa,
			:aircraft_short, :route, :planned_altitude, :deptime, :enroute_time,
			:fuel_time, :remarks, :distinct_frequencies, :name
		)
	`
	_, err := r.db.NamedExecContext(ctx, query, s)
	return err
}

// InsertControllerSummary inserts one controller_summaries row. The JSON
// columns (frequencies_used, hourly_aircraft_breakdown, aircraft_details)
// are expected to already be marshaled onto the struct's *JSON fields by
// the summarizer before calling this method.
func (r *SummaryRepository) InsertControllerSummary(ctx context.Context, s domain.ControllerSummary) error {
	const query = `
		INSERT INTO controller_summaries (
			callsign, cid, session_start_time, session_end_time,
			session_duration_minutes, frequencies_used, total_aircraft_handled,
			peak_aircraft_count, hourly_aircraft_breakdown, aircraft_details
		) VALUES (
			:callsign, :cid, :session_start_time, :session_end_time,
			:session_duration_minutes, :frequencies_used, :total_aircraft_handled,
			:peak_aircraft_count, :hourly_aircraft_breakdown, :aircraft_details
		)
	`
	_, err := r.db.NamedExecContext(ctx, query, s)
	return err
}

// ListFlightSummaries returns recent flight summaries for the dashboard
// API's GET /api/flights/summaries.
func (r *SummaryRepository) ListFlightSummaries(ctx context.Context, limit int) ([]domain.FlightSummary, error) {
	const query = `SELECT * FROM flight_summaries ORDER BY session_end_time DESC LIMIT $1`
	var out []domain.FlightSummary
	if err := r.db.SelectContext(ctx, &out, query, limit); err != nil {
		return nil, err
	}
	return out, nil
}
