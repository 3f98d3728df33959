// Package repositories holds the hand-written SQL repositories (sqlx, in
// the teacher's SyncRepository idiom) and the gorm-backed static sector
// repository.
package repositories

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/infinite-experiment/vatwatch/internal/domain"
)

// FlightRepository upserts the live, latest-wins flight table.
type FlightRepository struct {
	db *sqlx.DB
}

// NewFlightRepository builds a FlightRepository over the given handle.
func NewFlightRepository(db *sqlx.DB) *FlightRepository {
	return &FlightRepository{db: db}
}

// UpsertBatch writes every flight row in its own transaction. Prefer
// UpsertBatchTx when the call is part of the batch writer's single
// cross-table flush transaction (§4.4).
func (r *FlightRepository) UpsertBatch(ctx context.Context, flights []domain.Flight) error {
	if len(flights) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.UpsertBatchTx(ctx, tx, flights); err != nil {
		return err
	}
	return tx.Commit()
}

// UpsertBatchTx upserts every flight row against tx, on the
// (callsign, cid, logon_time) identity per §3's latest-wins semantics,
// without committing — the caller controls the transaction boundary so
// pilots, controllers, and transceivers can all land in one flush (§4.4).
func (r *FlightRepository) UpsertBatchTx(ctx context.Context, tx *sqlx.Tx, flights []domain.Flight) error {
	if len(flights) == 0 {
		return nil
	}

	const query = `
		INSERT INTO flights (
			callsign, cid, logon_time, name, latitude, longitude, altitude,
			groundspeed, heading, transponder, flight_rules, departure, arrival,
			aircraft_type, aircraft_faa, aircraft_short, route, planned_altitude,
			deptime, enroute_time, fuel_time, remarks, last_updated
		) VALUES (
			:callsign, :cid, :logon_time, :name, :latitude, :longitude, :altitude,
			:groundspeed, :heading, :transponder, :flight_rules, :departure, :arrival,
			:aircraft_type, :aircraft_faa, :aircraft_short, :route, :planned_altitude,
			:deptime, :enroute_time, :fuel_time, :remarks, :last_updated
		)
		ON CONFLICT (callsign, cid, logon_time) DO UPDATE SET
			name = EXCLUDED.name,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			altitude = EXCLUDED.altitude,
			groundspeed = EXCLUDED.groundspeed,
			heading = EXCLUDED.heading,
			transponder = EXCLUDED.transponder,
			flight_rules = EXCLUDED.flight_rules,
			departure = EXCLUDED.departure,
			arrival = EXCLUDED.arrival,
			aircraft_type = EXCLUDED.aircraft_type,
			aircraft_faa = EXCLUDED.aircraft_faa,
			aircraft_short = EXCLUDED.aircraft_short,
			route = EXCLUDED.route,
			planned_altitude = EXCLUDED.planned_altitude,
			deptime = EXCLUDED.deptime,
			enroute_time = EXCLUDED.enroute_time,
			fuel_time = EXCLUDED.fuel_time,
			remarks = EXCLUDED.remarks,
			last_updated = EXCLUDED.last_updated
		WHERE flights.last_updated <= EXCLUDED.last_updated
	`

	for _, f := range flights {
		if _, err := tx.NamedExecContext(ctx, query, f); err != nil {
			return err
		}
	}
	return nil
}

// GetByCallsign returns the current live row for callsign, or (nil, nil)
// if no such flight is currently live.
func (r *FlightRepository) GetByCallsign(ctx context.Context, callsign string) (*domain.Flight, error) {
	const query = `SELECT * FROM flights WHERE callsign = $1 LIMIT 1`
	var f domain.Flight
	if err := r.db.GetContext(ctx, &f, query, callsign); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

// ListActive returns every currently-live flight, used by the dashboard
// API's GET /api/flights.
func (r *FlightRepository) ListActive(ctx context.Context) ([]domain.Flight, error) {
	const query = `SELECT * FROM flights ORDER BY callsign`
	var out []domain.Flight
	if err := r.db.SelectContext(ctx, &out, query); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByIdentity removes a flight row after it has been archived.
func (r *FlightRepository) DeleteByIdentity(ctx context.Context, id domain.Identity) error {
	const query = `DELETE FROM flights WHERE callsign = $1 AND cid = $2 AND logon_time = $3`
	_, err := r.db.ExecContext(ctx, query, id.Callsign, id.CID, id.LogonTime)
	return err
}
