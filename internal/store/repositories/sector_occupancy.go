package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/infinite-experiment/vatwatch/internal/domain"
	"github.com/infinite-experiment/vatwatch/internal/sectors"
)

// SectorOccupancyRepository implements sectors.OccupancyStore and
// sectors.StaleLookup against flight_sector_occupancy. Open intervals are
// matched by (callsign, exit_timestamp IS NULL); sector_name is not part of
// the match, so a close applies to every open interval of the callsign.
type SectorOccupancyRepository struct {
	db *sqlx.DB
}

// NewSectorOccupancyRepository builds a SectorOccupancyRepository over db.
func NewSectorOccupancyRepository(db *sqlx.DB) *SectorOccupancyRepository {
	return &SectorOccupancyRepository{db: db}
}

var _ sectors.OccupancyStore = (*SectorOccupancyRepository)(nil)
var _ sectors.StaleLookup = (*SectorOccupancyRepository)(nil)

// CloseOpenIntervals closes every row with exit_timestamp IS NULL for
// callsign. Normally this closes at most one row; when I-S1 has been
// violated by corruption it closes all of them, self-healing the invariant.
func (r *SectorOccupancyRepository) CloseOpenIntervals(ctx context.Context, callsign string, exitTime time.Time, lastLat, lastLon float64, lastAlt int) (int, error) {
	const query = `
		UPDATE flight_sector_occupancy
		SET exit_timestamp = $2,
		    duration_seconds = EXTRACT(EPOCH FROM ($2::timestamptz - entry_timestamp))::bigint,
		    last_lat = $3,
		    last_lon = $4,
		    last_alt = $5
		WHERE callsign = $1 AND exit_timestamp IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, callsign, exitTime, lastLat, lastLon, lastAlt)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// OpenInterval inserts a new occupancy row.
func (r *SectorOccupancyRepository) OpenInterval(ctx context.Context, occ domain.SectorOccupancy) error {
	const query = `
		INSERT INTO flight_sector_occupancy (
			callsign, sector_name, entry_timestamp, entry_lat, entry_lon,
			entry_altitude, last_lat, last_lon, last_alt
		) VALUES (
			:callsign, :sector_name, :entry_timestamp, :entry_lat, :entry_lon,
			:entry_altitude, :last_lat, :last_lon, :last_alt
		)
	`
	_, err := r.db.NamedExecContext(ctx, query, occ)
	return err
}

// UpdateLastPosition refreshes the last-known position on the open interval
// for callsign without touching exit_timestamp.
func (r *SectorOccupancyRepository) UpdateLastPosition(ctx context.Context, callsign string, lat, lon float64, alt int) error {
	const query = `
		UPDATE flight_sector_occupancy
		SET last_lat = $2, last_lon = $3, last_alt = $4
		WHERE callsign = $1 AND exit_timestamp IS NULL
	`
	_, err := r.db.ExecContext(ctx, query, callsign, lat, lon, alt)
	return err
}

// FindStaleOccupants returns callsigns with an open interval whose owning
// flight's last_updated predates cutoff, or whose flight row no longer
// exists at all (the aircraft logged off without a final low-speed tick).
func (r *SectorOccupancyRepository) FindStaleOccupants(ctx context.Context, cutoff time.Time) ([]sectors.StaleOccupant, error) {
	const query = `
		SELECT o.callsign, o.last_lat AS lat, o.last_lon AS lon, o.last_alt AS altitude
		FROM flight_sector_occupancy o
		LEFT JOIN flights f ON f.callsign = o.callsign
		WHERE o.exit_timestamp IS NULL
		  AND (f.callsign IS NULL OR f.last_updated < $1)
	`
	var rows []struct {
		Callsign string  `db:"callsign"`
		Lat      float64 `db:"lat"`
		Lon      float64 `db:"lon"`
		Altitude int     `db:"altitude"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, cutoff); err != nil {
		return nil, err
	}

	out := make([]sectors.StaleOccupant, 0, len(rows))
	for _, row := range rows {
		out = append(out, sectors.StaleOccupant{
			Callsign: row.Callsign,
			Lat:      row.Lat,
			Lon:      row.Lon,
			Altitude: row.Altitude,
		})
	}
	return out, nil
}

// ListOpenByCallsign returns one open interval for a callsign, or
// sql.ErrNoRows when the callsign has none.
func (r *SectorOccupancyRepository) ListOpenByCallsign(ctx context.Context, callsign string) (*domain.SectorOccupancy, error) {
	const query = `SELECT * FROM flight_sector_occupancy WHERE callsign = $1 AND exit_timestamp IS NULL LIMIT 1`
	var occ domain.SectorOccupancy
	if err := r.db.GetContext(ctx, &occ, query, callsign); err != nil {
		return nil, err
	}
	return &occ, nil
}
