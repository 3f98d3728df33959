package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/infinite-experiment/vatwatch/internal/domain"
)

// CompletionCandidate is one (callsign, cid, logon_time) triad whose live
// rows have gone quiet and have no existing summary.
type CompletionCandidate struct {
	Callsign   string    `db:"callsign"`
	CID        *int      `db:"cid"`
	LogonTime  time.Time `db:"logon_time"`
	SessionEnd time.Time `db:"session_end"`
}

// SessionRepository implements the completion-candidate and
// reconnection-merge queries shared by flights and controllers (§4.6). The
// two entity tables differ only in name, so every method takes the table
// names as parameters rather than duplicating the query per entity.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository builds a SessionRepository over db.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// FindCompletionCandidates implements the completion predicate exactly as
// specified: grouped MAX(last_updated) older than the cutoff, with no
// existing summary row for the triad. IS NOT DISTINCT FROM is used instead
// of `=` so NULL CIDs still dedup correctly; NOT IN on tuples is never used.
func (r *SessionRepository) FindCompletionCandidates(ctx context.Context, liveTable, summaryTable string, cutoff time.Time) ([]CompletionCandidate, error) {
	query := `
		SELECT l.callsign, l.cid, l.logon_time, MAX(l.last_updated) AS session_end
		FROM ` + liveTable + ` l
		GROUP BY l.callsign, l.cid, l.logon_time
		HAVING MAX(l.last_updated) < $1
		   AND NOT EXISTS (
		     SELECT 1 FROM ` + summaryTable + ` s
		     WHERE s.callsign = l.callsign
		       AND s.cid IS NOT DISTINCT FROM l.cid
		       AND s.session_start_time = l.logon_time
		   )
	`
	var rows []CompletionCandidate
	if err := r.db.SelectContext(ctx, &rows, query, cutoff); err != nil {
		return nil, err
	}
	return rows, nil
}

// ReconnectionWindowCount counts additional raw rows for the same identity
// whose logon_time falls in the half-open window
// (sessionEnd, sessionEnd + threshold]. The gap is measured from
// session_end, never from the original logon_time, per the
// regression-guarded contract.
func (r *SessionRepository) ReconnectionWindowCount(ctx context.Context, liveTable string, callsign string, cid *int, sessionEnd time.Time, threshold time.Duration) (int, error) {
	query := `
		SELECT COUNT(*) FROM ` + liveTable + `
		WHERE callsign = $1
		  AND cid IS NOT DISTINCT FROM $2
		  AND logon_time > $3
		  AND logon_time <= $4
	`
	var count int
	if err := r.db.GetContext(ctx, &count, query, callsign, cid, sessionEnd, sessionEnd.Add(threshold)); err != nil {
		return 0, err
	}
	return count, nil
}

// ReconnectionWindowMaxActivity returns the latest last_updated among rows
// in the same half-open window as ReconnectionWindowCount. Chained
// reconnects must advance session_end to this actual activity, not to a
// fixed sessionEnd+threshold increment, or a third reconnect whose
// logon_time lands beyond the fixed increment but within threshold of the
// real last activity would be missed.
func (r *SessionRepository) ReconnectionWindowMaxActivity(ctx context.Context, liveTable string, callsign string, cid *int, sessionEnd time.Time, threshold time.Duration) (time.Time, bool, error) {
	query := `
		SELECT MAX(last_updated) FROM ` + liveTable + `
		WHERE callsign = $1
		  AND cid IS NOT DISTINCT FROM $2
		  AND logon_time > $3
		  AND logon_time <= $4
	`
	var max *time.Time
	if err := r.db.GetContext(ctx, &max, query, callsign, cid, sessionEnd, sessionEnd.Add(threshold)); err != nil {
		return time.Time{}, false, err
	}
	if max == nil {
		return time.Time{}, false, nil
	}
	return *max, true, nil
}

// MergedFlightRows returns every raw flight row belonging to the merged
// session window: the original triad plus any reconnection-window rows,
// ordered so MIN/MAX aggregation in the summarizer sees the full set.
func (r *SessionRepository) MergedFlightRows(ctx context.Context, callsign string, cid *int, logonTime, mergedEnd time.Time) ([]domain.Flight, error) {
	const query = `
		SELECT * FROM flights
		WHERE callsign = $1
		  AND cid IS NOT DISTINCT FROM $2
		  AND logon_time BETWEEN $3 AND $4
		ORDER BY last_updated
	`
	var rows []domain.Flight
	if err := r.db.SelectContext(ctx, &rows, query, callsign, cid, logonTime, mergedEnd); err != nil {
		return nil, err
	}
	return rows, nil
}

// MergedControllerRows is the controller-table analogue of MergedFlightRows.
func (r *SessionRepository) MergedControllerRows(ctx context.Context, callsign string, cid *int, logonTime, mergedEnd time.Time) ([]domain.Controller, error) {
	const query = `
		SELECT * FROM controllers
		WHERE callsign = $1
		  AND cid IS NOT DISTINCT FROM $2
		  AND logon_time BETWEEN $3 AND $4
		ORDER BY last_updated
	`
	var rows []domain.Controller
	if err := r.db.SelectContext(ctx, &rows, query, callsign, cid, logonTime, mergedEnd); err != nil {
		return nil, err
	}
	return rows, nil
}
