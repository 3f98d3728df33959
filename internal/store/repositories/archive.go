package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// ArchiveRepository performs the copy-then-delete step (C8). Both
// statements run in the same transaction so a session is never left
// half-archived: either both succeed or neither does, and the retry on the
// next scheduler tick is safe because the completion predicate already
// excludes triads with an existing summary.
type ArchiveRepository struct {
	db *sqlx.DB
}

// NewArchiveRepository builds an ArchiveRepository over db.
func NewArchiveRepository(db *sqlx.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// ArchiveFlightSession copies every flight row in [logonTime, mergedEnd]
// for the identity into flights_archive, then deletes them from flights.
func (r *ArchiveRepository) ArchiveFlightSession(ctx context.Context, callsign string, cid *int, logonTime, mergedEnd time.Time) (archived, deleted int64, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	const copyQuery = `
		INSERT INTO flights_archive
		SELECT * FROM flights
		WHERE callsign = $1 AND cid IS NOT DISTINCT FROM $2
		  AND logon_time BETWEEN $3 AND $4
	`
	res, err := tx.ExecContext(ctx, copyQuery, callsign, cid, logonTime, mergedEnd)
	if err != nil {
		return 0, 0, err
	}
	archived, _ = res.RowsAffected()

	const deleteQuery = `
		DELETE FROM flights
		WHERE callsign = $1 AND cid IS NOT DISTINCT FROM $2
		  AND logon_time BETWEEN $3 AND $4
	`
	res, err = tx.ExecContext(ctx, deleteQuery, callsign, cid, logonTime, mergedEnd)
	if err != nil {
		return 0, 0, err
	}
	deleted, _ = res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return archived, deleted, nil
}

// ArchiveControllerSession is the controller-table analogue.
func (r *ArchiveRepository) ArchiveControllerSession(ctx context.Context, callsign string, cid *int, logonTime, mergedEnd time.Time) (archived, deleted int64, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	const copyQuery = `
		INSERT INTO controllers_archive
		SELECT * FROM controllers
		WHERE callsign = $1 AND cid IS NOT DISTINCT FROM $2
		  AND logon_time BETWEEN $3 AND $4
	`
	res, err := tx.ExecContext(ctx, copyQuery, callsign, cid, logonTime, mergedEnd)
	if err != nil {
		return 0, 0, err
	}
	archived, _ = res.RowsAffected()

	const deleteQuery = `
		DELETE FROM controllers
		WHERE callsign = $1 AND cid IS NOT DISTINCT FROM $2
		  AND logon_time BETWEEN $3 AND $4
	`
	res, err = tx.ExecContext(ctx, deleteQuery, callsign, cid, logonTime, mergedEnd)
	if err != nil {
		return 0, 0, err
	}
	deleted, _ = res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return archived, deleted, nil
}
