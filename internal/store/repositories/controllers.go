package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/infinite-experiment/vatwatch/internal/domain"
)

// ControllerRepository upserts the live controller table, refreshing
// last_updated (which the completion-candidate query reads) along with
// status/last_seen.
type ControllerRepository struct {
	db *sqlx.DB
}

// NewControllerRepository builds a ControllerRepository over db.
func NewControllerRepository(db *sqlx.DB) *ControllerRepository {
	return &ControllerRepository{db: db}
}

// UpsertBatch upserts every controller row in its own transaction. Prefer
// UpsertBatchTx when part of the batch writer's single flush transaction.
func (r *ControllerRepository) UpsertBatch(ctx context.Context, controllers []domain.Controller) error {
	if len(controllers) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.UpsertBatchTx(ctx, tx, controllers); err != nil {
		return err
	}
	return tx.Commit()
}

// UpsertBatchTx upserts every controller row against tx without committing.
func (r *ControllerRepository) UpsertBatchTx(ctx context.Context, tx *sqlx.Tx, controllers []domain.Controller) error {
	if len(controllers) == 0 {
		return nil
	}

	const query = `
		INSERT INTO controllers (
			callsign, cid, logon_time, name, facility, rating, frequency,
			visual_range, text_atis, last_updated, last_seen, status
		) VALUES (
			:callsign, :cid, :logon_time, :name, :facility, :rating, :frequency,
			:visual_range, :text_atis, :last_updated, :last_seen, :status
		)
		ON CONFLICT (callsign, cid, logon_time) DO UPDATE SET
			name = EXCLUDED.name,
			facility = EXCLUDED.facility,
			rating = EXCLUDED.rating,
			frequency = EXCLUDED.frequency,
			visual_range = EXCLUDED.visual_range,
			text_atis = EXCLUDED.text_atis,
			last_updated = EXCLUDED.last_updated,
			last_seen = EXCLUDED.last_seen,
			status = EXCLUDED.status
		WHERE controllers.last_updated <= EXCLUDED.last_updated
	`

	for _, c := range controllers {
		c.Status = "online"
		c.LastSeen = c.LastUpdated
		if _, err := tx.NamedExecContext(ctx, query, c); err != nil {
			return err
		}
	}
	return nil
}

// ListActive returns every controller currently marked online.
func (r *ControllerRepository) ListActive(ctx context.Context) ([]domain.Controller, error) {
	const query = `SELECT * FROM controllers WHERE status = 'online' ORDER BY callsign`
	var out []domain.Controller
	if err := r.db.SelectContext(ctx, &out, query); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByIdentity removes a controller row after archival.
func (r *ControllerRepository) DeleteByIdentity(ctx context.Context, id domain.Identity) error {
	const query = `DELETE FROM controllers WHERE callsign = $1 AND cid = $2 AND logon_time = $3`
	_, err := r.db.ExecContext(ctx, query, id.Callsign, id.CID, id.LogonTime)
	return err
}
