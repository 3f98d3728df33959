package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/infinite-experiment/vatwatch/internal/domain"
)

// TransceiverRepository appends transceiver samples; the table is
// append-only (§3), so there is no upsert conflict clause here.
type TransceiverRepository struct {
	db *sqlx.DB
}

// NewTransceiverRepository builds a TransceiverRepository over db.
func NewTransceiverRepository(db *sqlx.DB) *TransceiverRepository {
	return &TransceiverRepository{db: db}
}

// InsertBatch appends every transceiver sample in its own transaction.
// Prefer InsertBatchTx when part of the batch writer's single flush
// transaction.
func (r *TransceiverRepository) InsertBatch(ctx context.Context, samples []domain.Transceiver) error {
	if len(samples) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.InsertBatchTx(ctx, tx, samples); err != nil {
		return err
	}
	return tx.Commit()
}

// InsertBatchTx appends every transceiver sample against tx without
// committing.
func (r *TransceiverRepository) InsertBatchTx(ctx context.Context, tx *sqlx.Tx, samples []domain.Transceiver) error {
	if len(samples) == 0 {
		return nil
	}

	const query = `
		INSERT INTO transceivers (
			callsign, transceiver_id, frequency, lat_deg, lon_deg,
			height_msl_m, height_agl_m, timestamp, entity_type
		) VALUES (
			:callsign, :transceiver_id, :frequency, :lat_deg, :lon_deg,
			:height_msl_m, :height_agl_m, :timestamp, :entity_type
		)
	`

	for _, s := range samples {
		if _, err := tx.NamedExecContext(ctx, query, s); err != nil {
			return err
		}
	}
	return nil
}

// ListByCallsignInWindow returns every transceiver sample for callsign
// within [start, end], ordered oldest first, used by the controller
// summarizer to pull a controller's own position history (§4.7).
func (r *TransceiverRepository) ListByCallsignInWindow(ctx context.Context, callsign string, start, end time.Time) ([]domain.Transceiver, error) {
	const query = `
		SELECT * FROM transceivers
		WHERE callsign = $1 AND timestamp BETWEEN $2 AND $3
		ORDER BY timestamp
	`
	var rows []domain.Transceiver
	if err := r.db.SelectContext(ctx, &rows, query, callsign, start, end); err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByEntityTypeInWindow returns every transceiver sample tagged with
// entityType within [start, end], used by the controller summarizer to
// pull every pilot position sample in the session window for proximity
// comparison against the controller's own track.
func (r *TransceiverRepository) ListByEntityTypeInWindow(ctx context.Context, entityType domain.EntityType, start, end time.Time) ([]domain.Transceiver, error) {
	const query = `
		SELECT * FROM transceivers
		WHERE entity_type = $1 AND timestamp BETWEEN $2 AND $3
		ORDER BY timestamp
	`
	var rows []domain.Transceiver
	if err := r.db.SelectContext(ctx, &rows, query, entityType, start, end); err != nil {
		return nil, err
	}
	return rows, nil
}
