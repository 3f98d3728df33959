// Package audit runs the read-only invariant checks described in §8/§11:
// I-1 (no live row has a summary already), I-S1 (at most one open sector
// interval per callsign), and I-S2 (closed intervals have a non-negative,
// correctly computed duration). It never repairs anything itself — the
// sector engine already self-heals I-S1 on the write path (§4.5); this job
// exists purely to surface a corruption that self-healing hasn't caught up
// to yet, the way the teacher's workers log anomalies without acting on
// them directly.
package audit

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/infinite-experiment/vatwatch/internal/logging"
)

// Auditor runs invariant checks against the live database.
type Auditor struct {
	db *sqlx.DB
}

// New builds an Auditor over db.
func New(db *sqlx.DB) *Auditor {
	return &Auditor{db: db}
}

// Report summarizes one audit pass. A healthy system produces an empty
// Report; any non-zero count means a specific invariant was found broken.
type Report struct {
	SummarizedFlightsStillLive int
	MultipleOpenIntervals      int
	InvalidClosedIntervals     int
}

// Run executes every check and logs a warning for each violation found.
func (a *Auditor) Run(ctx context.Context) error {
	report := Report{}

	if n, err := a.checkI1(ctx); err != nil {
		return err
	} else {
		report.SummarizedFlightsStillLive = n
	}

	if n, err := a.checkIS1(ctx); err != nil {
		return err
	} else {
		report.MultipleOpenIntervals = n
	}

	if n, err := a.checkIS2(ctx); err != nil {
		return err
	} else {
		report.InvalidClosedIntervals = n
	}

	log := logging.WithComponent("audit")
	if report.SummarizedFlightsStillLive == 0 && report.MultipleOpenIntervals == 0 && report.InvalidClosedIntervals == 0 {
		log.Debugw("invariant audit passed")
		return nil
	}

	log.Warnw("invariant audit found violations",
		"summarized_flights_still_live", report.SummarizedFlightsStillLive,
		"multiple_open_intervals", report.MultipleOpenIntervals,
		"invalid_closed_intervals", report.InvalidClosedIntervals,
	)
	return nil
}

// checkI1 counts flights rows whose identity triad already has a summary,
// which should never happen once archival runs after summarization (§4.8).
func (a *Auditor) checkI1(ctx context.Context) (int, error) {
	const query = `
		SELECT count(*) FROM flights f
		WHERE EXISTS (
			SELECT 1 FROM flight_summaries s
			WHERE s.callsign = f.callsign
			  AND s.cid IS NOT DISTINCT FROM f.cid
			  AND s.session_start_time = f.logon_time
		)
	`
	var n int
	if err := a.db.GetContext(ctx, &n, query); err != nil {
		return 0, err
	}
	return n, nil
}

// checkIS1 counts callsigns with more than one currently-open interval.
func (a *Auditor) checkIS1(ctx context.Context) (int, error) {
	const query = `
		SELECT count(*) FROM (
			SELECT callsign FROM flight_sector_occupancy
			WHERE exit_timestamp IS NULL
			GROUP BY callsign
			HAVING count(*) > 1
		) violations
	`
	var n int
	if err := a.db.GetContext(ctx, &n, query); err != nil {
		return 0, err
	}
	return n, nil
}

// checkIS2 counts closed intervals whose exit precedes entry or whose
// stored duration disagrees with exit minus entry.
func (a *Auditor) checkIS2(ctx context.Context) (int, error) {
	const query = `
		SELECT count(*) FROM flight_sector_occupancy
		WHERE exit_timestamp IS NOT NULL
		  AND (
			exit_timestamp < entry_timestamp
			OR duration_seconds IS DISTINCT FROM EXTRACT(EPOCH FROM (exit_timestamp - entry_timestamp))::bigint
		  )
	`
	var n int
	if err := a.db.GetContext(ctx, &n, query); err != nil {
		return 0, err
	}
	return n, nil
}
