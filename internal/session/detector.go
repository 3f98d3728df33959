// Package session drives the completion-detection, reconnection-merge,
// summarization, and archival cycle (C6-C8) through the explicit state
// machine IDENTIFIED -> MERGED -> SUMMARIZED -> ARCHIVED -> DELETED.
package session

import (
	"context"
	"time"

	"github.com/infinite-experiment/vatwatch/internal/domain"
	"github.com/infinite-experiment/vatwatch/internal/logging"
	"github.com/infinite-experiment/vatwatch/internal/metrics"
	"github.com/infinite-experiment/vatwatch/internal/store/repositories"
	"github.com/infinite-experiment/vatwatch/internal/summary"
)

// TransceiverLookup supplies the historical position samples the
// controller summarizer needs, queried per candidate's merged session
// window rather than held in memory for the whole run.
type TransceiverLookup interface {
	ListByCallsignInWindow(ctx context.Context, callsign string, start, end time.Time) ([]domain.Transceiver, error)
	ListByEntityTypeInWindow(ctx context.Context, entityType domain.EntityType, start, end time.Time) ([]domain.Transceiver, error)
}

// SessionStore is the narrow seam Detector needs onto
// repositories.SessionRepository: the completion predicate and the
// reconnection-merge lookups. A fake implementing this interface drives the
// state machine in tests without a database.
type SessionStore interface {
	FindCompletionCandidates(ctx context.Context, liveTable, summaryTable string, cutoff time.Time) ([]repositories.CompletionCandidate, error)
	ReconnectionWindowMaxActivity(ctx context.Context, liveTable string, callsign string, cid *int, sessionEnd time.Time, threshold time.Duration) (time.Time, bool, error)
	MergedFlightRows(ctx context.Context, callsign string, cid *int, logonTime, mergedEnd time.Time) ([]domain.Flight, error)
	MergedControllerRows(ctx context.Context, callsign string, cid *int, logonTime, mergedEnd time.Time) ([]domain.Controller, error)
}

// SummaryStore is the narrow seam onto repositories.SummaryRepository.
type SummaryStore interface {
	InsertFlightSummary(ctx context.Context, s domain.FlightSummary) error
	InsertControllerSummary(ctx context.Context, s domain.ControllerSummary) error
}

// ArchiveStore is the narrow seam onto repositories.ArchiveRepository.
type ArchiveStore interface {
	ArchiveFlightSession(ctx context.Context, callsign string, cid *int, logonTime, mergedEnd time.Time) (archived, deleted int64, err error)
	ArchiveControllerSession(ctx context.Context, callsign string, cid *int, logonTime, mergedEnd time.Time) (archived, deleted int64, err error)
}

// Detector owns the repositories needed to carry a candidate session
// through every state. Flights and controllers share the same machine;
// only the repository calls differ.
type Detector struct {
	sessions  SessionStore
	summaries SummaryStore
	archives  ArchiveStore

	reconnectionThreshold time.Duration
	controllerRadiusNM    float64

	metrics *metrics.Registry
}

// New builds a Detector. sessions/summaries/archives are interfaces so a
// caller can substitute fakes in tests, the same
// mockLiveAPIProvider-over-interface pattern the teacher uses in
// internal/services/registration_service_v2_test.go.
func New(
	sessions SessionStore,
	summaries SummaryStore,
	archives ArchiveStore,
	reconnectionThreshold time.Duration,
	controllerRadiusNM float64,
	reg *metrics.Registry,
) *Detector {
	return &Detector{
		sessions:              sessions,
		summaries:             summaries,
		archives:              archives,
		reconnectionThreshold: reconnectionThreshold,
		controllerRadiusNM:    controllerRadiusNM,
		metrics:               reg,
	}
}

// Result reports what one completion pass accomplished, per §4.8.
type Result struct {
	SummariesCreated int
	RecordsArchived  int64
	RecordsDeleted   int64
}

// RunFlights processes every flight completion candidate as of now.
func (d *Detector) RunFlights(ctx context.Context, now time.Time, completionMinutes time.Duration) (Result, error) {
	cutoff := now.Add(-completionMinutes)
	candidates, err := d.sessions.FindCompletionCandidates(ctx, "flights", "flight_summaries", cutoff)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for _, c := range candidates {
		mergedEnd, err := d.mergeWindow(ctx, "flights", c)
		if err != nil {
			logging.WithComponent("session_completion").Warnw("merge failed", "callsign", c.Callsign, "error", err)
			continue
		}

		rows, err := d.sessions.MergedFlightRows(ctx, c.Callsign, c.CID, c.LogonTime, mergedEnd)
		if err != nil || len(rows) == 0 {
			continue
		}

		s := summary.SummarizeFlight(rows)
		s, err = summary.PrepareFlightForPersist(s)
		if err != nil {
			logging.WithComponent("session_completion").Warnw("summary marshal failed", "callsign", c.Callsign, "error", err)
			continue
		}
		if err := d.summaries.InsertFlightSummary(ctx, s); err != nil {
			logging.WithComponent("session_completion").Warnw("summary insert failed, aborting archive", "callsign", c.Callsign, "error", err)
			continue
		}
		result.SummariesCreated++
		d.observe("flight", "summarized")

		archived, deleted, err := d.archives.ArchiveFlightSession(ctx, c.Callsign, c.CID, c.LogonTime, mergedEnd)
		if err != nil {
			logging.WithComponent("session_completion").Warnw("archive failed, retry next cycle", "callsign", c.Callsign, "error", err)
			continue
		}
		result.RecordsArchived += archived
		result.RecordsDeleted += deleted
		d.observeArchive("flight", archived, deleted)
	}
	return result, nil
}

// RunControllers processes every controller completion candidate as of now.
func (d *Detector) RunControllers(ctx context.Context, now time.Time, completionMinutes time.Duration, xcvrs TransceiverLookup) (Result, error) {
	cutoff := now.Add(-completionMinutes)
	candidates, err := d.sessions.FindCompletionCandidates(ctx, "controllers", "controller_summaries", cutoff)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for _, c := range candidates {
		mergedEnd, err := d.mergeWindow(ctx, "controllers", c)
		if err != nil {
			logging.WithComponent("session_completion").Warnw("merge failed", "callsign", c.Callsign, "error", err)
			continue
		}

		rows, err := d.sessions.MergedControllerRows(ctx, c.Callsign, c.CID, c.LogonTime, mergedEnd)
		if err != nil || len(rows) == 0 {
			continue
		}

		controllerXcvrs, err := xcvrs.ListByCallsignInWindow(ctx, c.Callsign, c.LogonTime, mergedEnd)
		if err != nil {
			logging.WithComponent("session_completion").Warnw("controller transceiver lookup failed", "callsign", c.Callsign, "error", err)
			continue
		}
		pilotXcvrs, err := xcvrs.ListByEntityTypeInWindow(ctx, domain.EntityPilot, c.LogonTime, mergedEnd)
		if err != nil {
			logging.WithComponent("session_completion").Warnw("pilot transceiver lookup failed", "callsign", c.Callsign, "error", err)
			continue
		}

		s := summary.SummarizeController(rows, mergedEnd, controllerXcvrs, pilotXcvrs, d.controllerRadiusNM)
		s, err = summary.PrepareForPersist(s)
		if err != nil {
			logging.WithComponent("session_completion").Warnw("summary marshal failed", "callsign", c.Callsign, "error", err)
			continue
		}

		if err := d.summaries.InsertControllerSummary(ctx, s); err != nil {
			logging.WithComponent("session_completion").Warnw("summary insert failed, aborting archive", "callsign", c.Callsign, "error", err)
			continue
		}
		result.SummariesCreated++
		d.observe("controller", "summarized")

		archived, deleted, err := d.archives.ArchiveControllerSession(ctx, c.Callsign, c.CID, c.LogonTime, mergedEnd)
		if err != nil {
			logging.WithComponent("session_completion").Warnw("archive failed, retry next cycle", "callsign", c.Callsign, "error", err)
			continue
		}
		result.RecordsArchived += archived
		result.RecordsDeleted += deleted
		d.observeArchive("controller", archived, deleted)
	}
	return result, nil
}

// mergeWindow extends a candidate's session_end by repeatedly pulling in
// reconnection-window rows until no further rows fall within threshold of
// the new end, implementing the MERGED state transition.
func (d *Detector) mergeWindow(ctx context.Context, liveTable string, c repositories.CompletionCandidate) (time.Time, error) {
	end := c.SessionEnd
	for {
		maxActivity, found, err := d.sessions.ReconnectionWindowMaxActivity(ctx, liveTable, c.Callsign, c.CID, end, d.reconnectionThreshold)
		if err != nil {
			return end, err
		}
		if !found {
			return end, nil
		}
		// Advance end to the reconnect's actual last activity, not a fixed
		// sessionEnd+threshold increment, so a further chained reconnect is
		// still measured from real activity on the next iteration.
		end = maxActivity
		d.observe(liveTable, "merged")
	}
}

func (d *Detector) observe(entityType, stage string) {
	if d.metrics == nil {
		return
	}
	switch stage {
	case "merged":
		d.metrics.SessionsMergedTotal.WithLabelValues(entityType).Inc()
	case "summarized":
		d.metrics.SummariesCreatedTotal.WithLabelValues(entityType).Inc()
		d.metrics.SessionsCompletedTotal.WithLabelValues(entityType).Inc()
	}
}

func (d *Detector) observeArchive(entityType string, archived, deleted int64) {
	if d.metrics == nil {
		return
	}
	d.metrics.RecordsArchivedTotal.WithLabelValues(entityType).Add(float64(archived))
	d.metrics.RecordsDeletedTotal.WithLabelValues(entityType).Add(float64(deleted))
}
