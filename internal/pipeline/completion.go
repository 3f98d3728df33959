package pipeline

import (
	"context"
	"time"

	"github.com/infinite-experiment/vatwatch/internal/config"
	"github.com/infinite-experiment/vatwatch/internal/logging"
	"github.com/infinite-experiment/vatwatch/internal/session"
	"github.com/infinite-experiment/vatwatch/internal/store/repositories"
)

var _ session.TransceiverLookup = (*repositories.TransceiverRepository)(nil)

// CompletionTick adapts the session detector's per-entity-type runs to a
// single scheduler.Job, driving C6 (completion+merge), C7 (summarize), and
// C8 (archive) for both flights and controllers every cycle.
func CompletionTick(detector *session.Detector, xcvrs *repositories.TransceiverRepository, cfg *config.Config) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		now := time.Now().UTC()

		flightResult, err := detector.RunFlights(ctx, now, cfg.CompletionMinutesFlight)
		if err != nil {
			return err
		}
		if flightResult.SummariesCreated > 0 {
			logging.WithComponent("session_completion").Infow("flight sessions completed",
				"summaries", flightResult.SummariesCreated,
				"archived", flightResult.RecordsArchived,
				"deleted", flightResult.RecordsDeleted,
			)
		}

		controllerResult, err := detector.RunControllers(ctx, now, cfg.CompletionMinutesController, xcvrs)
		if err != nil {
			return err
		}
		if controllerResult.SummariesCreated > 0 {
			logging.WithComponent("session_completion").Infow("controller sessions completed",
				"summaries", controllerResult.SummariesCreated,
				"archived", controllerResult.RecordsArchived,
				"deleted", controllerResult.RecordsDeleted,
			)
		}

		return nil
	}
}
