// Package pipeline wires the ingestion stages (C1-C5) and the batch writer
// (C4) into the scheduler.Job shape, the way the teacher's internal/jobs
// package wraps a sync loop for a ticker to call.
package pipeline

import (
	"time"

	"github.com/infinite-experiment/vatwatch/internal/domain"
)

// toFlight converts one pilot sample into the latest-wins Flight row
// shape the flights table upsert expects.
func toFlight(p domain.PilotSample) domain.Flight {
	return domain.Flight{
		Callsign:    p.Callsign,
		CID:         p.CID,
		LogonTime:   p.LogonTime,
		Name:        p.Name,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		Altitude:    p.Altitude,
		Groundspeed: p.Groundspeed,
		Heading:     p.Heading,
		Transponder: p.Transponder,
		FlightPlan:  p.FlightPlan,
		LastUpdated: reportedOrNow(p.ReportedTime),
	}
}

// toController converts one controller sample into the latest-wins
// Controller row shape.
func toController(c domain.ControllerSample) domain.Controller {
	return domain.Controller{
		Callsign:    c.Callsign,
		CID:         c.CID,
		LogonTime:   c.LogonTime,
		Name:        c.Name,
		Facility:    c.Facility,
		Rating:      c.Rating,
		Frequency:   c.Frequency,
		VisualRange: c.VisualRange,
		TextATIS:    c.TextATIS,
		LastUpdated: reportedOrNow(c.ReportedTime),
	}
}

// toTransceiver converts one transceiver sample into its append-only row
// shape. The primary key ID is left zero for the database to assign.
func toTransceiver(t domain.TransceiverSample) domain.Transceiver {
	return domain.Transceiver{
		Callsign:      t.Callsign,
		TransceiverID: t.TransceiverID,
		Frequency:     t.Frequency,
		LatDeg:        t.LatDeg,
		LonDeg:        t.LonDeg,
		HeightMslM:    t.HeightMslM,
		HeightAglM:    t.HeightAglM,
		Timestamp:     t.Timestamp,
		EntityType:    t.EntityType,
	}
}

func reportedOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
