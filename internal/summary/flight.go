// Package summary rolls up a completed session's raw rows into the single
// summary row the archiver later copies its raw data alongside (C7).
package summary

import (
	"sort"

	"github.com/infinite-experiment/vatwatch/internal/domain"
)

// SummarizeFlight derives a FlightSummary from every raw row in a merged
// session window, per §4.7: session_start_time is the earliest logon_time,
// session_end_time the latest last_updated, altitude/speed are the window
// maxima, flight-plan fields are copied from the most recently updated
// non-empty row, and distinct_frequencies is the distinct set of
// transponder codes seen across the window (a flight concept, unlike
// frequencies_used on the controller summary).
func SummarizeFlight(rows []domain.Flight) domain.FlightSummary {
	if len(rows) == 0 {
		return domain.FlightSummary{}
	}

	s := domain.FlightSummary{
		Callsign:  rows[0].Callsign,
		CID:       rows[0].CID,
		LogonTime: rows[0].LogonTime,
	}
	s.SessionStartTime = rows[0].LogonTime
	s.SessionEndTime = rows[0].LastUpdated
	s.MinAltitude = intOrZero(rows[0].Altitude)
	s.MaxAltitude = intOrZero(rows[0].Altitude)

	var latest domain.Flight
	freqSeen := map[string]struct{}{}
	for _, r := range rows {
		if r.LogonTime.Before(s.SessionStartTime) {
			s.SessionStartTime = r.LogonTime
		}
		if r.LastUpdated.After(s.SessionEndTime) {
			s.SessionEndTime = r.LastUpdated
			latest = r
		}

		if alt := intOrZero(r.Altitude); alt != 0 {
			if alt > s.MaxAltitude {
				s.MaxAltitude = alt
			}
			if s.MinAltitude == 0 || alt < s.MinAltitude {
				s.MinAltitude = alt
			}
		}
		if speed := intOrZero(r.Groundspeed); speed > s.MaxSpeed {
			s.MaxSpeed = speed
		}
		if r.Transponder != "" {
			freqSeen[r.Transponder] = struct{}{}
		}
	}

	s.DurationMinutes = s.SessionEndTime.Sub(s.SessionStartTime).Minutes()
	s.FlightPlan = mostRecentFlightPlan(rows, latest)
	s.Name = mostRecentName(rows)

	s.DistinctFrequencies = make([]string, 0, len(freqSeen))
	for f := range freqSeen {
		s.DistinctFrequencies = append(s.DistinctFrequencies, f)
	}
	sort.Strings(s.DistinctFrequencies)

	return s
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// mostRecentFlightPlan prefers the flight plan attached to the latest row
// that actually carries one, since a late reconnect can arrive with an
// empty plan while an earlier row had the real one filed.
func mostRecentFlightPlan(rows []domain.Flight, latest domain.Flight) domain.FlightPlan {
	if latest.Departure != "" || latest.Arrival != "" || latest.AircraftShort != "" {
		return latest.FlightPlan
	}
	for i := len(rows) - 1; i >= 0; i-- {
		fp := rows[i].FlightPlan
		if fp.Departure != "" || fp.Arrival != "" || fp.AircraftShort != "" {
			return fp
		}
	}
	return domain.FlightPlan{}
}

func mostRecentName(rows []domain.Flight) string {
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Name != "" {
			return rows[i].Name
		}
	}
	return ""
}
