package summary

import (
	"sort"
	"time"

	"github.com/infinite-experiment/vatwatch/internal/domain"
)

const metersToFeet = 3.28084

// altitudeBandForFacility approximates the controller's nominal service
// volume by VATSIM facility code, since the feed does not publish an
// explicit altitude range per position. Facility codes follow the VATSIM
// data feed convention: 3=ground, 4=tower, 5=approach/departure, 6=center.
func altitudeBandForFacility(facility int) (minFt, maxFt int) {
	switch facility {
	case 3, 4:
		return 0, 5000
	case 5:
		return 0, 18000
	case 6:
		return 0, 60000
	default:
		return 0, 60000
	}
}

// SummarizeController derives aircraft interactions for a controller's
// session by comparing the controller's own transceiver positions against
// every pilot transceiver sample in the same window (§4.7). Both transceiver
// slices are expected to already be filtered to the session's merged time
// window. rows is every raw controller row in the merged session (the
// original triad plus any reconnection-window rows); the most recent row
// supplies the facility (and so the altitude band), but session_start_time and
// frequencies_used are aggregated across all of them.
func SummarizeController(rows []domain.Controller, sessionEnd time.Time, controllerXcvrs, pilotXcvrs []domain.Transceiver, radiusNM float64) domain.ControllerSummary {
	ctrl := rows[len(rows)-1]
	minFt, maxFt := altitudeBandForFacility(ctrl.Facility)

	sessionStart := rows[0].LogonTime
	freqSeen := map[string]struct{}{}
	for _, r := range rows {
		if r.LogonTime.Before(sessionStart) {
			sessionStart = r.LogonTime
		}
		if r.Frequency != "" {
			freqSeen[r.Frequency] = struct{}{}
		}
	}
	frequencies := make([]string, 0, len(freqSeen))
	for f := range freqSeen {
		frequencies = append(frequencies, f)
	}
	sort.Strings(frequencies)

	sort.Slice(controllerXcvrs, func(i, j int) bool { return controllerXcvrs[i].Timestamp.Before(controllerXcvrs[j].Timestamp) })

	byCallsign := map[string][]domain.Transceiver{}
	for _, t := range pilotXcvrs {
		byCallsign[t.Callsign] = append(byCallsign[t.Callsign], t)
	}

	interactions := map[string]*domain.AircraftInteraction{}
	minuteBuckets := map[int64]map[string]struct{}{}
	hourBuckets := map[string]map[string]struct{}{}

	for callsign, samples := range byCallsign {
		for _, s := range samples {
			ctrlPos, ok := nearestInTime(controllerXcvrs, s.Timestamp)
			if !ok {
				continue
			}
			dist := greatCircleNM(ctrlPos.LatDeg, ctrlPos.LonDeg, s.LatDeg, s.LonDeg)
			altFt := int(s.HeightMslM * metersToFeet)
			if dist > radiusNM || altFt < minFt || altFt > maxFt {
				continue
			}

			interaction, exists := interactions[callsign]
			if !exists {
				interaction = &domain.AircraftInteraction{Callsign: callsign, FirstSeen: s.Timestamp, LastSeen: s.Timestamp}
				interactions[callsign] = interaction
			}
			if s.Timestamp.Before(interaction.FirstSeen) {
				interaction.FirstSeen = s.Timestamp
			}
			if s.Timestamp.After(interaction.LastSeen) {
				interaction.LastSeen = s.Timestamp
			}

			minuteKey := s.Timestamp.Unix() / 60
			if minuteBuckets[minuteKey] == nil {
				minuteBuckets[minuteKey] = map[string]struct{}{}
			}
			minuteBuckets[minuteKey][callsign] = struct{}{}

			hourKey := s.Timestamp.Truncate(time.Hour).Format(time.RFC3339)
			if hourBuckets[hourKey] == nil {
				hourBuckets[hourKey] = map[string]struct{}{}
			}
			hourBuckets[hourKey][callsign] = struct{}{}
		}
	}

	details := make([]domain.AircraftInteraction, 0, len(interactions))
	for _, interaction := range interactions {
		interaction.TimeOnFrequencyMinutes = interaction.LastSeen.Sub(interaction.FirstSeen).Minutes()
		details = append(details, *interaction)
	}
	sort.Slice(details, func(i, j int) bool { return details[i].Callsign < details[j].Callsign })

	peak := 0
	for _, set := range minuteBuckets {
		if len(set) > peak {
			peak = len(set)
		}
	}

	hourly := make(map[string]int, len(hourBuckets))
	for hour, set := range hourBuckets {
		hourly[hour] = len(set)
	}

	return domain.ControllerSummary{
		Callsign:                ctrl.Callsign,
		CID:                     ctrl.CID,
		SessionStartTime:        sessionStart,
		SessionEndTime:          sessionEnd,
		SessionDurationMinutes:  sessionEnd.Sub(sessionStart).Minutes(),
		FrequenciesUsed:         frequencies,
		TotalAircraftHandled:    len(interactions),
		PeakAircraftCount:       peak,
		HourlyAircraftBreakdown: hourly,
		AircraftDetails:         details,
	}
}

// nearestInTime returns the controller transceiver sample closest in time
// to t, tolerating gaps since the controller does not transmit every tick.
func nearestInTime(samples []domain.Transceiver, t time.Time) (domain.Transceiver, bool) {
	if len(samples) == 0 {
		return domain.Transceiver{}, false
	}
	best := samples[0]
	bestDelta := absDuration(best.Timestamp.Sub(t))
	for _, s := range samples[1:] {
		d := absDuration(s.Timestamp.Sub(t))
		if d < bestDelta {
			best, bestDelta = s, d
		}
	}
	return best, true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
