package upstream

import (
	"strconv"
	"strings"
	"time"

	"github.com/infinite-experiment/vatwatch/internal/domain"
	"github.com/infinite-experiment/vatwatch/internal/errs"
)

// normalize applies §4.1's field mapping: coerce cid/rating to int, parse
// ISO-8601 timestamps to UTC, flatten the nested flight_plan object into
// PilotSample, and tag each transceiver with an EntityType: EntityATC when
// its callsign is in the controller list, EntityPilot otherwise.
func normalize(raw rawSnapshot, rawXcvrs []rawTransceiver) (*domain.Snapshot, error) {
	serverTime, err := parseTimestamp(raw.General.UpdateTimestamp)
	if err != nil {
		serverTime = time.Now().UTC()
	}

	pilots := make([]domain.PilotSample, 0, len(raw.Pilots))
	pilotCallsigns := make(map[string]struct{}, len(raw.Pilots))
	for _, p := range raw.Pilots {
		sample, ok := normalizePilot(p)
		if !ok {
			continue
		}
		pilots = append(pilots, sample)
		pilotCallsigns[sample.Callsign] = struct{}{}
	}

	controllers := make([]domain.ControllerSample, 0, len(raw.Controllers))
	controllerCallsigns := make(map[string]struct{}, len(raw.Controllers))
	for _, c := range raw.Controllers {
		sample, ok := normalizeController(c)
		if !ok {
			continue
		}
		controllers = append(controllers, sample)
		controllerCallsigns[sample.Callsign] = struct{}{}
	}

	transceivers := make([]domain.TransceiverSample, 0, len(rawXcvrs))
	for _, entry := range rawXcvrs {
		entityType := domain.EntityPilot
		if _, isController := controllerCallsigns[entry.Callsign]; isController {
			entityType = domain.EntityATC
		}
		for _, t := range entry.Transceivers {
			transceivers = append(transceivers, domain.TransceiverSample{
				Callsign:      entry.Callsign,
				TransceiverID: t.ID,
				Frequency:     t.Frequency,
				LatDeg:        t.LatDeg,
				LonDeg:        t.LonDeg,
				HeightMslM:    t.HeightMslM,
				HeightAglM:    t.HeightAglM,
				Timestamp:     serverTime,
				EntityType:    entityType,
			})
		}
	}

	if len(pilots) == 0 && len(controllers) == 0 {
		return nil, errs.New(errs.KindUpstreamMalformed, "snapshot contained no pilots and no controllers")
	}

	return &domain.Snapshot{
		Pilots:       pilots,
		Controllers:  controllers,
		Transceivers: transceivers,
		ServerTime:   serverTime,
	}, nil
}

func normalizePilot(p rawPilot) (domain.PilotSample, bool) {
	if p.Callsign == "" {
		return domain.PilotSample{}, false
	}
	cid, ok := coerceInt(p.CID)
	if !ok {
		return domain.PilotSample{}, false
	}

	logonTime, err := parseTimestamp(p.LogonTime)
	if err != nil {
		return domain.PilotSample{}, false
	}
	lastUpdated, err := parseTimestamp(p.LastUpdated)
	if err != nil {
		lastUpdated = logonTime
	}

	sample := domain.PilotSample{
		Callsign:     p.Callsign,
		CID:          cid,
		LogonTime:    logonTime,
		Name:         p.Name,
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		Altitude:     p.Altitude,
		Groundspeed:  p.Groundspeed,
		Heading:      p.Heading,
		Transponder:  p.Transponder,
		ReportedTime: lastUpdated,
	}
	if p.FlightPlan != nil {
		sample.FlightPlan = domain.FlightPlan{
			FlightRules:     p.FlightPlan.FlightRules,
			Departure:       p.FlightPlan.Departure,
			Arrival:         p.FlightPlan.Arrival,
			AircraftType:    p.FlightPlan.Aircraft,
			AircraftFAA:     p.FlightPlan.AircraftFAA,
			AircraftShort:   p.FlightPlan.AircraftShort,
			Route:           p.FlightPlan.Route,
			PlannedAltitude: p.FlightPlan.Altitude,
			DepartureTime:   p.FlightPlan.DepTime,
			EnrouteTime:     p.FlightPlan.EnrouteTime,
			FuelTime:        p.FlightPlan.FuelTime,
			Remarks:         p.FlightPlan.Remarks,
		}
	}
	return sample, true
}

func normalizeController(c rawController) (domain.ControllerSample, bool) {
	if c.Callsign == "" {
		return domain.ControllerSample{}, false
	}
	cid, ok := coerceInt(c.CID)
	if !ok {
		return domain.ControllerSample{}, false
	}
	rating, _ := coerceInt(c.Rating)

	logonTime, err := parseTimestamp(c.LogonTime)
	if err != nil {
		return domain.ControllerSample{}, false
	}
	lastUpdated, err := parseTimestamp(c.LastUpdated)
	if err != nil {
		lastUpdated = logonTime
	}

	return domain.ControllerSample{
		Callsign:     c.Callsign,
		CID:          cid,
		LogonTime:    logonTime,
		Name:         c.Name,
		Facility:     c.Facility,
		Rating:       rating,
		Frequency:    c.Frequency,
		VisualRange:  c.VisualRange,
		TextATIS:     strings.Join(c.TextATIS, " "),
		ReportedTime: lastUpdated,
	}, true
}

// coerceInt accepts the upstream feed's cid/rating fields whether they
// arrive as a JSON number or, occasionally, as a numeric string.
func coerceInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errs.New(errs.KindUpstreamMalformed, "empty timestamp")
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02T15:04:05.999999Z", s)
		if err != nil {
			return time.Time{}, errs.Wrap(errs.KindUpstreamMalformed, "unparseable timestamp "+s, err)
		}
	}
	return t.UTC(), nil
}
