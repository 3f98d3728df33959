package summary

import (
	"encoding/json"

	"github.com/infinite-experiment/vatwatch/internal/domain"
)

// PrepareFlightForPersist marshals FlightSummary's structured fields into
// their JSON-column twins so repositories.InsertFlightSummary can bind them
// as plain strings.
func PrepareFlightForPersist(s domain.FlightSummary) (domain.FlightSummary, error) {
	freq, err := json.Marshal(s.DistinctFrequencies)
	if err != nil {
		return s, err
	}
	s.DistinctFrequenciesJSON = string(freq)
	return s, nil
}

// PrepareForPersist marshals ControllerSummary's structured fields into
// their JSON-column twins so repositories.InsertControllerSummary can bind
// them as plain strings.
func PrepareForPersist(s domain.ControllerSummary) (domain.ControllerSummary, error) {
	freq, err := json.Marshal(s.FrequenciesUsed)
	if err != nil {
		return s, err
	}
	hourly, err := json.Marshal(s.HourlyAircraftBreakdown)
	if err != nil {
		return s, err
	}
	details, err := json.Marshal(s.AircraftDetails)
	if err != nil {
		return s, err
	}

	s.FrequenciesUsedJSON = string(freq)
	s.HourlyAircraftBreakdownJSON = string(hourly)
	s.AircraftDetailsJSON = string(details)
	return s, nil
}
