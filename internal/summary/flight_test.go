package summary

import (
	"testing"
	"time"

	"github.com/infinite-experiment/vatwatch/internal/domain"
)

func TestSummarizeFlight_CleanSession(t *testing.T) {
	logon := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	speed420 := 420
	alt35000 := 35000

	rows := []domain.Flight{
		{Callsign: "QFA1", CID: 1001, LogonTime: logon, LastUpdated: logon.Add(61 * time.Minute), Groundspeed: &speed420, Altitude: &alt35000},
	}

	s := SummarizeFlight(rows)

	if s.SessionStartTime != logon {
		t.Errorf("expected session_start_time %v, got %v", logon, s.SessionStartTime)
	}
	wantEnd := logon.Add(61 * time.Minute)
	if s.SessionEndTime != wantEnd {
		t.Errorf("expected session_end_time %v, got %v", wantEnd, s.SessionEndTime)
	}
	if s.DurationMinutes != 61 {
		t.Errorf("expected duration_minutes 61, got %v", s.DurationMinutes)
	}
	if s.MaxSpeed != 420 {
		t.Errorf("expected max_speed 420, got %d", s.MaxSpeed)
	}
}

func TestSummarizeFlight_MaxAltitudeAcrossRows(t *testing.T) {
	logon := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	alt1 := 10000
	alt2 := 36000

	rows := []domain.Flight{
		{Callsign: "QFA1", CID: 1001, LogonTime: logon, LastUpdated: logon.Add(10 * time.Minute), Altitude: &alt1},
		{Callsign: "QFA1", CID: 1001, LogonTime: logon, LastUpdated: logon.Add(30 * time.Minute), Altitude: &alt2},
	}

	s := SummarizeFlight(rows)
	if s.MaxAltitude != 36000 {
		t.Errorf("expected max_altitude 36000, got %d", s.MaxAltitude)
	}
}

func TestSummarizeFlight_DistinctFrequenciesFromTransponder(t *testing.T) {
	logon := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)

	rows := []domain.Flight{
		{Callsign: "QFA1", CID: 1001, LogonTime: logon, LastUpdated: logon.Add(10 * time.Minute), Transponder: "2200"},
		{Callsign: "QFA1", CID: 1001, LogonTime: logon, LastUpdated: logon.Add(20 * time.Minute), Transponder: "7000"},
		{Callsign: "QFA1", CID: 1001, LogonTime: logon, LastUpdated: logon.Add(30 * time.Minute), Transponder: "2200"},
	}

	s := SummarizeFlight(rows)
	if len(s.DistinctFrequencies) != 2 || s.DistinctFrequencies[0] != "2200" || s.DistinctFrequencies[1] != "7000" {
		t.Errorf("expected distinct transponder codes [2200 7000], got %v", s.DistinctFrequencies)
	}
}
