package summary

import (
	"testing"
	"time"

	"github.com/infinite-experiment/vatwatch/internal/domain"
)

func TestSummarizeController_AggregatesSessionStartAndFrequenciesAcrossReconnectRows(t *testing.T) {
	firstLogon := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	reconnectLogon := firstLogon.Add(90 * time.Minute)
	sessionEnd := reconnectLogon.Add(45 * time.Minute)

	// Simulates a reconnection merge: two raw controller rows for the same
	// identity, the second carrying a different frequency after the
	// controller relogged onto a different position.
	rows := []domain.Controller{
		{Callsign: "SYD_TWR", CID: 900001, Facility: 4, LogonTime: firstLogon, Frequency: "120.500"},
		{Callsign: "SYD_TWR", CID: 900001, Facility: 4, LogonTime: reconnectLogon, Frequency: "118.700"},
	}

	s := SummarizeController(rows, sessionEnd, nil, nil, 5)

	if s.SessionStartTime != firstLogon {
		t.Errorf("expected session_start_time to be the earliest row's logon_time %v, got %v", firstLogon, s.SessionStartTime)
	}
	wantDuration := sessionEnd.Sub(firstLogon).Minutes()
	if s.SessionDurationMinutes != wantDuration {
		t.Errorf("expected session_duration_minutes %v measured from the earliest row, got %v", wantDuration, s.SessionDurationMinutes)
	}
	if len(s.FrequenciesUsed) != 2 || s.FrequenciesUsed[0] != "118.700" || s.FrequenciesUsed[1] != "120.500" {
		t.Errorf("expected both distinct frequencies sorted, got %v", s.FrequenciesUsed)
	}
}

func TestSummarizeController_SingleRowUsesItsOwnLogonTime(t *testing.T) {
	logon := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	sessionEnd := logon.Add(20 * time.Minute)

	rows := []domain.Controller{
		{Callsign: "SYD_GND", CID: 900002, Facility: 3, LogonTime: logon, Frequency: "121.700"},
	}

	s := SummarizeController(rows, sessionEnd, nil, nil, 5)

	if s.SessionStartTime != logon {
		t.Errorf("expected session_start_time %v, got %v", logon, s.SessionStartTime)
	}
	if len(s.FrequenciesUsed) != 1 || s.FrequenciesUsed[0] != "121.700" {
		t.Errorf("expected single frequency 121.700, got %v", s.FrequenciesUsed)
	}
}
