package filter

import (
	"testing"

	"github.com/infinite-experiment/vatwatch/internal/domain"
)

func square() Polygon {
	return Polygon{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 10},
		{Lat: 10, Lon: 10},
		{Lat: 10, Lon: 0},
	}
}

func TestChain_GeographicFilter_AdmitsInsidePolygon(t *testing.T) {
	lat, lon := 5.0, 5.0
	snap := &domain.Snapshot{Pilots: []domain.PilotSample{{Callsign: "QFA1", Latitude: &lat, Longitude: &lon}}}

	c := New([]Polygon{square()}, nil, true, nil)
	out := c.Apply(snap)

	if len(out.Pilots) != 1 {
		t.Fatalf("expected pilot inside polygon to be admitted, got %d pilots", len(out.Pilots))
	}
}

func TestChain_GeographicFilter_RejectsOutsidePolygon(t *testing.T) {
	lat, lon := 50.0, 50.0
	snap := &domain.Snapshot{Pilots: []domain.PilotSample{{Callsign: "QFA1", Latitude: &lat, Longitude: &lon}}}

	c := New([]Polygon{square()}, nil, true, nil)
	out := c.Apply(snap)

	if len(out.Pilots) != 0 {
		t.Fatalf("expected pilot outside polygon to be rejected, got %d pilots", len(out.Pilots))
	}
}

func TestChain_GeographicFilter_ConservativeAdmitOnNilPosition(t *testing.T) {
	snap := &domain.Snapshot{Pilots: []domain.PilotSample{{Callsign: "QFA1"}}}

	c := New([]Polygon{square()}, nil, true, nil)
	out := c.Apply(snap)

	if len(out.Pilots) != 1 {
		t.Fatalf("expected pilot with nil position to be conservatively admitted, got %d pilots", len(out.Pilots))
	}
}

func TestChain_CallsignExclusion_DefaultATIS(t *testing.T) {
	snap := &domain.Snapshot{
		Pilots: []domain.PilotSample{{Callsign: "QFA1"}},
		Controllers: []domain.ControllerSample{
			{Callsign: "SYD_ATIS"},
			{Callsign: "SYD_TWR"},
		},
	}

	c := New(nil, []string{"ATIS"}, true, nil)
	out := c.Apply(snap)

	if len(out.Controllers) != 1 || out.Controllers[0].Callsign != "SYD_TWR" {
		t.Fatalf("expected SYD_ATIS excluded and SYD_TWR retained, got %+v", out.Controllers)
	}
}

func TestChain_CallsignExclusion_CaseInsensitive(t *testing.T) {
	snap := &domain.Snapshot{Controllers: []domain.ControllerSample{{Callsign: "syd_atis"}}}

	c := New(nil, []string{"ATIS"}, false, nil)
	out := c.Apply(snap)

	if len(out.Controllers) != 0 {
		t.Fatalf("expected case-insensitive match to exclude syd_atis, got %+v", out.Controllers)
	}
}

func TestChain_Ordering_GeographicBeforeCallsign(t *testing.T) {
	lat, lon := 50.0, 50.0
	snap := &domain.Snapshot{Pilots: []domain.PilotSample{{Callsign: "ATIS1", Latitude: &lat, Longitude: &lon}}}

	c := New([]Polygon{square()}, []string{"ATIS"}, true, nil)
	out := c.Apply(snap)

	if len(out.Pilots) != 0 {
		t.Fatalf("expected pilot rejected by geography regardless of callsign, got %+v", out.Pilots)
	}
}
