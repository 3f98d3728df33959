package sectors

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/infinite-experiment/vatwatch/internal/domain"
)

type fakeStore struct {
	mu    sync.Mutex
	open  map[string]domain.SectorOccupancy
	opens []domain.SectorOccupancy
	closes int
}

func newFakeStore() *fakeStore {
	return &fakeStore{open: make(map[string]domain.SectorOccupancy)}
}

func (f *fakeStore) OpenInterval(ctx context.Context, occ domain.SectorOccupancy) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open[occ.Callsign] = occ
	f.opens = append(f.opens, occ)
	return nil
}

func (f *fakeStore) CloseOpenIntervals(ctx context.Context, callsign string, exitTime time.Time, lastLat, lastLon float64, lastAlt int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.open[callsign]; !ok {
		return 0, nil
	}
	delete(f.open, callsign)
	f.closes++
	return 1, nil
}

func (f *fakeStore) UpdateLastPosition(ctx context.Context, callsign string, lat, lon float64, alt int) error {
	return nil
}

func square() []domain.LatLon {
	return []domain.LatLon{{Lat: -40, Lon: 140}, {Lat: -40, Lon: 160}, {Lat: -30, Lon: 160}, {Lat: -30, Lon: 140}}
}

func sample(callsign string, lat, lon float64, speed, alt int, t time.Time) domain.PilotSample {
	return domain.PilotSample{
		Callsign:     callsign,
		Latitude:     &lat,
		Longitude:    &lon,
		Groundspeed:  &speed,
		Altitude:     &alt,
		ReportedTime: t,
	}
}

func TestEngine_EntersSectorAboveEnterThreshold(t *testing.T) {
	loader := &Loader{sectors: []domain.Sector{{Name: "SYDNEY", Vertices: square()}}}
	idx := NewIndex(loader)
	store := newFakeStore()
	engine := NewEngine(idx, store, 60, 30, 1, nil)

	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	engine.Update(context.Background(), sample("QFA1", -35, 150, 420, 35000, now))

	if len(store.opens) != 1 {
		t.Fatalf("expected 1 interval opened, got %d", len(store.opens))
	}
	if store.opens[0].SectorName != "SYDNEY" {
		t.Errorf("expected SYDNEY, got %s", store.opens[0].SectorName)
	}
}

func TestEngine_DeadbandRetainsSector(t *testing.T) {
	loader := &Loader{sectors: []domain.Sector{{Name: "SYDNEY", Vertices: square()}}}
	idx := NewIndex(loader)
	store := newFakeStore()
	engine := NewEngine(idx, store, 60, 30, 1, nil)

	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	engine.Update(context.Background(), sample("QFA1", -35, 150, 420, 35000, now))
	engine.Update(context.Background(), sample("QFA1", -35, 150, 40, 35000, now.Add(30*time.Second)))

	if store.closes != 0 {
		t.Fatalf("expected deadband speed to retain sector without closing, got %d closes", store.closes)
	}
}

func TestEngine_NilSpeedRetainsSectorAndResetsCounter(t *testing.T) {
	loader := &Loader{sectors: []domain.Sector{{Name: "SYDNEY", Vertices: square()}}}
	idx := NewIndex(loader)
	store := newFakeStore()
	engine := NewEngine(idx, store, 60, 30, 1, nil)

	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	engine.Update(context.Background(), sample("QFA1", -35, 150, 100, 35000, now))

	nilSpeed := domain.PilotSample{Callsign: "QFA1", ReportedTime: now.Add(30 * time.Second)}
	engine.Update(context.Background(), nilSpeed)

	if store.closes != 0 {
		t.Fatalf("expected nil-speed sample to retain sector without closing, got %d closes", store.closes)
	}
	st := engine.states["QFA1"]
	if st.exitCounter != 0 {
		t.Errorf("expected exit counter reset to 0 on nil-speed sample, got %d", st.exitCounter)
	}
	if st.currentSector == nil || *st.currentSector != "SYDNEY" {
		t.Errorf("expected current sector retained as SYDNEY, got %v", st.currentSector)
	}
}

func TestEngine_HysteresisEnterExitReenter(t *testing.T) {
	loader := &Loader{sectors: []domain.Sector{{Name: "SYDNEY", Vertices: square()}}}
	idx := NewIndex(loader)
	store := newFakeStore()
	engine := NewEngine(idx, store, 60, 30, 1, nil)

	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	engine.Update(context.Background(), sample("QFA1", -35, 150, 100, 35000, now))
	engine.Update(context.Background(), sample("QFA1", -35, 150, 25, 35000, now.Add(30*time.Second)))
	engine.Update(context.Background(), sample("QFA1", -35, 150, 100, 35000, now.Add(60*time.Second)))

	if len(store.opens) != 2 {
		t.Fatalf("expected 2 intervals opened across enter/exit/re-enter, got %d", len(store.opens))
	}
	if store.closes != 1 {
		t.Fatalf("expected 1 close on the low-speed tick, got %d", store.closes)
	}
}

func TestEngine_PurgeAbsentDropsOnlyCallsignsNotInLive(t *testing.T) {
	loader := &Loader{sectors: []domain.Sector{{Name: "SYDNEY", Vertices: square()}}}
	idx := NewIndex(loader)
	store := newFakeStore()
	engine := NewEngine(idx, store, 60, 30, 1, nil)

	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	engine.Update(context.Background(), sample("QFA1", -35, 150, 100, 35000, now))
	engine.Update(context.Background(), sample("QFA2", -35, 150, 100, 35000, now))

	purged := engine.PurgeAbsent(map[string]struct{}{"QFA1": {}})

	if purged != 1 {
		t.Fatalf("expected 1 callsign purged, got %d", purged)
	}
	if _, ok := engine.states["QFA2"]; ok {
		t.Errorf("expected QFA2 state purged")
	}
	if _, ok := engine.states["QFA1"]; !ok {
		t.Errorf("expected QFA1 state retained since it is still live")
	}
}
