package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/infinite-experiment/vatwatch/internal/domain"
	"github.com/infinite-experiment/vatwatch/internal/sectorcache"
	"github.com/infinite-experiment/vatwatch/internal/session"
)

// Mock FlightReader
type mockFlightReader struct {
	listActiveFunc    func(ctx context.Context) ([]domain.Flight, error)
	getByCallsignFunc func(ctx context.Context, callsign string) (*domain.Flight, error)
}

func (m *mockFlightReader) ListActive(ctx context.Context) ([]domain.Flight, error) {
	return m.listActiveFunc(ctx)
}

func (m *mockFlightReader) GetByCallsign(ctx context.Context, callsign string) (*domain.Flight, error) {
	return m.getByCallsignFunc(ctx, callsign)
}

// Mock ControllerReader
type mockControllerReader struct {
	listActiveFunc func(ctx context.Context) ([]domain.Controller, error)
}

func (m *mockControllerReader) ListActive(ctx context.Context) ([]domain.Controller, error) {
	return m.listActiveFunc(ctx)
}

// Mock SectorView
type mockSectorView struct {
	allFunc func() []sectorcache.Occupant
}

func (m *mockSectorView) All() []sectorcache.Occupant {
	return m.allFunc()
}

func TestGetFlightByCallsignHandler_Found(t *testing.T) {
	mockFlights := &mockFlightReader{
		getByCallsignFunc: func(ctx context.Context, callsign string) (*domain.Flight, error) {
			return &domain.Flight{Callsign: callsign, CID: 123}, nil
		},
	}
	h := &Handlers{flights: mockFlights}

	r := chi.NewRouter()
	r.Get("/api/flights/{callsign}", h.GetFlightByCallsign)

	req := httptest.NewRequest(http.MethodGet, "/api/flights/UAL123", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var envelope Envelope[domain.Flight]
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if envelope.Data.Callsign != "UAL123" {
		t.Errorf("expected callsign UAL123, got %s", envelope.Data.Callsign)
	}
}

func TestGetFlightByCallsignHandler_NotFound(t *testing.T) {
	mockFlights := &mockFlightReader{
		getByCallsignFunc: func(ctx context.Context, callsign string) (*domain.Flight, error) {
			return nil, nil
		},
	}
	h := &Handlers{flights: mockFlights}

	r := chi.NewRouter()
	r.Get("/api/flights/{callsign}", h.GetFlightByCallsign)

	req := httptest.NewRequest(http.MethodGet, "/api/flights/GHOST1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetStatusHandler(t *testing.T) {
	h := &Handlers{
		flights: &mockFlightReader{
			listActiveFunc: func(ctx context.Context) ([]domain.Flight, error) {
				return []domain.Flight{{Callsign: "DAL1"}, {Callsign: "DAL2"}}, nil
			},
		},
		controllers: &mockControllerReader{
			listActiveFunc: func(ctx context.Context) ([]domain.Controller, error) {
				return []domain.Controller{{Callsign: "ZNY_CTR"}}, nil
			},
		},
		sectorView: &mockSectorView{
			allFunc: func() []sectorcache.Occupant {
				return []sectorcache.Occupant{{Callsign: "DAL1", Sector: "ZNY_CTR", AsOf: time.Now().UTC()}}
			},
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	h.GetStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var envelope Envelope[statusResponse]
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if envelope.Data.ActiveFlights != 2 {
		t.Errorf("expected 2 active flights, got %d", envelope.Data.ActiveFlights)
	}
	if envelope.Data.ActiveControllers != 1 {
		t.Errorf("expected 1 active controller, got %d", envelope.Data.ActiveControllers)
	}
	if len(envelope.Data.OccupiedSectors) != 1 {
		t.Errorf("expected 1 occupied sector, got %d", len(envelope.Data.OccupiedSectors))
	}
}

func TestListFlightsHandler_Error(t *testing.T) {
	h := &Handlers{
		flights: &mockFlightReader{
			listActiveFunc: func(ctx context.Context) ([]domain.Flight, error) {
				return nil, context.DeadlineExceeded
			},
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/flights", nil)
	rec := httptest.NewRecorder()
	h.ListFlights(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestListFlightSummariesHandler_DefaultLimit(t *testing.T) {
	var gotLimit int
	h := &Handlers{
		summaries: mockSummaryReaderFunc(func(ctx context.Context, limit int) ([]domain.FlightSummary, error) {
			gotLimit = limit
			return nil, nil
		}),
	}

	req := httptest.NewRequest(http.MethodGet, "/api/flights/summaries", nil)
	rec := httptest.NewRecorder()
	h.ListFlightSummaries(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotLimit != 50 {
		t.Errorf("expected default limit 50, got %d", gotLimit)
	}
}

func TestListFlightSummariesHandler_CustomLimit(t *testing.T) {
	var gotLimit int
	h := &Handlers{
		summaries: mockSummaryReaderFunc(func(ctx context.Context, limit int) ([]domain.FlightSummary, error) {
			gotLimit = limit
			return nil, nil
		}),
	}

	req := httptest.NewRequest(http.MethodGet, "/api/flights/summaries?limit=10", nil)
	rec := httptest.NewRecorder()
	h.ListFlightSummaries(rec, req)

	if gotLimit != 10 {
		t.Errorf("expected limit 10, got %d", gotLimit)
	}
}

type mockSummaryReaderFunc func(ctx context.Context, limit int) ([]domain.FlightSummary, error)

func (f mockSummaryReaderFunc) ListFlightSummaries(ctx context.Context, limit int) ([]domain.FlightSummary, error) {
	return f(ctx, limit)
}

type mockCompletionRunner struct {
	runFlightsFunc func(ctx context.Context, now time.Time, completionMinutes time.Duration) (session.Result, error)
}

func (m *mockCompletionRunner) RunFlights(ctx context.Context, now time.Time, completionMinutes time.Duration) (session.Result, error) {
	return m.runFlightsFunc(ctx, now, completionMinutes)
}

func TestProcessSummariesHandler(t *testing.T) {
	h := &Handlers{
		detector: &mockCompletionRunner{
			runFlightsFunc: func(ctx context.Context, now time.Time, completionMinutes time.Duration) (session.Result, error) {
				return session.Result{SummariesCreated: 3, RecordsArchived: 7}, nil
			},
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/flights/summaries/process", nil)
	rec := httptest.NewRecorder()
	h.ProcessSummaries(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var envelope Envelope[session.Result]
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if envelope.Data.SummariesCreated != 3 {
		t.Errorf("expected 3 summaries created, got %d", envelope.Data.SummariesCreated)
	}
}
