package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/infinite-experiment/vatwatch/internal/domain"
	"github.com/infinite-experiment/vatwatch/internal/sectorcache"
	"github.com/infinite-experiment/vatwatch/internal/session"
)

// FlightReader is the read surface ListFlights, GetStatus and
// GetFlightByCallsign need from the flights table. A narrow interface here,
// rather than the concrete repository, is what lets the handler tests swap
// in a fixed-response double the way the registration handlers do in the
// teacher's test suite.
type FlightReader interface {
	ListActive(ctx context.Context) ([]domain.Flight, error)
	GetByCallsign(ctx context.Context, callsign string) (*domain.Flight, error)
}

// ControllerReader is the read surface ListControllers and GetStatus need.
type ControllerReader interface {
	ListActive(ctx context.Context) ([]domain.Controller, error)
}

// SummaryReader is the read surface ListFlightSummaries needs.
type SummaryReader interface {
	ListFlightSummaries(ctx context.Context, limit int) ([]domain.FlightSummary, error)
}

// SectorView is the read surface GetStatus needs from the sector occupancy
// cache.
type SectorView interface {
	All() []sectorcache.Occupant
}

// CompletionRunner is the surface ProcessSummaries needs to trigger an
// on-demand flight completion pass.
type CompletionRunner interface {
	RunFlights(ctx context.Context, now time.Time, completionMinutes time.Duration) (session.Result, error)
}

// Handlers groups every dependency the dashboard endpoints read from. None
// of them own state; they are thin reads over the repositories and the
// in-memory sector cache populated by the poller.
type Handlers struct {
	flights     FlightReader
	controllers ControllerReader
	summaries   SummaryReader
	sectorView  SectorView
	detector    CompletionRunner
}

// NewHandlers builds a Handlers.
func NewHandlers(
	flights FlightReader,
	controllers ControllerReader,
	summaries SummaryReader,
	sectorView SectorView,
	detector CompletionRunner,
) *Handlers {
	return &Handlers{
		flights:     flights,
		controllers: controllers,
		summaries:   summaries,
		sectorView:  sectorView,
		detector:    detector,
	}
}

type statusResponse struct {
	ActiveFlights     int                       `json:"active_flights"`
	ActiveControllers int                       `json:"active_controllers"`
	OccupiedSectors   []sectorcache.Occupant    `json:"occupied_sectors"`
	ServerTime        time.Time                 `json:"server_time"`
}

// GetStatus serves GET /api/status: a cheap point-in-time summary of the
// live system, reading active counts from the live tables and sector
// occupancy from the in-memory cache rather than recomputing it.
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	flights, err := h.flights.ListActive(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	controllers, err := h.controllers.ListActive(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithSuccess(w, http.StatusOK, statusResponse{
		ActiveFlights:     len(flights),
		ActiveControllers: len(controllers),
		OccupiedSectors:   h.sectorView.All(),
		ServerTime:        time.Now().UTC(),
	})
}

// ListFlights serves GET /api/flights.
func (h *Handlers) ListFlights(w http.ResponseWriter, r *http.Request) {
	flights, err := h.flights.ListActive(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithSuccess(w, http.StatusOK, flights)
}

// ListControllers serves GET /api/controllers.
func (h *Handlers) ListControllers(w http.ResponseWriter, r *http.Request) {
	controllers, err := h.controllers.ListActive(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithSuccess(w, http.StatusOK, controllers)
}

// GetFlightByCallsign serves GET /api/flights/{callsign}.
func (h *Handlers) GetFlightByCallsign(w http.ResponseWriter, r *http.Request) {
	callsign := chi.URLParam(r, "callsign")
	flight, err := h.flights.GetByCallsign(r.Context(), callsign)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if flight == nil {
		respondWithError(w, http.StatusNotFound, "no active flight for callsign")
		return
	}
	respondWithSuccess(w, http.StatusOK, flight)
}

// ListFlightSummaries serves GET /api/flights/summaries?limit=N.
func (h *Handlers) ListFlightSummaries(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	summaries, err := h.summaries.ListFlightSummaries(r.Context(), limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithSuccess(w, http.StatusOK, summaries)
}

// ProcessSummaries serves POST /api/flights/summaries/process: an
// on-demand trigger for the same completion+summarize+archive cycle the
// scheduler runs automatically, for operators who don't want to wait for
// the next tick.
func (h *Handlers) ProcessSummaries(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	result, err := h.detector.RunFlights(r.Context(), now, 0)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithSuccess(w, http.StatusOK, result)
}
