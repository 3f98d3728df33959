// Package routes wires the chi router: global middleware, health checks,
// and the dashboard API group, following the teacher's RegisterRoutes /
// RegisterAPIRoutes split.
package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/infinite-experiment/vatwatch/internal/api"
	"github.com/infinite-experiment/vatwatch/internal/logging"
	"github.com/infinite-experiment/vatwatch/internal/metrics"
	"github.com/infinite-experiment/vatwatch/internal/middleware"
	"github.com/jmoiron/sqlx"
)

// RegisterRoutes builds the full router: CORS, request-id/metrics
// middleware, health check, and the dashboard API group.
func RegisterRoutes(db *sqlx.DB, metricsReg *metrics.Registry, handlers *api.Handlers, upSince time.Time) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware(metricsReg))
	r.Use(middleware.RateLimitMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	logging.Info("router initialized with metrics and logging middleware")

	r.Get("/healthCheck", api.HealthCheckHandler(db, upSince))

	RegisterAPIRoutes(r, handlers)

	return r
}

// RegisterAPIRoutes mounts the dashboard REST surface under /api.
func RegisterAPIRoutes(r chi.Router, h *api.Handlers) {
	r.Route("/api", func(apiRouter chi.Router) {
		apiRouter.Get("/status", h.GetStatus)
		apiRouter.Get("/flights", h.ListFlights)
		apiRouter.Get("/flights/summaries", h.ListFlightSummaries)
		apiRouter.Post("/flights/summaries/process", h.ProcessSummaries)
		apiRouter.Get("/flights/{callsign}", h.GetFlightByCallsign)
		apiRouter.Get("/controllers", h.ListControllers)
	})
}
