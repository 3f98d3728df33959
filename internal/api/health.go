package api

import (
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
)

// serviceStatus is one dependency's health as reported by HealthCheckHandler.
type serviceStatus struct {
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
}

type healthResponse struct {
	Status   string                   `json:"status"`
	Uptime   string                   `json:"uptime"`
	Services map[string]serviceStatus `json:"services"`
}

// HealthCheckHandler reports whether Postgres is reachable and how long the
// process has been running.
func HealthCheckHandler(db *sqlx.DB, upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := make(map[string]serviceStatus)

		pgStatus := "ok"
		pgDetails := "connected"
		if err := db.PingContext(r.Context()); err != nil {
			pgStatus = "down"
			pgDetails = err.Error()
		}
		services["postgres"] = serviceStatus{Status: pgStatus, Details: pgDetails}

		overall := "ok"
		for _, svc := range services {
			if svc.Status != "ok" {
				overall = "down"
				break
			}
		}

		statusCode := http.StatusOK
		if overall != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		respondWithSuccess(w, statusCode, healthResponse{
			Status:   overall,
			Uptime:   time.Since(upSince).Round(time.Second).String(),
			Services: services,
		})
	}
}
