// Package config loads the environment-variable surface described in the
// specification into a typed struct, failing fast the way the teacher's
// db.InitPostgres fails fast on an unreachable database.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full set of tunables recognized by vatwatch.
type Config struct {
	AppEnv string

	// Upstream
	SnapshotURL     string
	TransceiversURL string
	UpstreamTimeout time.Duration

	// Scheduling cadences
	PollInterval           time.Duration
	WriteInterval          time.Duration
	CleanupInterval        time.Duration
	StaleSectorCleanup     time.Duration
	SummaryInterval        time.Duration
	AuditInterval          time.Duration

	// Session completion
	FlightTimeout             time.Duration
	CompletionMinutesFlight   time.Duration
	CompletionMinutesController time.Duration
	ReconnectionThreshold     time.Duration

	// Sector hysteresis
	SectorEnterKts      int
	SectorExitKts       int
	SectorExitDebounce  int

	// Filters
	ExcludedCallsignPatterns []string
	CallsignCaseSensitive    bool
	GeographicPolygonsPath   string

	// Sector definitions (distinct from the F1 admission boundary above:
	// this is the named-polygon file the sector engine assigns occupancy
	// against, not the filter that admits/rejects pilots)
	SectorDefinitionsPath string

	// Controller interaction derivation
	ControllerInteractionRadiusNM float64

	// Database
	PGHost     string
	PGPort     string
	PGUser     string
	PGPassword string
	PGDatabase string

	// Redis (optional — falls back to in-process cache when unset)
	RedisHost string
}

// Load reads the environment and returns a validated Config, or the
// validation error for the caller to treat as fatal.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:          getEnvDefault("APP_ENV", "development"),
		SnapshotURL:     getEnvDefault("VATSIM_SNAPSHOT_URL", "https://data.vatsim.net/v3/vatsim-data.json"),
		TransceiversURL: getEnvDefault("VATSIM_TRANSCEIVERS_URL", "https://data.vatsim.net/v3/transceivers-data.json"),
		UpstreamTimeout: getEnvDurationSeconds("UPSTREAM_TIMEOUT_SECONDS", 30),

		PollInterval:       getEnvDurationSeconds("POLL_INTERVAL_SECONDS", 30),
		WriteInterval:      getEnvDurationSeconds("WRITE_INTERVAL_SECONDS", 300),
		CleanupInterval:    getEnvDurationSeconds("CLEANUP_INTERVAL_SECONDS", 3600),
		StaleSectorCleanup: getEnvDurationSeconds("STALE_SECTOR_CLEANUP_SECONDS", 300),
		SummaryInterval:    getEnvDurationMinutes("SUMMARY_INTERVAL_MINUTES", 60),
		AuditInterval:      getEnvDurationMinutes("AUDIT_INTERVAL_MINUTES", 0),

		FlightTimeout:               getEnvDurationMinutes("FLIGHT_TIMEOUT_MINUTES", 7),
		CompletionMinutesFlight:     getEnvDurationMinutes("COMPLETION_MINUTES_FLIGHT", 14*60),
		CompletionMinutesController: getEnvDurationMinutes("COMPLETION_MINUTES_CONTROLLER", 60),
		ReconnectionThreshold:       getEnvDurationMinutes("RECONNECTION_THRESHOLD_MINUTES", 5),

		SectorEnterKts:     getEnvInt("SECTOR_ENTER_KTS", 60),
		SectorExitKts:      getEnvInt("SECTOR_EXIT_KTS", 30),
		SectorExitDebounce: getEnvInt("SECTOR_EXIT_DEBOUNCE_TICKS", 1),

		ExcludedCallsignPatterns: splitCSV(getEnvDefault("EXCLUDED_CALLSIGN_PATTERNS", "ATIS")),
		CallsignCaseSensitive:    getEnvBool("CALLSIGN_PATTERN_CASE_SENSITIVE", true),
		GeographicPolygonsPath:   os.Getenv("GEOGRAPHIC_POLYGONS"),
		SectorDefinitionsPath:    os.Getenv("SECTOR_DEFINITIONS_PATH"),

		ControllerInteractionRadiusNM: getEnvFloat("CONTROLLER_INTERACTION_RADIUS_NM", 30),

		PGHost:     os.Getenv("PG_HOST"),
		PGPort:     os.Getenv("PG_PORT"),
		PGUser:     os.Getenv("PG_USER"),
		PGPassword: os.Getenv("PG_PASSWORD"),
		PGDatabase: os.Getenv("PG_DB"),

		RedisHost: os.Getenv("REDIS_HOST"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.PGHost == "" || c.PGDatabase == "" {
		return fmt.Errorf("config invalid: PG_HOST and PG_DB are required")
	}
	if c.SectorExitKts >= c.SectorEnterKts {
		return fmt.Errorf("config invalid: SECTOR_EXIT_KTS (%d) must be less than SECTOR_ENTER_KTS (%d)", c.SectorExitKts, c.SectorEnterKts)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("config invalid: POLL_INTERVAL_SECONDS must be positive")
	}
	return nil
}

// DSN builds the Postgres connection string in the teacher's sqlx/pq format.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDurationSeconds(key string, fallbackSeconds int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(fallbackSeconds) * time.Second
}

func getEnvDurationMinutes(key string, fallbackMinutes int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Minute
		}
	}
	return time.Duration(fallbackMinutes) * time.Minute
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
