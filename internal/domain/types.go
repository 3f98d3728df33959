// Package domain holds the entities described in the specification's data
// model: ephemeral samples, the latest-wins live tables, the append-only
// transceiver log, sector definitions and occupancy intervals, and the
// summary/archive rows. Field tags follow the teacher's sqlx `db:"..."`
// convention (see the retired internal/models/entities package).
package domain

import "time"

// EntityType distinguishes pilot from ATC records wherever the two share a
// table or a filter stage (transceivers, callsign-pattern exclusion).
type EntityType string

const (
	EntityPilot EntityType = "pilot"
	EntityATC   EntityType = "atc"
)

// FlightPlan is the nested flight-plan payload, flattened per §4.1's
// normalization rule ("expand nested flight-plan fields into the flat
// pilot record"). A pilot sample with no flight_plan object yields a
// zero-value FlightPlan, not a nil pointer — §4.1's tolerance-for-absence
// rule.
type FlightPlan struct {
	FlightRules     string `db:"flight_rules"`
	Departure       string `db:"departure"`
	Arrival         string `db:"arrival"`
	AircraftType    string `db:"aircraft_type"`
	AircraftFAA     string `db:"aircraft_faa"`
	AircraftShort   string `db:"aircraft_short"`
	Route           string `db:"route"`
	PlannedAltitude string `db:"planned_altitude"`
	DepartureTime   string `db:"deptime"`
	EnrouteTime     string `db:"enroute_time"`
	FuelTime        string `db:"fuel_time"`
	Remarks         string `db:"remarks"`
}

// Identity is the logical primary key shared by flights and controllers:
// (callsign, cid, logon_time).
type Identity struct {
	Callsign  string    `db:"callsign"`
	CID       int       `db:"cid"`
	LogonTime time.Time `db:"logon_time"`
}

// Flight is the live, latest-wins flight row.
type Flight struct {
	Callsign  string    `db:"callsign"`
	CID       int       `db:"cid"`
	LogonTime time.Time `db:"logon_time"`

	Name string `db:"name"`

	Latitude     *float64 `db:"latitude"`
	Longitude    *float64 `db:"longitude"`
	Altitude     *int     `db:"altitude"`
	Groundspeed  *int     `db:"groundspeed"`
	Heading      *int     `db:"heading"`
	Transponder  string   `db:"transponder"`

	FlightPlan

	LastUpdated time.Time `db:"last_updated"`
}

// Controller is the live, latest-wins controller row.
type Controller struct {
	Callsign  string    `db:"callsign"`
	CID       int       `db:"cid"`
	LogonTime time.Time `db:"logon_time"`

	Name         string `db:"name"`
	Facility     int    `db:"facility"`
	Rating       int    `db:"rating"`
	Frequency    string `db:"frequency"`
	VisualRange  int    `db:"visual_range"`
	TextATIS     string `db:"text_atis"`

	LastUpdated time.Time `db:"last_updated"`
	LastSeen    time.Time `db:"last_seen"`
	Status      string    `db:"status"` // "online" | "offline"
}

// Transceiver is one append-only sample row. TransceiverID together with
// Callsign identifies it for update-within-batch purposes only (§3); once
// flushed, every sample is a distinct row.
type Transceiver struct {
	ID            int64      `db:"id"`
	Callsign      string     `db:"callsign"`
	TransceiverID int        `db:"transceiver_id"`
	Frequency     int64      `db:"frequency"`
	LatDeg        float64    `db:"lat_deg"`
	LonDeg        float64    `db:"lon_deg"`
	HeightMslM    float64    `db:"height_msl_m"`
	HeightAglM    float64    `db:"height_agl_m"`
	Timestamp     time.Time  `db:"timestamp"`
	EntityType    EntityType `db:"entity_type"`
}

// Sector is a static named polygon loaded once at startup (§3, §4.5).
type Sector struct {
	ID       int64     `db:"id" gorm:"primaryKey"`
	Name     string    `db:"name" gorm:"uniqueIndex"`
	Vertices []LatLon  `db:"-" gorm:"-"` // populated from Boundary at load time
	Boundary string    `db:"boundary" gorm:"column:boundary"` // JSON-encoded []LatLon
	FloorFt  *int      `db:"floor_ft"`
	CeilFt   *int      `db:"ceil_ft"`
}

// LatLon is a polygon vertex or a position sample.
type LatLon struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// PointInPolygon is the standard even-odd ray-casting test shared by the
// geographic admission filter and the sector-occupancy index, so the two
// callers can never drift: the boundary counts as inside per the tie-break
// rule both consumers rely on.
func PointInPolygon(lat, lon float64, verts []LatLon) bool {
	n := len(verts)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		yi, xi := verts[i].Lat, verts[i].Lon
		yj, xj := verts[j].Lat, verts[j].Lon

		if lat == yi && lon == xi {
			return true
		}
		// A horizontal edge is never crossed by the ray; a point lying on
		// one is on the boundary.
		if yi == yj && lat == yi && (lon-xi)*(lon-xj) <= 0 {
			return true
		}

		intersects := (yi > lat) != (yj > lat)
		if intersects {
			xCross := (xj-xi)*(lat-yi)/(yj-yi) + xi
			if lon == xCross {
				return true
			}
			if lon < xCross {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// SectorOccupancy is one continuous presence of a callsign in one sector.
type SectorOccupancy struct {
	ID              int64      `db:"id"`
	Callsign        string     `db:"callsign"`
	SectorName      string     `db:"sector_name"`
	EntryTimestamp  time.Time  `db:"entry_timestamp"`
	EntryLat        float64    `db:"entry_lat"`
	EntryLon        float64    `db:"entry_lon"`
	EntryAltitude   int        `db:"entry_altitude"`
	ExitTimestamp   *time.Time `db:"exit_timestamp"`
	LastLat         float64    `db:"last_lat"`
	LastLon         float64    `db:"last_lon"`
	LastAlt         int        `db:"last_alt"`
	DurationSeconds *int64     `db:"duration_seconds"`
}

// FlightSummary is the single roll-up row for one completed flight session.
type FlightSummary struct {
	Callsign  string    `db:"callsign" gorm:"primaryKey"`
	CID       int       `db:"cid" gorm:"primaryKey"`
	LogonTime time.Time `db:"logon_time" gorm:"primaryKey:session_start_time"`

	SessionStartTime time.Time `db:"session_start_time"`
	SessionEndTime   time.Time `db:"session_end_time"`
	DurationMinutes  float64   `db:"duration_minutes"`

	MaxAltitude int `db:"max_altitude"`
	MinAltitude int `db:"min_altitude"`
	MaxSpeed    int `db:"max_speed"`

	FlightPlan

	DistinctFrequencies     []string `db:"-" gorm:"-"`
	DistinctFrequenciesJSON string   `db:"distinct_frequencies" gorm:"column:distinct_frequencies"`

	Name string `db:"name"`
}

// ControllerSummary is the single roll-up row for one completed controller
// session, keyed by (callsign, cid, session_start_time).
type ControllerSummary struct {
	Callsign         string    `db:"callsign" gorm:"primaryKey"`
	CID              int       `db:"cid" gorm:"primaryKey"`
	SessionStartTime time.Time `db:"session_start_time" gorm:"primaryKey"`
	SessionEndTime   time.Time `db:"session_end_time"`

	SessionDurationMinutes float64  `db:"session_duration_minutes"`
	FrequenciesUsed        []string `db:"-" gorm:"-"`
	FrequenciesUsedJSON    string   `db:"frequencies_used" gorm:"column:frequencies_used"`

	TotalAircraftHandled int `db:"total_aircraft_handled"`
	PeakAircraftCount    int `db:"peak_aircraft_count"`

	HourlyAircraftBreakdown     map[string]int `db:"-" gorm:"-"`
	HourlyAircraftBreakdownJSON string         `db:"hourly_aircraft_breakdown" gorm:"column:hourly_aircraft_breakdown"`

	AircraftDetails     []AircraftInteraction `db:"-" gorm:"-"`
	AircraftDetailsJSON string                `db:"aircraft_details" gorm:"column:aircraft_details"`
}

// AircraftInteraction describes one flight's contact with a controller over
// the controller's session, per §4.7.
type AircraftInteraction struct {
	Callsign                 string    `json:"callsign"`
	FirstSeen                time.Time `json:"first_seen"`
	LastSeen                 time.Time `json:"last_seen"`
	TimeOnFrequencyMinutes   float64   `json:"time_on_frequency_minutes"`
}

// FlightArchive and ControllerArchive are verbatim copies of raw rows that
// composed a now-summarized session.
type FlightArchive Flight
type ControllerArchive Controller
