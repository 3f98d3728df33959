package upstream

// rawSnapshot mirrors the top-level shape of the VATSIM v3 data feed. Only
// the fields the pipeline consumes are declared; everything else decodes
// into the zero value and is ignored, same tolerance the teacher's
// dtos.UserFlightsRawResponse applies to upstream payloads it doesn't fully
// model.
type rawSnapshot struct {
	General struct {
		UpdateTimestamp string `json:"update_timestamp"`
	} `json:"general"`
	Pilots      []rawPilot      `json:"pilots"`
	Controllers []rawController `json:"controllers"`
}

type rawFlightPlan struct {
	FlightRules   string `json:"flight_rules"`
	AircraftShort string `json:"aircraft_short"`
	AircraftFAA   string `json:"aircraft_faa"`
	Aircraft      string `json:"aircraft"`
	Departure     string `json:"departure"`
	Arrival       string `json:"arrival"`
	Route         string `json:"route"`
	Altitude      string `json:"altitude"`
	DepTime       string `json:"deptime"`
	EnrouteTime   string `json:"enroute_time"`
	FuelTime      string `json:"fuel_time"`
	Remarks       string `json:"remarks"`
}

// rawPilot fields are declared loosely (interface{} for numeric fields that
// the upstream feed has been observed to occasionally emit as strings) and
// coerced during normalization, per §4.1's tolerant-parsing rule.
type rawPilot struct {
	Callsign    string         `json:"callsign"`
	CID         interface{}    `json:"cid"`
	Name        string         `json:"name"`
	LogonTime   string         `json:"logon_time"`
	LastUpdated string         `json:"last_updated"`
	Latitude    *float64       `json:"latitude"`
	Longitude   *float64       `json:"longitude"`
	Altitude    *int           `json:"altitude"`
	Groundspeed *int           `json:"groundspeed"`
	Heading     *int           `json:"heading"`
	Transponder string         `json:"transponder"`
	FlightPlan  *rawFlightPlan `json:"flight_plan"`
}

type rawController struct {
	Callsign    string      `json:"callsign"`
	CID         interface{} `json:"cid"`
	Name        string      `json:"name"`
	LogonTime   string      `json:"logon_time"`
	LastUpdated string      `json:"last_updated"`
	Facility    int         `json:"facility"`
	Rating      interface{} `json:"rating"`
	Frequency   string      `json:"frequency"`
	VisualRange int         `json:"visual_range"`
	TextATIS    []string    `json:"text_atis"`
}

// rawTransceiver is one entry in the separate transceivers feed: a callsign
// with a nested list of radios.
type rawTransceiver struct {
	Callsign     string `json:"callsign"`
	Transceivers []struct {
		ID         int     `json:"id"`
		Frequency  int64   `json:"frequency"`
		LatDeg     float64 `json:"latDeg"`
		LonDeg     float64 `json:"lonDeg"`
		HeightMslM float64 `json:"heightMslM"`
		HeightAglM float64 `json:"heightAglM"`
	} `json:"transceivers"`
}
