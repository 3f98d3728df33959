// Package filter implements the two-stage admission chain (C2): geographic
// boundary testing, then callsign-pattern exclusion. Both stages are pure
// functions over a domain.Snapshot with side-effect-free counters exposed
// through metrics.Registry, mirroring how the retired filter stages in the
// teacher's sync pipeline counted processed/admitted/rejected per rule.
package filter

import (
	"strings"

	"github.com/infinite-experiment/vatwatch/internal/domain"
	"github.com/infinite-experiment/vatwatch/internal/metrics"
)

// Polygon is a closed ring of lat/lon vertices used by the geographic
// boundary test. The last vertex is implicitly connected back to the first.
type Polygon []domain.LatLon

// Chain runs the geographic and callsign-pattern filters in the ordering
// contract §4.4 requires: geography first, pattern exclusion second.
type Chain struct {
	polygons        []Polygon
	excludePatterns []string
	caseSensitive   bool
	metrics         *metrics.Registry
}

// New builds a Chain. An empty polygons slice means geographic filtering is
// disabled (every position-bearing pilot is admitted).
func New(polygons []Polygon, excludePatterns []string, caseSensitive bool, reg *metrics.Registry) *Chain {
	return &Chain{
		polygons:        polygons,
		excludePatterns: excludePatterns,
		caseSensitive:   caseSensitive,
		metrics:         reg,
	}
}

// Apply runs the full chain over one snapshot and returns the admitted
// subset. Controllers are never dropped by F1 (§4.4); F2 applies to both
// pilots and controllers.
func (c *Chain) Apply(snap *domain.Snapshot) *domain.Snapshot {
	pilots := c.geographic(snap.Pilots)
	pilots = c.callsignPilots(pilots)
	controllers := c.callsignControllers(snap.Controllers)

	return &domain.Snapshot{
		Pilots:       pilots,
		Controllers:  controllers,
		Transceivers: snap.Transceivers,
		ServerTime:   snap.ServerTime,
	}
}

func (c *Chain) geographic(pilots []domain.PilotSample) []domain.PilotSample {
	if len(c.polygons) == 0 {
		c.observe("geographic", "pilot", len(pilots), len(pilots))
		return pilots
	}

	out := make([]domain.PilotSample, 0, len(pilots))
	for _, p := range pilots {
		if p.Latitude == nil || p.Longitude == nil {
			// Conservative admit: a flight plan may exist before the first
			// position sample arrives.
			out = append(out, p)
			continue
		}
		if c.insideAny(*p.Latitude, *p.Longitude) {
			out = append(out, p)
		} else {
			c.rejected("geographic", "pilot")
		}
	}
	c.observe("geographic", "pilot", len(pilots), len(out))
	return out
}

func (c *Chain) insideAny(lat, lon float64) bool {
	for _, poly := range c.polygons {
		if domain.PointInPolygon(lat, lon, []domain.LatLon(poly)) {
			return true
		}
	}
	return false
}

func (c *Chain) callsignPilots(pilots []domain.PilotSample) []domain.PilotSample {
	out := make([]domain.PilotSample, 0, len(pilots))
	for _, p := range pilots {
		if c.excluded(p.Callsign) {
			c.rejected("callsign_pattern", "pilot")
			continue
		}
		out = append(out, p)
	}
	c.observe("callsign_pattern", "pilot", len(pilots), len(out))
	return out
}

func (c *Chain) callsignControllers(controllers []domain.ControllerSample) []domain.ControllerSample {
	out := make([]domain.ControllerSample, 0, len(controllers))
	for _, ctrl := range controllers {
		if c.excluded(ctrl.Callsign) {
			c.rejected("callsign_pattern", "atc")
			continue
		}
		out = append(out, ctrl)
	}
	c.observe("callsign_pattern", "atc", len(controllers), len(out))
	return out
}

func (c *Chain) excluded(callsign string) bool {
	for _, pattern := range c.excludePatterns {
		candidate, needle := callsign, pattern
		if !c.caseSensitive {
			candidate = strings.ToUpper(candidate)
			needle = strings.ToUpper(needle)
		}
		if strings.Contains(candidate, needle) {
			return true
		}
	}
	return false
}

func (c *Chain) observe(rule, entityType string, processed, admitted int) {
	if c.metrics == nil {
		return
	}
	c.metrics.FilterProcessedTotal.WithLabelValues(rule, entityType).Add(float64(processed))
	c.metrics.FilterAdmittedTotal.WithLabelValues(rule, entityType).Add(float64(admitted))
}

func (c *Chain) rejected(rule, entityType string) {
	if c.metrics == nil {
		return
	}
	c.metrics.FilterRejectedTotal.WithLabelValues(rule, entityType).Inc()
}
