package sectors

import "github.com/infinite-experiment/vatwatch/internal/domain"

// Index resolves a (lat, lon, altitude) point to a sector name. Built fresh
// from the Loader's current sector set on every lookup; the sector count in
// a realistic deployment is small enough that this is cheaper than keeping
// a second cached copy in sync with reloads.
type Index struct {
	loader *Loader
}

// NewIndex wraps a Loader with the point-in-polygon query used by the
// occupancy engine.
func NewIndex(loader *Loader) *Index {
	return &Index{loader: loader}
}

// SectorOf returns the name of the first sector containing the point, and
// whether any sector matched. When multiple polygons overlap, the first
// match in definition order wins — sector geometry is assumed
// non-overlapping by convention, so this is a don't-care in well-formed
// configurations.
func (idx *Index) SectorOf(lat, lon float64, altitude int) (string, bool) {
	for _, s := range idx.loader.Sectors() {
		if s.FloorFt != nil && altitude < *s.FloorFt {
			continue
		}
		if s.CeilFt != nil && altitude > *s.CeilFt {
			continue
		}
		if domain.PointInPolygon(lat, lon, s.Vertices) {
			return s.Name, true
		}
	}
	return "", false
}
