package filter

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/infinite-experiment/vatwatch/internal/domain"
	"github.com/infinite-experiment/vatwatch/internal/errs"
)

type polygonFile struct {
	Name     string          `yaml:"name"`
	Vertices []domain.LatLon `yaml:"vertices"`
}

// LoadPolygons reads the geographic admission boundary file (§4.4, F1). An
// empty path is not an error — it means F1 is disabled and every
// position-bearing pilot is admitted.
func LoadPolygons(path string) ([]Polygon, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfigInvalid, "failed to read geographic polygons file", err)
	}

	var defs []polygonFile
	if err := yaml.Unmarshal(raw, &defs); err != nil {
		return nil, errs.Wrap(errs.KindConfigInvalid, "failed to parse geographic polygons file", err)
	}

	polygons := make([]Polygon, 0, len(defs))
	for _, d := range defs {
		if len(d.Vertices) < 3 {
			continue
		}
		polygons = append(polygons, Polygon(d.Vertices))
	}
	return polygons, nil
}
