// Package sectors loads the static sector polygon definitions and runs the
// per-aircraft occupancy hysteresis engine (C5). The yaml.v3 + fsnotify
// hot-reload idiom is grounded on the retired config.HotReloadSystem in the
// example pack's runtime-configuration engine: watch the containing
// directory (more reliable than watching the file itself), filter events to
// the one path that matters, and reload on Write.
package sectors

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/infinite-experiment/vatwatch/internal/domain"
	"github.com/infinite-experiment/vatwatch/internal/errs"
	"github.com/infinite-experiment/vatwatch/internal/logging"
)

// fileDefinition is the on-disk shape of the sector definitions file: a
// named polygon plus optional altitude floor/ceiling in feet.
type fileDefinition struct {
	Name     string          `yaml:"name"`
	Vertices []domain.LatLon `yaml:"vertices"`
	FloorFt  *int            `yaml:"floor_ft"`
	CeilFt   *int            `yaml:"ceil_ft"`
}

// Loader owns the static sector set, reloadable from disk but never mutated
// except by a full reload (§3: "loaded once at startup; never mutated at
// runtime" — hot reload is an operator action, not a runtime mutation of an
// individual sector).
type Loader struct {
	path string

	mu      sync.RWMutex
	sectors []domain.Sector

	watcher *fsnotify.Watcher
}

// NewLoader reads the definitions at path once. An empty path yields a
// Loader with zero sectors rather than an error, since sector tracking is
// optional in deployments that only need flight/controller ingestion.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	if path == "" {
		return l, nil
	}
	if err := l.reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Sectors returns the current polygon set.
func (l *Loader) Sectors() []domain.Sector {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Sector, len(l.sectors))
	copy(out, l.sectors)
	return out
}

func (l *Loader) reload() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return errs.Wrap(errs.KindConfigInvalid, "failed to read sector polygon file", err)
	}

	var defs []fileDefinition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return errs.Wrap(errs.KindConfigInvalid, "failed to parse sector polygon file", err)
	}

	sectors := make([]domain.Sector, 0, len(defs))
	for _, d := range defs {
		if d.Name == "" || len(d.Vertices) < 3 {
			continue
		}
		sectors = append(sectors, domain.Sector{
			Name:     d.Name,
			Vertices: d.Vertices,
			FloorFt:  d.FloorFt,
			CeilFt:   d.CeilFt,
		})
	}

	l.mu.Lock()
	l.sectors = sectors
	l.mu.Unlock()

	logging.Info("sector definitions loaded", "count", len(sectors), "path", l.path)
	return nil
}

// Watch starts watching the polygon file's directory for writes and
// reloads on change. It runs until stop is closed. Errors encountered while
// reloading are logged, not propagated, since a bad edit should not take
// down an already-running tracker.
func (l *Loader) Watch(stop <-chan struct{}) error {
	if l.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create sector file watcher: %w", err)
	}
	l.watcher = watcher

	dir := filepath.Dir(l.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch sector directory %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != l.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					if err := l.reload(); err != nil {
						logging.Warn("sector hot reload failed", "error", err.Error())
					}
				}
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn("sector file watcher error", "error", watchErr.Error())
			case <-stop:
				return
			}
		}
	}()

	return nil
}
