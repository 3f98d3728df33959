// Package sectorcache keeps a cheap, queryable snapshot of which sector
// every currently-tracked flight occupies, refreshed once per poll tick so
// the dashboard API never has to hit sector_occupancy for a status read.
package sectorcache

import (
	"sync"
	"time"

	"github.com/infinite-experiment/vatwatch/internal/cache"
)

const entryKey = "sector_occupants"
const entryTTL = 5 * time.Minute

// Occupant is one callsign's current sector assignment as of the last tick.
type Occupant struct {
	Callsign string    `json:"callsign"`
	Sector   string    `json:"sector"`
	AsOf     time.Time `json:"as_of"`
}

// Cache stores the latest Occupant list in a plain in-process map, which
// All and InSector read. When a backing cache.Interface is set, every Set
// also writes a copy of the whole map to it under one key.
type Cache struct {
	backing cache.Interface

	mu   sync.RWMutex
	byID map[string]Occupant
}

// New wraps a cache.Interface. Pass nil to fall back to process-local only.
func New(backing cache.Interface) *Cache {
	return &Cache{backing: backing, byID: make(map[string]Occupant)}
}

// Set records callsign's current sector as of now. An empty sector clears
// the callsign's entry, matching "no longer inside any sector".
func (c *Cache) Set(callsign, sector string, asOf time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sector == "" {
		delete(c.byID, callsign)
	} else {
		c.byID[callsign] = Occupant{Callsign: callsign, Sector: sector, AsOf: asOf}
	}
	c.persist()
}

// All returns every currently-tracked occupant, unordered.
func (c *Cache) All() []Occupant {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Occupant, 0, len(c.byID))
	for _, o := range c.byID {
		out = append(out, o)
	}
	return out
}

// InSector returns every occupant currently assigned to sectorName.
func (c *Cache) InSector(sectorName string) []Occupant {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Occupant
	for _, o := range c.byID {
		if o.Sector == sectorName {
			out = append(out, o)
		}
	}
	return out
}

func (c *Cache) persist() {
	if c.backing == nil {
		return
	}
	snapshot := make(map[string]Occupant, len(c.byID))
	for k, v := range c.byID {
		snapshot[k] = v
	}
	c.backing.Set(entryKey, snapshot, entryTTL)
}
