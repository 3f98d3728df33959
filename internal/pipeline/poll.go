package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/infinite-experiment/vatwatch/internal/buffer"
	"github.com/infinite-experiment/vatwatch/internal/filter"
	"github.com/infinite-experiment/vatwatch/internal/logging"
	"github.com/infinite-experiment/vatwatch/internal/sectorcache"
	"github.com/infinite-experiment/vatwatch/internal/sectors"
	"github.com/infinite-experiment/vatwatch/internal/upstream"
)

// Poller runs one fetch-filter-buffer-sector-engine tick, the
// serial chain C1 -> C2 -> C3 -> C5 described in §4 for each PollInterval.
type Poller struct {
	client     *upstream.Client
	chain      *filter.Chain
	buf        *buffer.Buffer
	engine     *sectors.Engine
	sectorView *sectorcache.Cache
}

// NewPoller builds a Poller from its already-constructed stage dependencies.
// sectorView may be nil, in which case the poller skips refreshing it.
func NewPoller(client *upstream.Client, chain *filter.Chain, buf *buffer.Buffer, engine *sectors.Engine, sectorView *sectorcache.Cache) *Poller {
	return &Poller{client: client, chain: chain, buf: buf, engine: engine, sectorView: sectorView}
}

// Tick fetches one snapshot, filters it, merges it into the buffer, and
// feeds every admitted pilot sample through the sector engine. A fetch
// failure aborts the tick without touching the buffer or engine state,
// since an upstream error never carries a partial snapshot worth acting on.
func (p *Poller) Tick(ctx context.Context) error {
	log := logging.WithTick("poller", uuid.NewString())

	snap, err := p.client.Fetch(ctx)
	if err != nil {
		log.Warnw("fetch failed, skipping tick", "error", err)
		return nil
	}

	admitted := p.chain.Apply(snap)
	p.buf.Merge(admitted)
	log.Debugw("tick admitted", "pilots", len(admitted.Pilots), "controllers", len(admitted.Controllers), "transceivers", len(admitted.Transceivers))

	for _, pilot := range admitted.Pilots {
		p.engine.Update(ctx, pilot)
	}

	if p.sectorView != nil {
		now := time.Now().UTC()
		current := p.engine.Snapshot()
		for callsign, sector := range current {
			p.sectorView.Set(callsign, sector, now)
		}
		for _, stale := range p.sectorView.All() {
			if _, stillIn := current[stale.Callsign]; !stillIn {
				p.sectorView.Set(stale.Callsign, "", now)
			}
		}
	}

	return nil
}
