// Package buffer holds the in-memory, latest-wins overwrite buffer (C3)
// between the filter chain and the batch writer. The mutex-guarded map
// idiom follows the rate-limiter's per-key map in
// internal/middleware/rate_limit.go, generalized to two maps plus a pending
// transceiver slice.
package buffer

import (
	"sync"

	"github.com/infinite-experiment/vatwatch/internal/domain"
	"github.com/infinite-experiment/vatwatch/internal/metrics"
)

// Buffer accumulates the freshest sample per (callsign, cid, logon_time)
// between flushes. A later sample for the same key always overwrites an
// earlier one; no ordering guarantee is made beyond "last write wins" (§4.3).
type Buffer struct {
	mu sync.Mutex

	pilots       map[domain.Identity]domain.PilotSample
	controllers  map[domain.Identity]domain.ControllerSample
	transceivers []domain.TransceiverSample

	metrics *metrics.Registry
}

// New constructs an empty Buffer.
func New(reg *metrics.Registry) *Buffer {
	return &Buffer{
		pilots:      make(map[domain.Identity]domain.PilotSample),
		controllers: make(map[domain.Identity]domain.ControllerSample),
		metrics:     reg,
	}
}

// Merge folds one filtered snapshot into the buffer. Transceivers are
// appended, never overwritten, since they are stored as an append-only log.
func (b *Buffer) Merge(snap *domain.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range snap.Pilots {
		b.pilots[p.Key()] = p
	}
	for _, c := range snap.Controllers {
		b.controllers[c.Key()] = c
	}
	b.transceivers = append(b.transceivers, snap.Transceivers...)

	b.observe()
}

// Drain atomically removes and returns everything currently buffered,
// leaving the buffer empty. The batch writer calls this once per flush
// cycle so a sample that arrives mid-flush lands in the next batch instead
// of being lost or double-written.
func (b *Buffer) Drain() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := Snapshot{
		Pilots:       make([]domain.PilotSample, 0, len(b.pilots)),
		Controllers:  make([]domain.ControllerSample, 0, len(b.controllers)),
		Transceivers: b.transceivers,
	}
	for _, p := range b.pilots {
		out.Pilots = append(out.Pilots, p)
	}
	for _, c := range b.controllers {
		out.Controllers = append(out.Controllers, c)
	}

	b.pilots = make(map[domain.Identity]domain.PilotSample)
	b.controllers = make(map[domain.Identity]domain.ControllerSample)
	b.transceivers = nil

	b.observe()
	return out
}

// Snapshot returns copies of the buffered pilots and controllers without
// draining; pending transceivers are not included.
func (b *Buffer) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := Snapshot{
		Pilots:      make([]domain.PilotSample, 0, len(b.pilots)),
		Controllers: make([]domain.ControllerSample, 0, len(b.controllers)),
	}
	for _, p := range b.pilots {
		out.Pilots = append(out.Pilots, p)
	}
	for _, c := range b.controllers {
		out.Controllers = append(out.Controllers, c)
	}
	return out
}

// Requeue merges a previously-drained Snapshot back into the buffer after a
// failed flush (§4.4: "the buffer is not cleared on rollback"). Anything
// merged into the buffer since the drain takes precedence: a requeued pilot
// or controller is only restored when its key is not already present.
// Requeued transceivers are placed ahead of those appended since the drain.
func (b *Buffer) Requeue(s Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range s.Pilots {
		if _, exists := b.pilots[p.Key()]; !exists {
			b.pilots[p.Key()] = p
		}
	}
	for _, c := range s.Controllers {
		if _, exists := b.controllers[c.Key()]; !exists {
			b.controllers[c.Key()] = c
		}
	}
	b.transceivers = append(s.Transceivers, b.transceivers...)

	b.observe()
}

func (b *Buffer) observe() {
	if b.metrics == nil {
		return
	}
	b.metrics.BufferPilotsBuffered.Set(float64(len(b.pilots)))
	b.metrics.BufferControllersBuffered.Set(float64(len(b.controllers)))
	b.metrics.BufferTransceiversPending.Set(float64(len(b.transceivers)))
}

// Snapshot is a drained or peeked copy of the buffer's contents at one
// instant, decoupled from domain.Snapshot since it carries no ServerTime.
type Snapshot struct {
	Pilots       []domain.PilotSample
	Controllers  []domain.ControllerSample
	Transceivers []domain.TransceiverSample
}
