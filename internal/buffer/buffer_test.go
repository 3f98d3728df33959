package buffer

import (
	"testing"
	"time"

	"github.com/infinite-experiment/vatwatch/internal/domain"
)

func TestBuffer_Merge_LatestWins(t *testing.T) {
	b := New(nil)
	logon := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)

	alt1 := 30000
	alt2 := 35000
	b.Merge(&domain.Snapshot{Pilots: []domain.PilotSample{
		{Callsign: "QFA1", CID: 1001, LogonTime: logon, Altitude: &alt1},
	}})
	b.Merge(&domain.Snapshot{Pilots: []domain.PilotSample{
		{Callsign: "QFA1", CID: 1001, LogonTime: logon, Altitude: &alt2},
	}})

	snap := b.Snapshot()
	if len(snap.Pilots) != 1 {
		t.Fatalf("expected 1 pilot after overwrite, got %d", len(snap.Pilots))
	}
	if *snap.Pilots[0].Altitude != 35000 {
		t.Errorf("expected latest sample to win, got altitude %d", *snap.Pilots[0].Altitude)
	}
}

func TestBuffer_Drain_EmptiesBuffer(t *testing.T) {
	b := New(nil)
	logon := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	b.Merge(&domain.Snapshot{Pilots: []domain.PilotSample{{Callsign: "QFA1", CID: 1001, LogonTime: logon}}})

	drained := b.Drain()
	if len(drained.Pilots) != 1 {
		t.Fatalf("expected drain to return 1 pilot, got %d", len(drained.Pilots))
	}

	again := b.Drain()
	if len(again.Pilots) != 0 {
		t.Fatalf("expected buffer empty after drain, got %d pilots", len(again.Pilots))
	}
}

func TestBuffer_Requeue_PreservesNewerSamplesMergedDuringFailedFlush(t *testing.T) {
	b := New(nil)
	logon := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	altOld := 30000
	altNew := 31000

	b.Merge(&domain.Snapshot{Pilots: []domain.PilotSample{
		{Callsign: "QFA1", CID: 1001, LogonTime: logon, Altitude: &altOld},
	}})
	drained := b.Drain()

	// Simulate a real-time sample landing while the failed flush was in
	// flight; it must win over the requeued stale copy.
	b.Merge(&domain.Snapshot{Pilots: []domain.PilotSample{
		{Callsign: "QFA1", CID: 1001, LogonTime: logon, Altitude: &altNew},
	}})
	b.Requeue(drained)

	snap := b.Snapshot()
	if len(snap.Pilots) != 1 {
		t.Fatalf("expected 1 pilot after requeue, got %d", len(snap.Pilots))
	}
	if *snap.Pilots[0].Altitude != altNew {
		t.Errorf("expected newer in-flight sample to survive requeue, got altitude %d", *snap.Pilots[0].Altitude)
	}
}

func TestBuffer_Merge_TransceiversAppendOnly(t *testing.T) {
	b := New(nil)
	b.Merge(&domain.Snapshot{Transceivers: []domain.TransceiverSample{{Callsign: "QFA1", TransceiverID: 0}}})
	b.Merge(&domain.Snapshot{Transceivers: []domain.TransceiverSample{{Callsign: "QFA1", TransceiverID: 0}}})

	drained := b.Drain()
	if len(drained.Transceivers) != 2 {
		t.Fatalf("expected transceivers to accumulate rather than overwrite, got %d", len(drained.Transceivers))
	}
}
