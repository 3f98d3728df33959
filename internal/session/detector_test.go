package session

import (
	"context"
	"testing"
	"time"

	"github.com/infinite-experiment/vatwatch/internal/domain"
	"github.com/infinite-experiment/vatwatch/internal/store/repositories"
)

// fakeSessionStore is a mockLiveAPIProvider-style fake: each method is a
// function field, and tests only set the ones the scenario exercises.
type fakeSessionStore struct {
	findCompletionCandidatesFn   func(ctx context.Context, liveTable, summaryTable string, cutoff time.Time) ([]repositories.CompletionCandidate, error)
	reconnectionWindowMaxActivityFn func(ctx context.Context, liveTable string, callsign string, cid *int, sessionEnd time.Time, threshold time.Duration) (time.Time, bool, error)
	mergedFlightRowsFn           func(ctx context.Context, callsign string, cid *int, logonTime, mergedEnd time.Time) ([]domain.Flight, error)
	mergedControllerRowsFn       func(ctx context.Context, callsign string, cid *int, logonTime, mergedEnd time.Time) ([]domain.Controller, error)
}

func (f *fakeSessionStore) FindCompletionCandidates(ctx context.Context, liveTable, summaryTable string, cutoff time.Time) ([]repositories.CompletionCandidate, error) {
	return f.findCompletionCandidatesFn(ctx, liveTable, summaryTable, cutoff)
}

func (f *fakeSessionStore) ReconnectionWindowMaxActivity(ctx context.Context, liveTable string, callsign string, cid *int, sessionEnd time.Time, threshold time.Duration) (time.Time, bool, error) {
	if f.reconnectionWindowMaxActivityFn == nil {
		return time.Time{}, false, nil
	}
	return f.reconnectionWindowMaxActivityFn(ctx, liveTable, callsign, cid, sessionEnd, threshold)
}

func (f *fakeSessionStore) MergedFlightRows(ctx context.Context, callsign string, cid *int, logonTime, mergedEnd time.Time) ([]domain.Flight, error) {
	return f.mergedFlightRowsFn(ctx, callsign, cid, logonTime, mergedEnd)
}

func (f *fakeSessionStore) MergedControllerRows(ctx context.Context, callsign string, cid *int, logonTime, mergedEnd time.Time) ([]domain.Controller, error) {
	return f.mergedControllerRowsFn(ctx, callsign, cid, logonTime, mergedEnd)
}

type fakeSummaryStore struct {
	insertFlightSummaryFn     func(ctx context.Context, s domain.FlightSummary) error
	insertControllerSummaryFn func(ctx context.Context, s domain.ControllerSummary) error
	insertedFlights           []domain.FlightSummary
	insertedControllers       []domain.ControllerSummary
}

func (f *fakeSummaryStore) InsertFlightSummary(ctx context.Context, s domain.FlightSummary) error {
	f.insertedFlights = append(f.insertedFlights, s)
	if f.insertFlightSummaryFn != nil {
		return f.insertFlightSummaryFn(ctx, s)
	}
	return nil
}

func (f *fakeSummaryStore) InsertControllerSummary(ctx context.Context, s domain.ControllerSummary) error {
	f.insertedControllers = append(f.insertedControllers, s)
	if f.insertControllerSummaryFn != nil {
		return f.insertControllerSummaryFn(ctx, s)
	}
	return nil
}

type fakeArchiveStore struct {
	archiveFlightSessionFn     func(ctx context.Context, callsign string, cid *int, logonTime, mergedEnd time.Time) (int64, int64, error)
	archiveControllerSessionFn func(ctx context.Context, callsign string, cid *int, logonTime, mergedEnd time.Time) (int64, int64, error)
	flightCalls                []time.Time
}

func (f *fakeArchiveStore) ArchiveFlightSession(ctx context.Context, callsign string, cid *int, logonTime, mergedEnd time.Time) (int64, int64, error) {
	f.flightCalls = append(f.flightCalls, mergedEnd)
	if f.archiveFlightSessionFn != nil {
		return f.archiveFlightSessionFn(ctx, callsign, cid, logonTime, mergedEnd)
	}
	return 1, 1, nil
}

func (f *fakeArchiveStore) ArchiveControllerSession(ctx context.Context, callsign string, cid *int, logonTime, mergedEnd time.Time) (int64, int64, error) {
	if f.archiveControllerSessionFn != nil {
		return f.archiveControllerSessionFn(ctx, callsign, cid, logonTime, mergedEnd)
	}
	return 1, 1, nil
}

func cidPtr(v int) *int { return &v }

// Scenario 1: a clean session with no reconnection activity summarizes and
// archives using the candidate's own session_end.
func TestRunFlights_CleanSessionSummarizesAndArchives(t *testing.T) {
	logon := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	sessionEnd := logon.Add(45 * time.Minute)

	candidate := repositories.CompletionCandidate{
		Callsign: "QFA1", CID: cidPtr(1001), LogonTime: logon, SessionEnd: sessionEnd,
	}

	sessions := &fakeSessionStore{
		findCompletionCandidatesFn: func(ctx context.Context, liveTable, summaryTable string, cutoff time.Time) ([]repositories.CompletionCandidate, error) {
			return []repositories.CompletionCandidate{candidate}, nil
		},
		reconnectionWindowMaxActivityFn: func(ctx context.Context, liveTable, callsign string, cid *int, end time.Time, threshold time.Duration) (time.Time, bool, error) {
			return time.Time{}, false, nil
		},
		mergedFlightRowsFn: func(ctx context.Context, callsign string, cid *int, logonTime, mergedEnd time.Time) ([]domain.Flight, error) {
			if !mergedEnd.Equal(sessionEnd) {
				t.Errorf("expected mergedEnd %v when no reconnection activity, got %v", sessionEnd, mergedEnd)
			}
			return []domain.Flight{{Callsign: "QFA1", CID: 1001, LogonTime: logon, LastUpdated: mergedEnd}}, nil
		},
	}
	summaries := &fakeSummaryStore{}
	archives := &fakeArchiveStore{}

	d := New(sessions, summaries, archives, 20*time.Minute, 5.0, nil)

	result, err := d.RunFlights(context.Background(), sessionEnd.Add(30*time.Minute), 15*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SummariesCreated != 1 {
		t.Errorf("expected 1 summary created, got %d", result.SummariesCreated)
	}
	if len(summaries.insertedFlights) != 1 {
		t.Fatalf("expected 1 flight summary inserted, got %d", len(summaries.insertedFlights))
	}
	if len(archives.flightCalls) != 1 || !archives.flightCalls[0].Equal(sessionEnd) {
		t.Errorf("expected archive called with mergedEnd %v, got %v", sessionEnd, archives.flightCalls)
	}
}

// Scenario 2: reconnection activity found once extends the merge window
// past the candidate's original session_end before rows are fetched.
func TestRunFlights_MergeExtendsWindowPastSessionEnd(t *testing.T) {
	logon := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	sessionEnd := logon.Add(45 * time.Minute)
	reconnectActivity := sessionEnd.Add(10 * time.Minute)

	candidate := repositories.CompletionCandidate{
		Callsign: "QFA1", CID: cidPtr(1001), LogonTime: logon, SessionEnd: sessionEnd,
	}

	calls := 0
	sessions := &fakeSessionStore{
		findCompletionCandidatesFn: func(ctx context.Context, liveTable, summaryTable string, cutoff time.Time) ([]repositories.CompletionCandidate, error) {
			return []repositories.CompletionCandidate{candidate}, nil
		},
		reconnectionWindowMaxActivityFn: func(ctx context.Context, liveTable, callsign string, cid *int, end time.Time, threshold time.Duration) (time.Time, bool, error) {
			calls++
			if calls == 1 {
				return reconnectActivity, true, nil
			}
			return time.Time{}, false, nil
		},
		mergedFlightRowsFn: func(ctx context.Context, callsign string, cid *int, logonTime, mergedEnd time.Time) ([]domain.Flight, error) {
			if !mergedEnd.Equal(reconnectActivity) {
				t.Errorf("expected mergedEnd %v after one merge, got %v", reconnectActivity, mergedEnd)
			}
			return []domain.Flight{{Callsign: "QFA1", CID: 1001, LogonTime: logon, LastUpdated: mergedEnd}}, nil
		},
	}
	summaries := &fakeSummaryStore{}
	archives := &fakeArchiveStore{}

	d := New(sessions, summaries, archives, 20*time.Minute, 5.0, nil)

	result, err := d.RunFlights(context.Background(), reconnectActivity.Add(30*time.Minute), 15*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SummariesCreated != 1 {
		t.Errorf("expected 1 summary created, got %d", result.SummariesCreated)
	}
	if len(archives.flightCalls) != 1 || !archives.flightCalls[0].Equal(reconnectActivity) {
		t.Errorf("expected archive called with merged end %v, got %v", reconnectActivity, archives.flightCalls)
	}
}

// Scenario 3: no reconnection activity found (distinct from scenario 1 in
// that the test also asserts the lookup was called) means the original
// session_end is used untouched.
func TestRunFlights_NoReconnectionActivityUsesOriginalSessionEnd(t *testing.T) {
	logon := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	sessionEnd := logon.Add(45 * time.Minute)

	candidate := repositories.CompletionCandidate{
		Callsign: "JBU2", CID: cidPtr(2002), LogonTime: logon, SessionEnd: sessionEnd,
	}

	lookupCalled := false
	sessions := &fakeSessionStore{
		findCompletionCandidatesFn: func(ctx context.Context, liveTable, summaryTable string, cutoff time.Time) ([]repositories.CompletionCandidate, error) {
			return []repositories.CompletionCandidate{candidate}, nil
		},
		reconnectionWindowMaxActivityFn: func(ctx context.Context, liveTable, callsign string, cid *int, end time.Time, threshold time.Duration) (time.Time, bool, error) {
			lookupCalled = true
			return time.Time{}, false, nil
		},
		mergedFlightRowsFn: func(ctx context.Context, callsign string, cid *int, logonTime, mergedEnd time.Time) ([]domain.Flight, error) {
			return []domain.Flight{{Callsign: "JBU2", CID: 2002, LogonTime: logon, LastUpdated: mergedEnd}}, nil
		},
	}
	summaries := &fakeSummaryStore{}
	archives := &fakeArchiveStore{}

	d := New(sessions, summaries, archives, 20*time.Minute, 5.0, nil)

	if _, err := d.RunFlights(context.Background(), sessionEnd.Add(30*time.Minute), 15*time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !lookupCalled {
		t.Fatal("expected the reconnection-window lookup to be exercised")
	}
	if len(archives.flightCalls) != 1 || !archives.flightCalls[0].Equal(sessionEnd) {
		t.Errorf("expected archive called with original session_end %v, got %v", sessionEnd, archives.flightCalls)
	}
}

// TestMergeWindow_ChainedReconnectsAdvanceFromRealActivity is the
// regression test for the chained-reconnect fix: each successive
// reconnection window reports its own real last_updated timestamp rather
// than a fixed sessionEnd+threshold increment, so mergeWindow must track
// the latest real activity across iterations, not recompute a stride.
func TestMergeWindow_ChainedReconnectsAdvanceFromRealActivity(t *testing.T) {
	logon := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	sessionEnd := logon.Add(30 * time.Minute)
	firstReconnect := sessionEnd.Add(25 * time.Minute)  // > one threshold past sessionEnd
	secondReconnect := firstReconnect.Add(5 * time.Minute) // < one threshold past firstReconnect, still a real advance

	threshold := 20 * time.Minute
	calls := 0
	sessions := &fakeSessionStore{
		reconnectionWindowMaxActivityFn: func(ctx context.Context, liveTable, callsign string, cid *int, end time.Time, th time.Duration) (time.Time, bool, error) {
			calls++
			switch calls {
			case 1:
				if !end.Equal(sessionEnd) {
					t.Errorf("expected first call with sessionEnd %v, got %v", sessionEnd, end)
				}
				return firstReconnect, true, nil
			case 2:
				if !end.Equal(firstReconnect) {
					t.Errorf("expected second call to chain off the first reconnect's real activity %v, got %v", firstReconnect, end)
				}
				return secondReconnect, true, nil
			default:
				return time.Time{}, false, nil
			}
		},
	}

	d := New(sessions, &fakeSummaryStore{}, &fakeArchiveStore{}, threshold, 5.0, nil)

	candidate := repositories.CompletionCandidate{Callsign: "QFA1", CID: cidPtr(1001), LogonTime: logon, SessionEnd: sessionEnd}
	got, err := d.mergeWindow(context.Background(), "flights", candidate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(secondReconnect) {
		t.Errorf("expected mergeWindow to settle on the second reconnect's real activity %v, got %v", secondReconnect, got)
	}
	if calls != 3 {
		t.Errorf("expected 3 lookup calls (two merges plus one terminating false), got %d", calls)
	}
}

// TestRunFlights_SummaryInsertFailureAbortsArchive verifies the
// insert-then-archive ordering: if InsertFlightSummary fails, archive is
// never called for that candidate.
func TestRunFlights_SummaryInsertFailureAbortsArchive(t *testing.T) {
	logon := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	sessionEnd := logon.Add(45 * time.Minute)

	candidate := repositories.CompletionCandidate{Callsign: "QFA1", CID: cidPtr(1001), LogonTime: logon, SessionEnd: sessionEnd}

	sessions := &fakeSessionStore{
		findCompletionCandidatesFn: func(ctx context.Context, liveTable, summaryTable string, cutoff time.Time) ([]repositories.CompletionCandidate, error) {
			return []repositories.CompletionCandidate{candidate}, nil
		},
		mergedFlightRowsFn: func(ctx context.Context, callsign string, cid *int, logonTime, mergedEnd time.Time) ([]domain.Flight, error) {
			return []domain.Flight{{Callsign: "QFA1", CID: 1001, LogonTime: logon, LastUpdated: mergedEnd}}, nil
		},
	}
	summaries := &fakeSummaryStore{
		insertFlightSummaryFn: func(ctx context.Context, s domain.FlightSummary) error {
			return context.DeadlineExceeded
		},
	}
	archives := &fakeArchiveStore{}

	d := New(sessions, summaries, archives, 20*time.Minute, 5.0, nil)

	result, err := d.RunFlights(context.Background(), sessionEnd.Add(30*time.Minute), 15*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SummariesCreated != 0 {
		t.Errorf("expected 0 summaries created on insert failure, got %d", result.SummariesCreated)
	}
	if len(archives.flightCalls) != 0 {
		t.Errorf("expected archive never called after summary insert failure, got %d calls", len(archives.flightCalls))
	}
}
