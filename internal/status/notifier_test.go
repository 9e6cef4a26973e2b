package status

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/beacon-dev/beacon/internal/types"
)

func snapshotWith(orgID uint, services ...types.ServiceStatus) *types.StatusSnapshot {
	statuses := make([]string, 0, len(services))
	for _, s := range services {
		statuses = append(statuses, s.EffectiveStatus)
	}

	return &types.StatusSnapshot{
		OrganizationID: orgID,
		OverallStatus:  OverallStatus(statuses),
		Services:       services,
		ComputedAt:     time.Now().UTC(),
	}
}

func service(id uint, name, reported, effective string) types.ServiceStatus {
	return types.ServiceStatus{ID: id, Name: name, ReportedStatus: reported, EffectiveStatus: effective}
}

func countType(events []types.Event, eventType string) int {
	n := 0
	for _, ev := range events {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

func TestDiffNoOpEmitsNothing(t *testing.T) {
	old := snapshotWith(1, service(1, "api", types.StatusOperational, types.StatusOperational))
	current := snapshotWith(1, service(1, "api", types.StatusOperational, types.StatusOperational))

	if events := Diff(old, current); len(events) != 0 {
		t.Fatalf("expected no events for identical snapshots, got %d", len(events))
	}
}

func TestDiffIncidentTakesServiceDown(t *testing.T) {
	old := snapshotWith(1, service(1, "api", types.StatusOperational, types.StatusOperational))
	current := snapshotWith(1, service(1, "api", types.StatusOperational, types.StatusOutage))

	events := Diff(old, current)

	if got := countType(events, types.EventServiceStatusChanged); got != 1 {
		t.Fatalf("expected exactly one service_status_changed, got %d", got)
	}
	if got := countType(events, types.EventOverallStatusChanged); got != 1 {
		t.Fatalf("expected one overall_status_changed, got %d", got)
	}

	var change types.Event
	for _, ev := range events {
		if ev.Type == types.EventServiceStatusChanged {
			change = ev
		}
	}

	if change.ServiceID != 1 || change.OldStatus != types.StatusOperational || change.NewStatus != types.StatusOutage {
		t.Fatalf("unexpected change payload: %+v", change)
	}

	last := events[len(events)-1]
	if last.Type != types.EventStatusUpdate || last.Snapshot == nil {
		t.Fatalf("expected trailing status_update with snapshot, got %+v", last)
	}
}

func TestDiffResolveRevertsService(t *testing.T) {
	old := snapshotWith(1, service(1, "api", types.StatusOperational, types.StatusOutage))
	current := snapshotWith(1, service(1, "api", types.StatusOperational, types.StatusOperational))

	events := Diff(old, current)

	if got := countType(events, types.EventServiceStatusChanged); got != 1 {
		t.Fatalf("expected one service_status_changed on resolve, got %d", got)
	}
	if current.OverallStatus != types.StatusOperational {
		t.Fatalf("expected overall Operational, got %s", current.OverallStatus)
	}
}

func TestDiffDeletingOutageServiceChangesOverall(t *testing.T) {
	old := snapshotWith(1,
		service(1, "api", types.StatusOperational, types.StatusOutage),
		service(2, "web", types.StatusOperational, types.StatusOperational),
	)
	current := snapshotWith(1, service(2, "web", types.StatusOperational, types.StatusOperational))

	events := Diff(old, current)

	if got := countType(events, types.EventOverallStatusChanged); got != 1 {
		t.Fatalf("expected overall_status_changed after deleting outage service, got %d", got)
	}
	if got := countType(events, types.EventServiceStatusChanged); got != 0 {
		t.Fatalf("expected no per-service events for a removed service, got %d", got)
	}
}

func TestDiffFirstPublishEmitsSnapshotOnly(t *testing.T) {
	current := snapshotWith(1, service(1, "api", types.StatusOperational, types.StatusOperational))

	events := Diff(nil, current)

	if len(events) != 1 || events[0].Type != types.EventStatusUpdate {
		t.Fatalf("expected single status_update for nil baseline, got %+v", events)
	}
}

func TestSnapshotSameIgnoresComputedAt(t *testing.T) {
	a := snapshotWith(1, service(1, "api", types.StatusOperational, types.StatusOperational))
	b := snapshotWith(1, service(1, "api", types.StatusOperational, types.StatusOperational))
	b.ComputedAt = b.ComputedAt.Add(time.Minute)

	if !a.Same(b) {
		t.Fatal("snapshots differing only in ComputedAt must compare equal")
	}
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []types.Event
	seq    uint64
}

func (r *recordingBroadcaster) Broadcast(orgID uint, ev types.Event) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ev.Seq = r.seq
	r.events = append(r.events, ev)
	return r.seq
}

func (r *recordingBroadcaster) recorded() []types.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Event(nil), r.events...)
}

func fixed(snapshot *types.StatusSnapshot) SnapshotBuilder {
	return func() (*types.StatusSnapshot, error) { return snapshot, nil }
}

func TestNotifierPublishSequencesEvents(t *testing.T) {
	rec := &recordingBroadcaster{}
	notifier := NewNotifier(rec)

	notifier.Prime(snapshotWith(1, service(1, "api", types.StatusOperational, types.StatusOperational)))

	events, err := notifier.PublishCommitted(1, fixed(snapshotWith(1, service(1, "api", types.StatusOperational, types.StatusOutage))))
	if err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("expected events from a real transition")
	}

	recorded := rec.recorded()
	for i := 1; i < len(recorded); i++ {
		if recorded[i].Seq != recorded[i-1].Seq+1 {
			t.Fatalf("sequence gap between events: %d -> %d", recorded[i-1].Seq, recorded[i].Seq)
		}
	}

	// Publishing the same state again is a no-op.
	again, err := notifier.PublishCommitted(1, fixed(snapshotWith(1, service(1, "api", types.StatusOperational, types.StatusOutage))))
	if err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected no events for unchanged state, got %d", len(again))
	}
}

// Two mutations of the same organization commit and publish concurrently.
// Because each snapshot is read from committed state inside the publish
// section, the newest recorded event must reflect the union of both writes,
// never a snapshot missing one of them.
func TestNotifierNewestEventReflectsCommittedState(t *testing.T) {
	rec := &recordingBroadcaster{}
	notifier := NewNotifier(rec)

	var storeMu sync.Mutex
	statuses := map[uint]string{1: types.StatusOperational, 2: types.StatusOperational}

	build := func() (*types.StatusSnapshot, error) {
		storeMu.Lock()
		defer storeMu.Unlock()
		return snapshotWith(1,
			service(1, "api", types.StatusOperational, statuses[1]),
			service(2, "web", types.StatusOperational, statuses[2]),
		), nil
	}

	baseline, _ := build()
	notifier.Prime(baseline)

	var wg sync.WaitGroup
	for _, id := range []uint{1, 2} {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			storeMu.Lock()
			statuses[id] = types.StatusOutage
			storeMu.Unlock()
			if _, err := notifier.PublishCommitted(1, build); err != nil {
				t.Errorf("unexpected publish error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	recorded := rec.recorded()
	if len(recorded) == 0 {
		t.Fatal("expected events from two real transitions")
	}

	newest := recorded[len(recorded)-1]
	if newest.Type != types.EventStatusUpdate || newest.Snapshot == nil {
		t.Fatalf("expected the newest event to be a status_update with snapshot, got %+v", newest)
	}
	if newest.Snapshot.OverallStatus != types.StatusOutage {
		t.Fatalf("newest snapshot overall = %s, want %s", newest.Snapshot.OverallStatus, types.StatusOutage)
	}
	for _, svc := range newest.Snapshot.Services {
		if svc.EffectiveStatus != types.StatusOutage {
			t.Fatalf("newest snapshot shows service %d as %s although its outage committed first", svc.ID, svc.EffectiveStatus)
		}
	}
}

func TestNotifierRebaselinesAfterFailedRebuild(t *testing.T) {
	rec := &recordingBroadcaster{}
	notifier := NewNotifier(rec)

	snap := snapshotWith(1, service(1, "api", types.StatusOperational, types.StatusOutage))
	notifier.Prime(snap)

	if _, err := notifier.PublishCommitted(1, func() (*types.StatusSnapshot, error) {
		return nil, errors.New("store unavailable")
	}); err == nil {
		t.Fatal("expected the rebuild error to surface")
	}

	// The baseline is gone, so republishing unchanged state emits a fresh
	// full snapshot instead of silently diffing against stale cache.
	events, err := notifier.PublishCommitted(1, fixed(snapshotWith(1, service(1, "api", types.StatusOperational, types.StatusOutage))))
	if err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}
	if len(events) != 1 || events[0].Type != types.EventStatusUpdate {
		t.Fatalf("expected a fresh status_update after a failed rebuild, got %+v", events)
	}
}
