package status

import (
	"sync"

	"github.com/beacon-dev/beacon/internal/types"
)

// Broadcaster delivers one organization's events in the order they are
// handed over. Satisfied by the fanout hub.
type Broadcaster interface {
	Broadcast(orgID uint, ev types.Event) uint64
}

// Diff compares two snapshots of the same organization and returns the events
// a subscriber needs, in delivery order: one service_status_changed per real
// service transition, an overall_status_changed if the organization-wide
// status moved, and a trailing status_update carrying the new snapshot
// whenever anything at all differs. Identical snapshots produce no events.
//
// With a nil previous snapshot (first publish after boot) only the
// status_update is emitted; there is no old state to diff against.
func Diff(old, current *types.StatusSnapshot) []types.Event {
	if current == nil || current.Same(old) {
		return nil
	}

	var events []types.Event

	if old != nil {
		previous := make(map[uint]types.ServiceStatus, len(old.Services))
		for _, service := range old.Services {
			previous[service.ID] = service
		}

		for _, service := range current.Services {
			before, existed := previous[service.ID]
			if !existed || before.EffectiveStatus == service.EffectiveStatus {
				continue
			}

			events = append(events, types.Event{
				Type:        types.EventServiceStatusChanged,
				ServiceID:   service.ID,
				ServiceName: service.Name,
				OldStatus:   before.EffectiveStatus,
				NewStatus:   service.EffectiveStatus,
			})
		}

		if old.OverallStatus != current.OverallStatus {
			events = append(events, types.Event{
				Type:      types.EventOverallStatusChanged,
				OldStatus: old.OverallStatus,
				NewStatus: current.OverallStatus,
				Snapshot:  current,
			})
		}
	}

	events = append(events, types.Event{
		Type:     types.EventStatusUpdate,
		Snapshot: current,
	})

	return events
}

// SnapshotBuilder reads a fresh snapshot from committed store state.
type SnapshotBuilder func() (*types.StatusSnapshot, error)

// Notifier keeps the previous snapshot per organization and turns each new
// snapshot into ordered fanout events. Publishing happens after the store
// commit that produced the change and before the mutation's HTTP response
// is written.
type Notifier struct {
	mu   sync.Mutex
	last map[uint]*types.StatusSnapshot
	hub  Broadcaster
}

func NewNotifier(hub Broadcaster) *Notifier {
	return &Notifier{
		last: make(map[uint]*types.StatusSnapshot),
		hub:  hub,
	}
}

// PublishCommitted rebuilds the organization's snapshot via build and
// broadcasts the diff against the previous one. The lock is held across the
// rebuild and the broadcasts, so when mutations of the same organization
// commit concurrently, snapshot content order always matches sequence order:
// the highest-sequence event can never carry a snapshot that is missing an
// already committed change.
//
// A failed rebuild drops the cached baseline; the next publish then diffs
// against a fresh store read instead of against state that may no longer
// match the store. Returns the emitted events with their sequence numbers.
func (n *Notifier) PublishCommitted(orgID uint, build SnapshotBuilder) ([]types.Event, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	snapshot, err := build()
	if err != nil {
		delete(n.last, orgID)
		return nil, err
	}

	if snapshot == nil {
		return nil, nil
	}

	return n.publishLocked(snapshot), nil
}

func (n *Notifier) publishLocked(snapshot *types.StatusSnapshot) []types.Event {
	events := Diff(n.last[snapshot.OrganizationID], snapshot)
	n.last[snapshot.OrganizationID] = snapshot

	for i := range events {
		events[i].Seq = n.hub.Broadcast(snapshot.OrganizationID, events[i])
		events[i].Version = types.EventSchemaVersion
		events[i].OrganizationID = snapshot.OrganizationID
	}

	return events
}

// Prime records a baseline snapshot without emitting events. Used at startup
// so the first real mutation diffs against current store state instead of
// against nothing.
func (n *Notifier) Prime(snapshot *types.StatusSnapshot) {
	if snapshot == nil {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.last[snapshot.OrganizationID] = snapshot
}

// Global notifier instance, wired at startup.
var globalNotifier *Notifier

// Initialize creates the global notifier on top of hub.
func Initialize(hub Broadcaster) *Notifier {
	globalNotifier = NewNotifier(hub)
	return globalNotifier
}

// PublishCommitted routes through the global notifier.
func PublishCommitted(orgID uint, build SnapshotBuilder) ([]types.Event, error) {
	if globalNotifier == nil {
		return nil, nil
	}
	return globalNotifier.PublishCommitted(orgID, build)
}

// Prime routes through the global notifier.
func Prime(snapshot *types.StatusSnapshot) {
	if globalNotifier != nil {
		globalNotifier.Prime(snapshot)
	}
}
