package fanout

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/beacon-dev/beacon/internal/types"
)

func TestHubSequenceIsStrictlyIncreasing(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(1)

	for i := 0; i < 5; i++ {
		hub.Broadcast(1, types.Event{Type: types.EventStatusUpdate})
	}

	var last uint64
	for i := 0; i < 5; i++ {
		ev := <-sub.C
		if ev.Seq != last+1 {
			t.Fatalf("expected seq %d, got %d", last+1, ev.Seq)
		}
		last = ev.Seq
	}
}

func TestHubSequencesAreIndependentPerOrganization(t *testing.T) {
	hub := NewHub()

	hub.Broadcast(1, types.Event{Type: types.EventStatusUpdate})
	hub.Broadcast(1, types.Event{Type: types.EventStatusUpdate})
	hub.Broadcast(2, types.Event{Type: types.EventStatusUpdate})

	if got := hub.Sequence(1); got != 2 {
		t.Fatalf("expected org 1 at seq 2, got %d", got)
	}
	if got := hub.Sequence(2); got != 1 {
		t.Fatalf("expected org 2 at seq 1, got %d", got)
	}
}

func TestHubDeliversOnlyToSubscribedOrganization(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(1)
	other := hub.Subscribe(2)

	hub.Broadcast(1, types.Event{Type: types.EventStatusUpdate})

	ev := <-sub.C
	if ev.OrganizationID != 1 {
		t.Fatalf("expected event for org 1, got %d", ev.OrganizationID)
	}

	select {
	case ev := <-other.C:
		t.Fatalf("org 2 subscriber received foreign event: %+v", ev)
	default:
	}
}

func TestHubStampsVersionAndOrganization(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(7)

	hub.Broadcast(7, types.Event{Type: types.EventServiceStatusChanged})

	ev := <-sub.C
	if ev.Version != types.EventSchemaVersion {
		t.Fatalf("expected schema version %d, got %d", types.EventSchemaVersion, ev.Version)
	}
	if ev.OrganizationID != 7 {
		t.Fatalf("expected organization 7, got %d", ev.OrganizationID)
	}
}

func TestHubDropsSlowSubscriberWithoutBlocking(t *testing.T) {
	hub := NewHub()
	slow := hub.Subscribe(1)

	// Never read; overflowing the buffer must drop the subscriber instead of
	// blocking the broadcaster.
	for i := 0; i < subscriberBuffer+2; i++ {
		hub.Broadcast(1, types.Event{Type: types.EventStatusUpdate})
	}

	if got := hub.SubscriberCount(1); got != 0 {
		t.Fatalf("expected slow subscriber to be dropped, count = %d", got)
	}

	// The buffered events are still readable, then the channel closes.
	received := 0
	for range slow.C {
		received++
	}

	if received != subscriberBuffer {
		t.Fatalf("expected %d buffered events before close, got %d", subscriberBuffer, received)
	}
}

func TestHubDropIsClassifiedAsDeliveryFailure(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	hub := NewHub()
	hub.Subscribe(1)

	for i := 0; i < subscriberBuffer+1; i++ {
		hub.Broadcast(1, types.Event{Type: types.EventStatusUpdate})
	}

	logged := buf.String()
	if !strings.Contains(logged, "fanout.broadcast") {
		t.Fatalf("expected the drop to be logged with its operation, got %q", logged)
	}
	if types.KindFanoutDelivery.String() != "fanout_delivery" {
		t.Fatalf("unexpected kind label: %s", types.KindFanoutDelivery)
	}
}

func TestHubUnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(1)

	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)

	if got := hub.SubscriberCount(1); got != 0 {
		t.Fatalf("expected no subscribers, got %d", got)
	}
}
