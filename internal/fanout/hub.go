package fanout

import (
	"log"
	"sync"

	"github.com/beacon-dev/beacon/internal/types"
	"github.com/google/uuid"
)

// subscriberBuffer bounds how far one subscriber may lag. A subscriber whose
// buffer is full is dropped so a slow connection can never back-pressure a
// mutation; the dropped client reconnects and re-fetches the snapshot.
const subscriberBuffer = 16

// Subscription is an explicit per-connection handle. Events arrive on C in
// the order they were broadcast for the organization; C is closed when the
// subscriber is unsubscribed or dropped.
type Subscription struct {
	ID    string
	OrgID uint
	C     chan types.Event
}

// Hub fans organization events out to realtime subscribers. It owns the
// per-organization sequence counters, so every event leaves the hub with a
// strictly increasing, gap-free Seq within its organization.
type Hub struct {
	mu   sync.Mutex
	subs map[uint]map[string]*Subscription
	seq  map[uint]uint64
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[uint]map[string]*Subscription),
		seq:  make(map[uint]uint64),
	}
}

// Subscribe registers a new connection on the organization's channel.
func (h *Hub) Subscribe(orgID uint) *Subscription {
	sub := &Subscription{
		ID:    uuid.NewString(),
		OrgID: orgID,
		C:     make(chan types.Event, subscriberBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[orgID] == nil {
		h.subs[orgID] = make(map[string]*Subscription)
	}
	h.subs[orgID][sub.ID] = sub

	return sub
}

// Unsubscribe removes the connection and closes its channel. Safe to call
// more than once.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub)
}

func (h *Hub) removeLocked(sub *Subscription) {
	subs, exists := h.subs[sub.OrgID]
	if !exists {
		return
	}

	if _, exists := subs[sub.ID]; !exists {
		return
	}

	delete(subs, sub.ID)
	if len(subs) == 0 {
		delete(h.subs, sub.OrgID)
	}

	close(sub.C)
}

// Broadcast stamps ev with the organization's next sequence number and
// delivers it to every current subscriber without blocking. Returns the
// assigned sequence number.
func (h *Hub) Broadcast(orgID uint, ev types.Event) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq[orgID]++
	ev.Seq = h.seq[orgID]
	ev.Version = types.EventSchemaVersion
	ev.OrganizationID = orgID

	for _, sub := range h.subs[orgID] {
		select {
		case sub.C <- ev:
		default:
			// Buffer full: this subscriber is too slow to keep ordering
			// guarantees, reset it instead of waiting.
			dropErr := types.NewAppError(types.KindFanoutDelivery, "fanout.broadcast",
				"subscriber "+sub.ID+" lagging beyond its buffer, dropping", nil)
			log.Printf("Organization %d: %v", orgID, dropErr)
			h.removeLocked(sub)
		}
	}

	return ev.Seq
}

// Sequence returns the last sequence number issued for the organization.
func (h *Hub) Sequence(orgID uint) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq[orgID]
}

// SubscriberCount returns how many connections are subscribed to the
// organization.
func (h *Hub) SubscriberCount(orgID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[orgID])
}

// Global hub instance, wired at startup.
var globalHub *Hub

// Initialize creates the global hub.
func Initialize() *Hub {
	globalHub = NewHub()
	return globalHub
}

// Subscribe adds a connection to the global hub.
func Subscribe(orgID uint) *Subscription {
	return globalHub.Subscribe(orgID)
}

// Unsubscribe removes a connection from the global hub.
func Unsubscribe(sub *Subscription) {
	globalHub.Unsubscribe(sub)
}

// Broadcast publishes an event through the global hub.
func Broadcast(orgID uint, ev types.Event) uint64 {
	return globalHub.Broadcast(orgID, ev)
}
