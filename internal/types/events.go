package types

// Event types pushed over the realtime channel.
const (
	EventStatusUpdate         = "status_update"
	EventServiceStatusChanged = "service_status_changed"
	EventOverallStatusChanged = "overall_status_changed"
)

// EventSchemaVersion is bumped whenever the wire shape of Event changes.
const EventSchemaVersion = 1

// Event is the fixed, versioned schema delivered to realtime subscribers.
// Seq is a per-organization strictly increasing sequence number; clients
// apply events only when Seq is newer than the last one they saw.
type Event struct {
	Type           string `json:"type"`
	Version        int    `json:"version"`
	OrganizationID uint   `json:"organization_id"`
	Seq            uint64 `json:"seq"`

	// Set for service_status_changed events.
	ServiceID   uint   `json:"service_id,omitempty"`
	ServiceName string `json:"service_name,omitempty"`
	OldStatus   string `json:"old_status,omitempty"`
	NewStatus   string `json:"new_status,omitempty"`

	// Set for status_update and overall_status_changed events.
	Snapshot *StatusSnapshot `json:"snapshot,omitempty"`
}
