package tracker

// EventType identifies an output event appended to the tick outbox
type EventType string

const (
	EventEmergencyTriggered  EventType = "emergency_triggered"
	EventConnectivityChanged EventType = "connectivity_changed"
	EventPeerAppeared        EventType = "peer_appeared"
	EventPeerLost            EventType = "peer_lost"
)

// Event is one output produced by a tick, consumed by the integration
// (display, server reporting, radio). The core never acts on its own
// events; what to do with an emergency, for example, is the caller's call.
type Event struct {
	Type     EventType          `json:"type"`
	AtMillis int64              `json:"at_millis"`
	PeerID   string             `json:"peer_id,omitempty"`
	Status   ConnectivityStatus `json:"status,omitempty"`
}
