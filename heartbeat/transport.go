// Package heartbeat is the server transport capability consumed by the
// tracker core. Heartbeats are fire-and-forget: SendHeartbeat returns
// immediately and the outcome is delivered on the Results channel, to be
// drained into a later tick.
package heartbeat

// Report is the heartbeat body sent to the server.
// Battery is a pointer so "no reading yet" and a genuine 0.0 sample are
// distinguishable on the wire.
type Report struct {
	DeviceID   string         `json:"device_id"`
	PlayerRSSI map[string]int `json:"player_rssi,omitempty"`
	Battery    *float64       `json:"battery,omitempty"`
	Emergency  bool           `json:"emergency,omitempty"`
}

// Notification is one queued server message for the display.
type Notification struct {
	Message string `json:"message"`
	Type    string `json:"type"` // "info", "warning", "danger", "success"
}

// PingResponse is the server's answer to a heartbeat.
// Emergency is a pointer: older servers omit the field entirely, and an
// absent flag must not be read as "emergency over".
type PingResponse struct {
	Phase         string         `json:"phase"`
	Status        string         `json:"status"`
	Role          string         `json:"role"`
	Name          string         `json:"name"`
	InSafeZone    bool           `json:"in_safe_zone"`
	ConsentBadge  string         `json:"consent_badge"`
	Emergency     *bool          `json:"emergency"`
	EmergencyBy   string         `json:"emergency_by"`
	Notifications []Notification `json:"notifications"`
}

// Result is one heartbeat outcome. Response is nil when Success is false.
type Result struct {
	Success  bool
	Response *PingResponse
}

// Transport sends heartbeats and delivers their outcomes asynchronously.
type Transport interface {
	// SendHeartbeat starts one heartbeat. Never blocks.
	SendHeartbeat(report Report)

	// Results is the channel outcomes arrive on.
	Results() <-chan Result
}
