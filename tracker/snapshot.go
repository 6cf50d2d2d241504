package tracker

// DeviceSnapshot is the single read-only aggregate exposed to the display
// and reporting layers. It is rebuilt wholesale at the end of every tick,
// after all components have processed their inputs, so its fields are
// always mutually consistent as of one tick boundary. Never mutated in
// place; latest value wins.
type DeviceSnapshot struct {
	Identity        string            `json:"identity"`
	Role            string            `json:"role"`
	Peers           []PeerRecord      `json:"peers"`
	EmergencyActive bool              `json:"emergency_active"`
	Connectivity    ConnectivityState `json:"connectivity"`
	BatteryVoltage  float64           `json:"battery_voltage"`
	BatteryLevel    BatteryLevel      `json:"battery_level"`
	TimestampMillis int64             `json:"timestamp_millis"`
}
