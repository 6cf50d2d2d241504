package tracker

import (
	"fmt"

	"github.com/user/huntlink/logger"
	"github.com/user/huntlink/wire"
)

// Params are the immutable startup parameters the core consumes.
// They come from the config layer, already validated there; validate()
// re-checks the invariants so the core refuses to run on bad timing
// values no matter who constructed it.
type Params struct {
	DeviceID string
	Role     string
	Badge    string

	BeaconIntervalMillis     int64
	StalenessThresholdMillis int64

	HoldThresholdMillis int64
	TapWindowMillis     int64
	RequiredTapCount    int

	PingIntervalMillis     int64
	TimeoutThresholdMillis int64
	MaxBackoffMillis       int64

	Battery BatteryThresholds
}

func (p Params) validate() error {
	if p.DeviceID == "" {
		return fmt.Errorf("device id is empty")
	}
	if p.BeaconIntervalMillis <= 0 {
		return fmt.Errorf("beacon interval must be positive, got %d", p.BeaconIntervalMillis)
	}
	if p.StalenessThresholdMillis < p.BeaconIntervalMillis {
		return fmt.Errorf("staleness threshold %d below beacon interval %d", p.StalenessThresholdMillis, p.BeaconIntervalMillis)
	}
	if p.HoldThresholdMillis <= 0 {
		return fmt.Errorf("hold threshold must be positive, got %d", p.HoldThresholdMillis)
	}
	if p.TapWindowMillis <= 0 {
		return fmt.Errorf("tap window must be positive, got %d", p.TapWindowMillis)
	}
	if p.RequiredTapCount < 1 {
		return fmt.Errorf("required tap count must be at least 1, got %d", p.RequiredTapCount)
	}
	if p.PingIntervalMillis <= 0 {
		return fmt.Errorf("ping interval must be positive, got %d", p.PingIntervalMillis)
	}
	if p.TimeoutThresholdMillis < p.PingIntervalMillis {
		return fmt.Errorf("timeout threshold %d below ping interval %d", p.TimeoutThresholdMillis, p.PingIntervalMillis)
	}
	if p.MaxBackoffMillis < p.PingIntervalMillis {
		return fmt.Errorf("max backoff %d below ping interval %d", p.MaxBackoffMillis, p.PingIntervalMillis)
	}
	return nil
}

// Inputs are the raw inputs pending for one tick: packets heard since the
// last tick, debounced button edges, heartbeat outcomes, and at most one
// battery sample.
type Inputs struct {
	Packets          []wire.Received
	Edges            []ButtonEdge
	HeartbeatResults []bool
	BatteryVoltage   *float64
}

// Outputs are what one tick produced: frames to transmit, whether a
// heartbeat is due, and events for the integration.
type Outputs struct {
	Transmit     [][]byte
	HeartbeatDue bool
	Events       []Event
}

// Tracker is the firmware core: one cooperative tick loop over the beacon
// protocol, the gesture recognizer, and the connectivity watchdog, with a
// snapshot projection at the end. Single-owner state, no locking; the
// caller must drive Tick from one goroutine.
type Tracker struct {
	params   Params
	beacon   *BeaconProtocol
	gesture  *GestureRecognizer
	watchdog *ConnectivityWatchdog

	emergencyActive bool
	batteryVoltage  float64
	snapshot        DeviceSnapshot
}

// New builds a tracker core. now is the construction time on the same
// clock that will drive Tick.
func New(params Params, now int64) (*Tracker, error) {
	if err := params.validate(); err != nil {
		return nil, fmt.Errorf("invalid tracker params: %w", err)
	}
	t := &Tracker{
		params:   params,
		beacon:   NewBeaconProtocol(params.DeviceID, params.BeaconIntervalMillis, params.StalenessThresholdMillis),
		gesture:  NewGestureRecognizer(params.HoldThresholdMillis, params.TapWindowMillis, params.RequiredTapCount),
		watchdog: NewConnectivityWatchdog(params.PingIntervalMillis, params.TimeoutThresholdMillis, params.MaxBackoffMillis, now),
	}
	t.beacon.SetRole(params.Role)
	t.beacon.SetBadge(params.Badge)
	t.project(now)
	return t, nil
}

// Tick runs one scheduler pass in the fixed component order: beacon
// (receive, broadcast, evict), gesture, watchdog, then projection.
func (t *Tracker) Tick(now int64, in Inputs) Outputs {
	var out Outputs

	for _, pkt := range in.Packets {
		rec, isNew, ok := t.beacon.HandlePacket(pkt, now)
		if !ok {
			logger.Trace(t.params.DeviceID, "discarded packet (%d bytes)", len(pkt.Data))
			continue
		}
		logger.Debug(t.params.DeviceID, "RX from %s (%s) seq=%d rssi=%ddB", rec.DeviceID, rec.Role, rec.Sequence, rec.RSSI)
		if isNew {
			out.Events = append(out.Events, Event{Type: EventPeerAppeared, AtMillis: now, PeerID: rec.DeviceID})
		}
	}
	if frame := t.beacon.Tick(now); frame != nil {
		out.Transmit = append(out.Transmit, frame)
	}
	for _, id := range t.beacon.EvictStale(now) {
		logger.Debug(t.params.DeviceID, "peer %s went stale", id)
		out.Events = append(out.Events, Event{Type: EventPeerLost, AtMillis: now, PeerID: id})
	}

	for _, edge := range in.Edges {
		if t.gesture.HandleEdge(edge) {
			logger.Info(t.params.DeviceID, "emergency gesture completed")
			t.emergencyActive = true
			out.Events = append(out.Events, Event{Type: EventEmergencyTriggered, AtMillis: now})
		}
	}
	t.gesture.Tick(now)

	for _, success := range in.HeartbeatResults {
		if t.watchdog.HandleResult(success, now) {
			st := t.watchdog.State().Status
			logger.Info(t.params.DeviceID, "connectivity -> %s", st)
			out.Events = append(out.Events, Event{Type: EventConnectivityChanged, AtMillis: now, Status: st})
		}
	}
	out.HeartbeatDue = t.watchdog.Tick(now)

	if in.BatteryVoltage != nil {
		t.batteryVoltage = *in.BatteryVoltage
	}

	t.project(now)
	return out
}

func (t *Tracker) project(now int64) {
	t.snapshot = DeviceSnapshot{
		Identity:        t.params.DeviceID,
		Role:            t.beacon.Role(),
		Peers:           t.beacon.Peers(),
		EmergencyActive: t.emergencyActive,
		Connectivity:    t.watchdog.State(),
		BatteryVoltage:  t.batteryVoltage,
		BatteryLevel:    t.params.Battery.Classify(t.batteryVoltage),
		TimestampMillis: now,
	}
}

// Snapshot returns the projection from the most recent tick
func (t *Tracker) Snapshot() DeviceSnapshot {
	return t.snapshot
}

// ClearEmergency unlatches the emergency flag. Driven by the integration,
// typically when the server acknowledges or resolves the emergency.
func (t *Tracker) ClearEmergency() {
	if t.emergencyActive {
		logger.Info(t.params.DeviceID, "emergency cleared")
	}
	t.emergencyActive = false
}

// SetRole forwards a server-assigned role into outgoing beacons
func (t *Tracker) SetRole(role string) {
	t.beacon.SetRole(role)
}

// SetBadge forwards a server-assigned consent badge into outgoing beacons
func (t *Tracker) SetBadge(badge string) {
	t.beacon.SetBadge(badge)
}

// RetryIntervalMillis exposes the watchdog's effective heartbeat interval
func (t *Tracker) RetryIntervalMillis() int64 {
	return t.watchdog.RetryIntervalMillis()
}
