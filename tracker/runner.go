package tracker

import (
	"context"
	"time"

	"github.com/user/huntlink/heartbeat"
	"github.com/user/huntlink/logger"
	"github.com/user/huntlink/wire"
)

// BatterySensor is the battery capability: one uncalibrated voltage
// reading per poll.
type BatterySensor interface {
	ReadVoltage() float64
}

// RunnerOptions wires the core to its capabilities. Radio is required;
// the rest may be nil (headless tests, no server, no battery sense).
type RunnerOptions struct {
	Radio     wire.Link
	Transport heartbeat.Transport
	Battery   BatterySensor
	Buttons   <-chan ButtonEdge

	// TickInterval is the scheduler cadence. Default 50ms.
	TickInterval time.Duration

	// MaxPacketsPerTick bounds radio draining so one noisy tick cannot
	// starve the loop. Default 16.
	MaxPacketsPerTick int

	// OnEvent, when set, observes every event the core emits.
	OnEvent func(Event)
}

// Runner drives the pure tick core against real capabilities: it polls
// the radio, drains button edges and heartbeat results, samples the
// battery, transmits outbound frames, and launches heartbeats. All core
// mutation stays on the Run goroutine.
type Runner struct {
	tracker *Tracker
	clock   Clock
	opts    RunnerOptions
}

func NewRunner(t *Tracker, clock Clock, opts RunnerOptions) *Runner {
	if opts.TickInterval <= 0 {
		opts.TickInterval = 50 * time.Millisecond
	}
	if opts.MaxPacketsPerTick <= 0 {
		opts.MaxPacketsPerTick = 16
	}
	return &Runner{tracker: t, clock: clock, opts: opts}
}

// Run ticks until the context is cancelled.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.opts.TickInterval)
	defer ticker.Stop()

	logger.Info(r.tracker.params.DeviceID, "tracker running, tick every %s", r.opts.TickInterval)
	for {
		select {
		case <-ctx.Done():
			logger.Info(r.tracker.params.DeviceID, "tracker stopped: %v", ctx.Err())
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *Runner) tick() {
	now := r.clock.NowMillis()
	in := r.gather()
	out := r.tracker.Tick(now, in)

	for _, frame := range out.Transmit {
		if !r.opts.Radio.Send(frame) {
			logger.Warn(r.tracker.params.DeviceID, "radio TX failed (%d bytes)", len(frame))
		}
	}

	emergency := false
	for _, ev := range out.Events {
		if ev.Type == EventEmergencyTriggered {
			emergency = true
		}
		if r.opts.OnEvent != nil {
			r.opts.OnEvent(ev)
		}
	}

	// An emergency is reported immediately rather than waiting for the
	// next scheduled heartbeat.
	if r.opts.Transport != nil && (out.HeartbeatDue || emergency) {
		r.opts.Transport.SendHeartbeat(r.buildReport(emergency))
	}
}

func (r *Runner) gather() Inputs {
	var in Inputs

	for i := 0; i < r.opts.MaxPacketsPerTick; i++ {
		pkt, ok := r.opts.Radio.TryReceive()
		if !ok {
			break
		}
		in.Packets = append(in.Packets, pkt)
	}

	if r.opts.Buttons != nil {
		for {
			select {
			case edge := <-r.opts.Buttons:
				in.Edges = append(in.Edges, edge)
				continue
			default:
			}
			break
		}
	}

	if r.opts.Transport != nil {
		for {
			select {
			case res := <-r.opts.Transport.Results():
				in.HeartbeatResults = append(in.HeartbeatResults, res.Success)
				if res.Success && res.Response != nil {
					r.applyResponse(res.Response)
				}
				continue
			default:
			}
			break
		}
	}

	if r.opts.Battery != nil {
		v := r.opts.Battery.ReadVoltage()
		in.BatteryVoltage = &v
	}
	return in
}

// applyResponse folds server-assigned state into the core before the tick
// that consumes the result.
func (r *Runner) applyResponse(resp *heartbeat.PingResponse) {
	r.tracker.SetRole(resp.Role)
	r.tracker.SetBadge(resp.ConsentBadge)
	// Only an explicit emergency=false unlatches; servers that do not
	// report emergency state leave the latch alone.
	if resp.Emergency != nil && !*resp.Emergency {
		r.tracker.ClearEmergency()
	}
	for _, n := range resp.Notifications {
		logger.Info(r.tracker.params.DeviceID, "server [%s]: %s", n.Type, n.Message)
	}
}

func (r *Runner) buildReport(emergency bool) heartbeat.Report {
	snap := r.tracker.Snapshot()
	rssi := make(map[string]int, len(snap.Peers))
	for _, p := range snap.Peers {
		rssi[p.DeviceID] = p.RSSI
	}
	rep := heartbeat.Report{
		DeviceID:   snap.Identity,
		PlayerRSSI: rssi,
		Emergency:  emergency || snap.EmergencyActive,
	}
	if r.opts.Battery != nil {
		v := snap.BatteryVoltage
		rep.Battery = &v
	}
	return rep
}
