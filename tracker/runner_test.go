package tracker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/user/huntlink/heartbeat"
	"github.com/user/huntlink/wire"
)

// fakeTransport records heartbeats and lets the test inject results
type fakeTransport struct {
	mu      sync.Mutex
	reports []heartbeat.Report
	results chan heartbeat.Result
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{results: make(chan heartbeat.Result, 8)}
}

func (f *fakeTransport) SendHeartbeat(report heartbeat.Report) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, report)
}

func (f *fakeTransport) Results() <-chan heartbeat.Result {
	return f.results
}

func (f *fakeTransport) reportCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reports)
}

func (f *fakeTransport) lastReport() heartbeat.Report {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reports[len(f.reports)-1]
}

// TestRunnersDiscoverEachOther runs two full runners on a perfect channel
// and checks both peer tables converge
func TestRunnersDiscoverEachOther(t *testing.T) {
	channel := wire.NewChannel(wire.PerfectSimulationConfig())
	clock := NewMonotonicClock()

	type rig struct {
		core   *Tracker
		runner *Runner
	}
	build := func(id string) rig {
		core, err := New(testParams(id), clock.NowMillis())
		if err != nil {
			t.Fatalf("failed to build %s: %v", id, err)
		}
		runner := NewRunner(core, clock, RunnerOptions{
			Radio:        channel.Join(id),
			TickInterval: 5 * time.Millisecond,
		})
		return rig{core: core, runner: runner}
	}
	a := build("TAAAA")
	b := build("TBBBB")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	var wg sync.WaitGroup
	for _, r := range []rig{a, b} {
		wg.Add(1)
		go func(r rig) {
			defer wg.Done()
			r.runner.Run(ctx)
		}(r)
	}
	wg.Wait()

	snapA := a.core.Snapshot()
	snapB := b.core.Snapshot()
	if len(snapA.Peers) != 1 || snapA.Peers[0].DeviceID != "TBBBB" {
		t.Errorf("A should see TBBBB, got %+v", snapA.Peers)
	}
	if len(snapB.Peers) != 1 || snapB.Peers[0].DeviceID != "TAAAA" {
		t.Errorf("B should see TAAAA, got %+v", snapB.Peers)
	}
}

// TestRunnerHeartbeatFlow verifies the runner launches heartbeats and
// feeds results back into the core
func TestRunnerHeartbeatFlow(t *testing.T) {
	channel := wire.NewChannel(wire.PerfectSimulationConfig())
	clock := NewMonotonicClock()
	transport := newFakeTransport()

	core, err := New(testParams("T0001"), clock.NowMillis())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(core, clock, RunnerOptions{
		Radio:        channel.Join("T0001"),
		Transport:    transport,
		TickInterval: 5 * time.Millisecond,
	})

	transport.results <- heartbeat.Result{Success: true, Response: &heartbeat.PingResponse{Role: "prey"}}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() {
		runner.Run(ctx)
		close(done)
	}()
	<-done

	if transport.reportCount() == 0 {
		t.Fatal("expected at least one heartbeat report")
	}
	if got := transport.lastReport().DeviceID; got != "T0001" {
		t.Errorf("expected reports for T0001, got %s", got)
	}

	snap := core.Snapshot()
	if snap.Connectivity.Status != StatusConnected {
		t.Errorf("expected connected after an injected success, got %s", snap.Connectivity.Status)
	}
	if snap.Role != "prey" {
		t.Errorf("expected server-assigned role in beacons, got %s", snap.Role)
	}
}

// TestRunnerEmergencyReportsImmediately verifies a completed gesture
// produces an out-of-cadence emergency heartbeat
func TestRunnerEmergencyReportsImmediately(t *testing.T) {
	channel := wire.NewChannel(wire.PerfectSimulationConfig())
	clock := NewMonotonicClock()
	transport := newFakeTransport()
	buttons := make(chan ButtonEdge, 16)

	params := testParams("T0001")
	params.HoldThresholdMillis = 30
	params.TapWindowMillis = 100
	params.RequiredTapCount = 2
	// Long ping interval so only the first tick and the emergency report
	params.PingIntervalMillis = 60000
	params.TimeoutThresholdMillis = 60000
	params.MaxBackoffMillis = 60000

	core, err := New(params, clock.NowMillis())
	if err != nil {
		t.Fatal(err)
	}

	var events []Event
	var evMu sync.Mutex
	runner := NewRunner(core, clock, RunnerOptions{
		Radio:        channel.Join("T0001"),
		Transport:    transport,
		Buttons:      buttons,
		TickInterval: 5 * time.Millisecond,
		OnEvent: func(ev Event) {
			evMu.Lock()
			events = append(events, ev)
			evMu.Unlock()
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() {
		runner.Run(ctx)
		close(done)
	}()

	// Qualifying hold then two quick taps, on the shared clock
	start := clock.NowMillis()
	buttons <- ButtonEdge{Pressed: true, AtMillis: start}
	time.Sleep(50 * time.Millisecond)
	now := clock.NowMillis()
	buttons <- ButtonEdge{Pressed: false, AtMillis: now}
	buttons <- ButtonEdge{Pressed: true, AtMillis: now + 1}
	buttons <- ButtonEdge{Pressed: false, AtMillis: now + 2}
	buttons <- ButtonEdge{Pressed: true, AtMillis: now + 3}
	<-done

	if !core.Snapshot().EmergencyActive {
		t.Fatal("expected emergency latched")
	}

	var triggered bool
	evMu.Lock()
	for _, ev := range events {
		if ev.Type == EventEmergencyTriggered {
			triggered = true
		}
	}
	evMu.Unlock()
	if !triggered {
		t.Fatal("expected an emergency_triggered event")
	}

	var emergencyReported bool
	transport.mu.Lock()
	for _, rep := range transport.reports {
		if rep.Emergency {
			emergencyReported = true
		}
	}
	transport.mu.Unlock()
	if !emergencyReported {
		t.Error("expected an emergency-flagged heartbeat")
	}
}

// TestResponseWithoutEmergencyFieldKeepsLatch verifies a server that
// omits the emergency flag from its ping body does not unlatch a live
// emergency; only an explicit false clears it
func TestResponseWithoutEmergencyFieldKeepsLatch(t *testing.T) {
	core := newTestTracker(t, "T0001")
	core.Tick(0, Inputs{Edges: []ButtonEdge{press(0)}})
	core.Tick(2000, Inputs{Edges: []ButtonEdge{release(2000)}})
	core.Tick(2900, Inputs{Edges: []ButtonEdge{
		press(2100), release(2150),
		press(2300), release(2350),
		press(2850), release(2900),
	}})
	if !core.Snapshot().EmergencyActive {
		t.Fatal("expected emergency latched before any response")
	}

	runner := NewRunner(core, NewMonotonicClock(), RunnerOptions{})

	runner.applyResponse(&heartbeat.PingResponse{Role: "prey"})
	if !core.Snapshot().EmergencyActive {
		t.Fatal("a response with no emergency field must not unlatch")
	}

	live := true
	runner.applyResponse(&heartbeat.PingResponse{Emergency: &live})
	if !core.Snapshot().EmergencyActive {
		t.Fatal("emergency=true must keep the latch")
	}

	over := false
	runner.applyResponse(&heartbeat.PingResponse{Emergency: &over})
	if core.Snapshot().EmergencyActive {
		t.Error("expected explicit emergency=false to unlatch")
	}
}

// fixedBattery reads a constant voltage
type fixedBattery struct{ volts float64 }

func (b fixedBattery) ReadVoltage() float64 { return b.volts }

// TestReportBatteryField verifies the heartbeat body carries a battery
// reading only when a sensor is wired, and that a reading of 0.0 still
// goes out instead of being elided
func TestReportBatteryField(t *testing.T) {
	core := newTestTracker(t, "T0001")
	clock := NewMonotonicClock()

	bare := NewRunner(core, clock, RunnerOptions{})
	if rep := bare.buildReport(false); rep.Battery != nil {
		t.Errorf("no sensor wired, expected no battery in the report, got %v", *rep.Battery)
	}

	sensed := NewRunner(core, clock, RunnerOptions{Battery: fixedBattery{volts: 0}})
	rep := sensed.buildReport(false)
	if rep.Battery == nil {
		t.Fatal("sensor wired, expected a battery reading in the report")
	}
	if *rep.Battery != 0 {
		t.Errorf("expected the 0.0 reading preserved, got %v", *rep.Battery)
	}
}
