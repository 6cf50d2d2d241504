package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/huntlink/config"
	"github.com/user/huntlink/logger"
	"github.com/user/huntlink/tracker"
	"github.com/user/huntlink/wire"
)

var (
	swarmCount    int
	swarmDuration time.Duration
	swarmLoss     float64
	swarmSeed     int64
	swarmGesture  bool
)

// swarm runs several trackers on one simulated lossy channel and reports
// what each one saw. Useful for eyeballing peer discovery, staleness
// eviction, and the emergency gesture without hardware.
var swarmCmd = &cobra.Command{
	Use:   "swarm",
	Short: "Run N simulated trackers on a shared lossy channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if swarmCount < 2 {
			return fmt.Errorf("swarm needs at least 2 trackers, got %d", swarmCount)
		}

		simCfg := wire.DefaultSimulationConfig()
		simCfg.PacketLossRate = swarmLoss
		if swarmSeed != 0 {
			simCfg.Deterministic = true
			simCfg.Seed = swarmSeed
		}
		channel := wire.NewChannel(simCfg)
		clock := tracker.NewMonotonicClock()

		type device struct {
			id      string
			core    *tracker.Tracker
			buttons chan tracker.ButtonEdge
		}

		devices := make([]*device, 0, swarmCount)
		ctx, cancel := context.WithTimeout(cmd.Context(), swarmDuration)
		defer cancel()

		var wg sync.WaitGroup
		for i := 0; i < swarmCount; i++ {
			hw := tracker.NewHardwareUUID()
			id, err := tracker.DeriveDeviceID(hw, "")
			if err != nil {
				return err
			}
			core, err := tracker.New(paramsFromConfig(cfg, id), clock.NowMillis())
			if err != nil {
				return err
			}
			d := &device{id: id, core: core, buttons: make(chan tracker.ButtonEdge, 16)}
			devices = append(devices, d)

			runner := tracker.NewRunner(core, clock, tracker.RunnerOptions{
				Radio:        channel.Join(hw),
				Battery:      &drainingBattery{volts: 4.1},
				Buttons:      d.buttons,
				TickInterval: time.Duration(cfg.Timing.TickIntervalMillis) * time.Millisecond,
				OnEvent: func(ev tracker.Event) {
					logger.Info(d.id, "event %s peer=%s status=%s", ev.Type, ev.PeerID, ev.Status)
				},
			})
			wg.Add(1)
			go func() {
				defer wg.Done()
				runner.Run(ctx)
			}()
		}

		if swarmGesture {
			go injectGesture(ctx, clock, cfg, devices[0].buttons)
		}

		fmt.Printf("swarm of %d trackers for %s (loss %.1f%%)\n", swarmCount, swarmDuration, swarmLoss*100)
		wg.Wait()

		for _, d := range devices {
			snap := d.core.Snapshot()
			fmt.Printf("%s: %d peers, battery %s, emergency=%v\n",
				snap.Identity, len(snap.Peers), snap.BatteryLevel, snap.EmergencyActive)
			for _, p := range snap.Peers {
				fmt.Printf("  %s (%s) seq=%d rssi=%ddB last=%dms\n",
					p.DeviceID, p.Role, p.Sequence, p.RSSI, p.LastSeenMillis)
			}
		}
		return nil
	},
}

func init() {
	swarmCmd.Flags().IntVar(&swarmCount, "count", 4, "number of simulated trackers")
	swarmCmd.Flags().DurationVar(&swarmDuration, "duration", 20*time.Second, "how long to run")
	swarmCmd.Flags().Float64Var(&swarmLoss, "loss", 0.05, "packet loss rate")
	swarmCmd.Flags().Int64Var(&swarmSeed, "seed", 0, "deterministic channel seed (0 = random)")
	swarmCmd.Flags().BoolVar(&swarmGesture, "gesture", true, "perform the emergency gesture on the first tracker")
}

// injectGesture performs one qualifying hold-then-taps sequence on the
// given button stream.
func injectGesture(ctx context.Context, clock tracker.Clock, cfg *config.Config, buttons chan<- tracker.ButtonEdge) {
	press := func(down bool) {
		select {
		case buttons <- tracker.ButtonEdge{Pressed: down, AtMillis: clock.NowMillis()}:
		case <-ctx.Done():
		}
	}
	sleep := func(d time.Duration) bool {
		select {
		case <-time.After(d):
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !sleep(2 * time.Second) {
		return
	}
	press(true)
	if !sleep(time.Duration(cfg.Emergency.HoldTimeMillis+100) * time.Millisecond) {
		return
	}
	press(false)
	for i := 0; i < cfg.Emergency.TapCount; i++ {
		if !sleep(150 * time.Millisecond) {
			return
		}
		press(true)
		if !sleep(50 * time.Millisecond) {
			return
		}
		press(false)
	}
}

// drainingBattery fakes a LiPo slowly discharging
type drainingBattery struct {
	volts float64
}

func (b *drainingBattery) ReadVoltage() float64 {
	if b.volts > 3.0 {
		b.volts -= 0.0001
	}
	return b.volts
}
