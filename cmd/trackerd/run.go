package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/huntlink/config"
	"github.com/user/huntlink/heartbeat"
	"github.com/user/huntlink/logger"
	"github.com/user/huntlink/tracker"
	"github.com/user/huntlink/wire"
)

var (
	runServerURL string
	runDeviceID  string
	runRole      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single tracker until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if runServerURL != "" {
			cfg.Server.URL = runServerURL
		}
		if runDeviceID != "" {
			cfg.Device.ID = runDeviceID
		}
		if runRole != "" {
			cfg.Device.Role = runRole
		}

		deviceID, err := tracker.DeriveDeviceID(tracker.NewHardwareUUID(), cfg.Device.ID)
		if err != nil {
			return err
		}

		clock := tracker.NewMonotonicClock()
		core, err := tracker.New(paramsFromConfig(cfg, deviceID), clock.NowMillis())
		if err != nil {
			return err
		}

		// The radio driver is the hardware integration point; standalone
		// runs attach to a private simulated channel.
		channel := wire.NewChannel(wire.DefaultSimulationConfig())
		opts := tracker.RunnerOptions{
			Radio:        channel.Join(deviceID),
			TickInterval: time.Duration(cfg.Timing.TickIntervalMillis) * time.Millisecond,
			OnEvent: func(ev tracker.Event) {
				logger.Debug(deviceID, "event %s peer=%s status=%s", ev.Type, ev.PeerID, ev.Status)
			},
		}
		if cfg.Server.URL != "" {
			opts.Transport = heartbeat.NewHTTPTransport(cfg.Server.URL,
				time.Duration(cfg.Server.RequestTimeoutMillis)*time.Millisecond)
		} else {
			logger.Warn(deviceID, "no server URL configured, heartbeats disabled")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("tracker %s up (beacon %dms, ping %dms)\n",
			deviceID, cfg.Timing.BeaconIntervalMillis, cfg.Timing.PingIntervalMillis)
		tracker.NewRunner(core, clock, opts).Run(ctx)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runServerURL, "server", "", "game server base URL")
	runCmd.Flags().StringVar(&runDeviceID, "id", "", "device ID override")
	runCmd.Flags().StringVar(&runRole, "role", "", "initial role (pred, prey)")
}

func paramsFromConfig(cfg *config.Config, deviceID string) tracker.Params {
	return tracker.Params{
		DeviceID:                 deviceID,
		Role:                     cfg.Device.Role,
		BeaconIntervalMillis:     cfg.Timing.BeaconIntervalMillis,
		StalenessThresholdMillis: cfg.StalenessThresholdMillis(),
		HoldThresholdMillis:      cfg.Emergency.HoldTimeMillis,
		TapWindowMillis:          cfg.Emergency.TapWindowMillis,
		RequiredTapCount:         cfg.Emergency.TapCount,
		PingIntervalMillis:       cfg.Timing.PingIntervalMillis,
		TimeoutThresholdMillis:   cfg.Timing.ServerTimeoutMillis,
		MaxBackoffMillis:         cfg.Timing.MaxBackoffMillis,
		Battery: tracker.BatteryThresholds{
			FullVolts:     cfg.Battery.FullVolts,
			LowVolts:      cfg.Battery.LowVolts,
			CriticalVolts: cfg.Battery.CriticalVolts,
		},
	}
}
