// Package config loads the tracker's startup configuration: a TOML file
// plus HUNTLINK_* environment overrides. Every parameter is immutable for
// the process lifetime; an invariant violation refuses startup rather
// than letting the core run with undefined timing behavior.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Device    Device    `toml:"device"`
	Server    Server    `toml:"server"`
	Radio     Radio     `toml:"radio"`
	Timing    Timing    `toml:"timing"`
	Emergency Emergency `toml:"emergency"`
	Battery   Battery   `toml:"battery"`
}

type Device struct {
	// ID overrides the hardware-derived device ID when set
	ID   string `toml:"id"`
	Role string `toml:"role"` // "pred", "prey", or "" for server-assigned
}

type Server struct {
	URL string `toml:"url"` // e.g. "http://192.168.1.10:5000"

	// HTTP request timeout in milliseconds
	RequestTimeoutMillis int64 `toml:"request_timeout_millis"`
}

// Radio holds the LoRa channel parameters. The core never touches these;
// they are passed through to the radio driver at startup and must match
// on every device sharing the channel.
type Radio struct {
	FrequencyMHz    float64 `toml:"frequency_mhz"`    // region dependent: 915 (Americas), 868 (EU), 433 (Asia)
	SpreadingFactor int     `toml:"spreading_factor"` // 7-12
	BandwidthKHz    float64 `toml:"bandwidth_khz"`
	CodingRate      int     `toml:"coding_rate"` // 5-8
	SyncWord        int     `toml:"sync_word"`
	TxPowerDBm      int     `toml:"tx_power_dbm"` // 2-20
}

type Timing struct {
	BeaconIntervalMillis int64 `toml:"beacon_interval_millis"`
	PingIntervalMillis   int64 `toml:"ping_interval_millis"`

	// StalenessMultiplier times the beacon interval gives the peer
	// eviction threshold
	StalenessMultiplier int64 `toml:"staleness_multiplier"`

	ServerTimeoutMillis int64 `toml:"server_timeout_millis"`
	MaxBackoffMillis    int64 `toml:"max_backoff_millis"`
	TickIntervalMillis  int64 `toml:"tick_interval_millis"`
}

type Emergency struct {
	HoldTimeMillis  int64 `toml:"hold_time_millis"`
	TapCount        int   `toml:"tap_count"`
	TapWindowMillis int64 `toml:"tap_window_millis"`
}

type Battery struct {
	FullVolts     float64 `toml:"full_volts"`
	LowVolts      float64 `toml:"low_volts"`
	CriticalVolts float64 `toml:"critical_volts"`
	DividerRatio  float64 `toml:"divider_ratio"`
}

// Default returns the stock configuration (Heltec V3 class hardware,
// US frequency plan).
func Default() *Config {
	return &Config{
		Server: Server{
			RequestTimeoutMillis: 4000,
		},
		Radio: Radio{
			FrequencyMHz:    915.0,
			SpreadingFactor: 7,
			BandwidthKHz:    125.0,
			CodingRate:      5,
			SyncWord:        0x34,
			TxPowerDBm:      14,
		},
		Timing: Timing{
			BeaconIntervalMillis: 3000,
			PingIntervalMillis:   5000,
			StalenessMultiplier:  3,
			ServerTimeoutMillis:  45000,
			MaxBackoffMillis:     60000,
			TickIntervalMillis:   50,
		},
		Emergency: Emergency{
			HoldTimeMillis:  2000,
			TapCount:        3,
			TapWindowMillis: 2000,
		},
		Battery: Battery{
			FullVolts:     4.2,
			LowVolts:      3.3,
			CriticalVolts: 3.0,
			DividerRatio:  4.9,
		},
	}
}

// Load reads the config file at path (optional; "" uses defaults),
// applies environment overrides, and validates.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("HUNTLINK_DEVICE_ID"); v != "" {
		c.Device.ID = v
	}
	if v := os.Getenv("HUNTLINK_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
}

// Validate checks every startup invariant. Any violation here is fatal:
// the core must refuse to run rather than tick with broken timing.
func (c *Config) Validate() error {
	t := c.Timing
	if t.BeaconIntervalMillis <= 0 {
		return fmt.Errorf("timing.beacon_interval_millis must be positive, got %d", t.BeaconIntervalMillis)
	}
	if t.PingIntervalMillis <= 0 {
		return fmt.Errorf("timing.ping_interval_millis must be positive, got %d", t.PingIntervalMillis)
	}
	if t.StalenessMultiplier < 1 {
		return fmt.Errorf("timing.staleness_multiplier must be at least 1, got %d", t.StalenessMultiplier)
	}
	if t.ServerTimeoutMillis < t.PingIntervalMillis {
		return fmt.Errorf("timing.server_timeout_millis %d below ping interval %d", t.ServerTimeoutMillis, t.PingIntervalMillis)
	}
	if t.MaxBackoffMillis < t.PingIntervalMillis {
		return fmt.Errorf("timing.max_backoff_millis %d below ping interval %d", t.MaxBackoffMillis, t.PingIntervalMillis)
	}
	if t.TickIntervalMillis <= 0 {
		return fmt.Errorf("timing.tick_interval_millis must be positive, got %d", t.TickIntervalMillis)
	}

	e := c.Emergency
	if e.HoldTimeMillis <= 0 {
		return fmt.Errorf("emergency.hold_time_millis must be positive, got %d", e.HoldTimeMillis)
	}
	if e.TapCount < 1 {
		return fmt.Errorf("emergency.tap_count must be at least 1, got %d", e.TapCount)
	}
	if e.TapWindowMillis <= 0 {
		return fmt.Errorf("emergency.tap_window_millis must be positive, got %d", e.TapWindowMillis)
	}

	r := c.Radio
	if r.FrequencyMHz <= 0 {
		return fmt.Errorf("radio.frequency_mhz must be positive, got %v", r.FrequencyMHz)
	}
	if r.SpreadingFactor < 7 || r.SpreadingFactor > 12 {
		return fmt.Errorf("radio.spreading_factor must be 7-12, got %d", r.SpreadingFactor)
	}
	if r.CodingRate < 5 || r.CodingRate > 8 {
		return fmt.Errorf("radio.coding_rate must be 5-8, got %d", r.CodingRate)
	}
	if r.TxPowerDBm < 2 || r.TxPowerDBm > 20 {
		return fmt.Errorf("radio.tx_power_dbm must be 2-20, got %d", r.TxPowerDBm)
	}

	b := c.Battery
	if !(b.CriticalVolts < b.LowVolts && b.LowVolts < b.FullVolts) {
		return fmt.Errorf("battery thresholds must satisfy critical < low < full, got %v/%v/%v",
			b.CriticalVolts, b.LowVolts, b.FullVolts)
	}
	return nil
}

// StalenessThresholdMillis is the peer eviction threshold
func (c *Config) StalenessThresholdMillis() int64 {
	return c.Timing.BeaconIntervalMillis * c.Timing.StalenessMultiplier
}
