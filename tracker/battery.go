package tracker

// BatteryLevel is the thresholded band reported in the device snapshot.
// The core never calibrates the raw ADC reading, it only bands it.
type BatteryLevel string

const (
	BatteryFull     BatteryLevel = "full"
	BatteryOk       BatteryLevel = "ok"
	BatteryLow      BatteryLevel = "low"
	BatteryCritical BatteryLevel = "critical"
)

// BatteryThresholds are the band boundaries in volts.
// Defaults match a single-cell LiPo: full 4.2, low 3.3, critical 3.0.
type BatteryThresholds struct {
	FullVolts     float64
	LowVolts      float64
	CriticalVolts float64
}

// Classify bands a voltage reading
func (t BatteryThresholds) Classify(voltage float64) BatteryLevel {
	switch {
	case voltage <= t.CriticalVolts:
		return BatteryCritical
	case voltage <= t.LowVolts:
		return BatteryLow
	case voltage >= t.FullVolts:
		return BatteryFull
	default:
		return BatteryOk
	}
}
