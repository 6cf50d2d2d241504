package tracker

import "time"

// Clock is the monotonic millisecond clock driving every timer in the core.
// No wall-clock time is used anywhere, so NTP or RTC adjustments cannot
// disturb beacon, gesture, or heartbeat timing.
type Clock interface {
	NowMillis() int64
}

// MonotonicClock counts milliseconds since construction.
type MonotonicClock struct {
	start time.Time
}

func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

func (c *MonotonicClock) NowMillis() int64 {
	return time.Since(c.start).Milliseconds()
}

// ManualClock is a hand-advanced clock for tests and replay scenarios.
type ManualClock struct {
	now int64
}

func (c *ManualClock) NowMillis() int64 {
	return c.now
}

// Set jumps the clock to an absolute millisecond value
func (c *ManualClock) Set(ms int64) {
	c.now = ms
}

// Advance moves the clock forward by ms milliseconds
func (c *ManualClock) Advance(ms int64) {
	c.now += ms
}
