package tracker

// The emergency gesture is hold-then-taps: keep the button down for the
// hold threshold, then tap it the required number of times inside the tap
// window. Deliberately hard to do by accident, easy to do on purpose.

// GesturePhase is the recognizer's state machine phase
type GesturePhase int

const (
	PhaseIdle GesturePhase = iota
	PhaseHolding
	PhaseCountingTaps
)

func (p GesturePhase) String() string {
	switch p {
	case PhaseHolding:
		return "holding"
	case PhaseCountingTaps:
		return "counting-taps"
	default:
		return "idle"
	}
}

// ButtonEdge is one debounced press or release event with its timestamp.
// Debouncing is a hardware concern upstream of the recognizer.
type ButtonEdge struct {
	Pressed  bool
	AtMillis int64
}

// GestureRecognizer detects the emergency gesture from edge events.
// All timing comparisons happen against the edge timestamps and the tick
// clock; an abandoned episode simply times out on the next advance.
type GestureRecognizer struct {
	holdThresholdMillis int64
	tapWindowMillis     int64
	requiredTaps        int

	phase           GesturePhase
	buttonDown      bool
	holdStartedAt   int64
	tapCount        int
	windowStartedAt int64
}

func NewGestureRecognizer(holdThresholdMillis, tapWindowMillis int64, requiredTaps int) *GestureRecognizer {
	return &GestureRecognizer{
		holdThresholdMillis: holdThresholdMillis,
		tapWindowMillis:     tapWindowMillis,
		requiredTaps:        requiredTaps,
	}
}

// Phase returns the current state machine phase
func (g *GestureRecognizer) Phase() GesturePhase {
	return g.phase
}

// TapCount returns the taps counted so far in the current episode
func (g *GestureRecognizer) TapCount() int {
	return g.tapCount
}

// Tick advances time-based transitions: a held button crossing the hold
// threshold opens the tap window, and an expired tap window discards the
// partial episode. Taps themselves only arrive via HandleEdge.
func (g *GestureRecognizer) Tick(now int64) {
	g.advance(now)
}

// HandleEdge consumes one debounced edge event. Returns true exactly when
// the edge completes the gesture, at most once per episode; the recognizer
// then re-arms through Idle immediately.
func (g *GestureRecognizer) HandleEdge(e ButtonEdge) bool {
	g.advance(e.AtMillis)
	wasDown := g.buttonDown
	g.buttonDown = e.Pressed

	switch g.phase {
	case PhaseIdle:
		if e.Pressed && !wasDown {
			g.phase = PhaseHolding
			g.holdStartedAt = e.AtMillis
		}

	case PhaseHolding:
		// advance() already promoted a qualifying hold, so a release seen
		// here means the button came up early: not a qualifying hold.
		if !e.Pressed {
			g.reset()
		}

	case PhaseCountingTaps:
		// advance() already closed an expired window, so any press edge
		// seen here is inside the window. Only press edges count.
		if !e.Pressed || wasDown {
			return false
		}
		g.tapCount++
		if g.tapCount == g.requiredTaps {
			g.reset()
			return true
		}
	}
	return false
}

func (g *GestureRecognizer) advance(now int64) {
	switch g.phase {
	case PhaseHolding:
		if g.buttonDown && now-g.holdStartedAt >= g.holdThresholdMillis {
			// Window opens at the instant the hold qualified, so tap
			// timing does not depend on tick cadence.
			g.phase = PhaseCountingTaps
			g.tapCount = 0
			g.windowStartedAt = g.holdStartedAt + g.holdThresholdMillis
		}
	case PhaseCountingTaps:
		if now-g.windowStartedAt > g.tapWindowMillis {
			g.reset()
		}
	}
}

func (g *GestureRecognizer) reset() {
	g.phase = PhaseIdle
	g.holdStartedAt = 0
	g.tapCount = 0
	g.windowStartedAt = 0
}
