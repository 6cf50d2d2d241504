package tracker

// ConnectivityStatus is the watchdog's view of the server link
type ConnectivityStatus string

const (
	StatusConnected   ConnectivityStatus = "connected"
	StatusDegraded    ConnectivityStatus = "degraded"
	StatusUnreachable ConnectivityStatus = "unreachable"
)

// ConnectivityState is the watchdog's readable state, copied into the
// device snapshot each tick.
type ConnectivityState struct {
	Status              ConnectivityStatus `json:"status"`
	LastSuccessMillis   int64              `json:"last_success_millis"`
	LastAttemptMillis   int64              `json:"last_attempt_millis"`
	ConsecutiveFailures int                `json:"consecutive_failures"`
}

// ConnectivityWatchdog schedules server heartbeats and classifies the
// link from their results. Heartbeats are fire-and-forget: Tick says one
// is due, the transport runs it elsewhere, and the outcome comes back as
// a later tick input via HandleResult.
type ConnectivityWatchdog struct {
	pingIntervalMillis int64
	timeoutMillis      int64
	maxBackoffMillis   int64

	currentIntervalMillis int64
	state                 ConnectivityState
}

// NewConnectivityWatchdog creates the watchdog. Until the first result
// arrives the link is Degraded, with the success clock primed to now so
// the Unreachable transition is measured from startup.
func NewConnectivityWatchdog(pingIntervalMillis, timeoutMillis, maxBackoffMillis int64, now int64) *ConnectivityWatchdog {
	return &ConnectivityWatchdog{
		pingIntervalMillis:    pingIntervalMillis,
		timeoutMillis:         timeoutMillis,
		maxBackoffMillis:      maxBackoffMillis,
		currentIntervalMillis: pingIntervalMillis,
		state: ConnectivityState{
			Status:            StatusDegraded,
			LastSuccessMillis: now,
			LastAttemptMillis: now - pingIntervalMillis,
		},
	}
}

// Tick reports whether a heartbeat is due and records the attempt time
func (w *ConnectivityWatchdog) Tick(now int64) bool {
	if now-w.state.LastAttemptMillis < w.currentIntervalMillis {
		return false
	}
	w.state.LastAttemptMillis = now
	return true
}

// HandleResult consumes one heartbeat outcome. Returns true when the
// status changed. Success always restores Connected and resets the retry
// interval; sustained failure walks Degraded into Unreachable once the
// timeout threshold since the last success has passed, doubling the retry
// interval up to the cap while Unreachable.
func (w *ConnectivityWatchdog) HandleResult(success bool, now int64) bool {
	prev := w.state.Status
	if success {
		w.state.Status = StatusConnected
		w.state.LastSuccessMillis = now
		w.state.ConsecutiveFailures = 0
		w.currentIntervalMillis = w.pingIntervalMillis
		return prev != StatusConnected
	}

	w.state.ConsecutiveFailures++
	if now-w.state.LastSuccessMillis <= w.timeoutMillis {
		w.state.Status = StatusDegraded
	} else {
		w.state.Status = StatusUnreachable
		w.currentIntervalMillis *= 2
		if w.currentIntervalMillis > w.maxBackoffMillis {
			w.currentIntervalMillis = w.maxBackoffMillis
		}
	}
	return prev != w.state.Status
}

// State returns a copy of the readable state
func (w *ConnectivityWatchdog) State() ConnectivityState {
	return w.state
}

// RetryIntervalMillis is the effective interval between attempts,
// pingInterval normally and backed off while Unreachable.
func (w *ConnectivityWatchdog) RetryIntervalMillis() int64 {
	return w.currentIntervalMillis
}
