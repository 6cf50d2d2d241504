// Package tracker is the firmware core of the hunt tracker: the LoRa
// presence beacon protocol, the hold-then-taps emergency gesture
// recognizer, and the server connectivity watchdog, driven by one
// cooperative tick loop over a monotonic millisecond clock.
//
// The core is pure state transition: each tick consumes pending raw
// inputs (received packets, button edges, heartbeat results, a battery
// sample) and produces outbound frames and events. All I/O lives in the
// Runner and the capability interfaces it is given.
package tracker
