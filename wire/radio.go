package wire

// Received is one packet delivered by the radio, with the signal strength
// measured at reception time.
type Received struct {
	Data []byte
	RSSI int // dBm, negative; closer to zero means closer range
}

// Link is the packet-radio capability the tracker core consumes.
// Delivery is unreliable: packets may be lost, duplicated, or reordered,
// and Send gives no acknowledgement beyond local transmit success.
type Link interface {
	// Send broadcasts one packet on the shared channel.
	// Returns false if the radio could not transmit.
	Send(data []byte) bool

	// TryReceive returns the next pending packet, if any. Never blocks.
	TryReceive() (Received, bool)
}
