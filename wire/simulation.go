package wire

import (
	"math/rand"
	"sync"
	"time"
)

// SimulationConfig controls the realism of the shared-medium radio channel
// Default: lossy half-duplex broadcast with distance-flavored RSSI
type SimulationConfig struct {
	// Packet loss and duplication (per receiver, per packet)
	PacketLossRate float64 // Default: 0.05 (5% loss on a shared LoRa channel)
	DuplicateRate  float64 // Default: 0.01 (1% of packets heard twice)

	// Transmit failures (radio busy, TX error)
	SendFailureRate float64 // Default: 0.005

	// Radio characteristics
	BaseRSSI     int // Default: -60 dBm
	RSSIVariance int // Default: 15 dBm fluctuation

	// Receive queue depth per radio; oldest packets drop when full
	InboxDepth int // Default: 64

	// Deterministic mode for testing
	Deterministic bool
	Seed          int64
}

// DefaultSimulationConfig returns realistic channel parameters
func DefaultSimulationConfig() *SimulationConfig {
	return &SimulationConfig{
		PacketLossRate:  0.05,
		DuplicateRate:   0.01,
		SendFailureRate: 0.005,
		BaseRSSI:        -60,
		RSSIVariance:    15,
		InboxDepth:      64,
	}
}

// PerfectSimulationConfig returns a 100% reliable channel for testing
func PerfectSimulationConfig() *SimulationConfig {
	cfg := DefaultSimulationConfig()
	cfg.PacketLossRate = 0
	cfg.DuplicateRate = 0
	cfg.SendFailureRate = 0
	cfg.RSSIVariance = 0
	cfg.Deterministic = true
	return cfg
}

// Channel is a simulated shared radio medium. Every radio joined to the
// channel hears every broadcast except its own, subject to loss and
// duplication. It stands in for the LoRa air interface in tests and in
// the swarm command.
type Channel struct {
	config *SimulationConfig
	rng    *rand.Rand
	mu     sync.Mutex
	radios map[string]*SimulatedRadio
}

// NewChannel creates a simulated channel
func NewChannel(config *SimulationConfig) *Channel {
	if config == nil {
		config = DefaultSimulationConfig()
	}
	var rng *rand.Rand
	if config.Deterministic {
		rng = rand.New(rand.NewSource(config.Seed))
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Channel{
		config: config,
		rng:    rng,
		radios: make(map[string]*SimulatedRadio),
	}
}

// Join attaches a new radio to the channel, keyed by hardware UUID
func (c *Channel) Join(hardwareUUID string) *SimulatedRadio {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := &SimulatedRadio{channel: c, uuid: hardwareUUID}
	c.radios[hardwareUUID] = r
	return r
}

// Leave detaches a radio; pending packets are discarded
func (c *Channel) Leave(hardwareUUID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.radios, hardwareUUID)
}

func (c *Channel) broadcast(fromUUID string, data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rng.Float64() < c.config.SendFailureRate {
		return false
	}

	for uuid, r := range c.radios {
		if uuid == fromUUID {
			continue // half-duplex: a radio never hears its own TX
		}
		if c.rng.Float64() < c.config.PacketLossRate {
			continue
		}
		rssi := c.config.BaseRSSI
		if c.config.RSSIVariance > 0 {
			rssi += c.rng.Intn(2*c.config.RSSIVariance+1) - c.config.RSSIVariance
		}
		r.deliver(Received{Data: data, RSSI: rssi}, c.config.InboxDepth)
		if c.config.DuplicateRate > 0 && c.rng.Float64() < c.config.DuplicateRate {
			r.deliver(Received{Data: data, RSSI: rssi}, c.config.InboxDepth)
		}
	}
	return true
}

// SimulatedRadio is one device's attachment to the channel. Implements Link.
type SimulatedRadio struct {
	channel *Channel
	uuid    string
	mu      sync.Mutex
	inbox   []Received
}

// Send broadcasts a packet to every other radio on the channel
func (r *SimulatedRadio) Send(data []byte) bool {
	// Copy so later mutation by the sender cannot corrupt in-flight packets
	frame := make([]byte, len(data))
	copy(frame, data)
	return r.channel.broadcast(r.uuid, frame)
}

// TryReceive pops the oldest pending packet, if any
func (r *SimulatedRadio) TryReceive() (Received, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.inbox) == 0 {
		return Received{}, false
	}
	pkt := r.inbox[0]
	r.inbox = r.inbox[1:]
	return pkt, true
}

func (r *SimulatedRadio) deliver(pkt Received, depth int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if depth > 0 && len(r.inbox) >= depth {
		r.inbox = r.inbox[1:] // FIFO overflow, oldest packet lost
	}
	r.inbox = append(r.inbox, pkt)
}
