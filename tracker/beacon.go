package tracker

import (
	"sort"

	"github.com/user/huntlink/wire"
)

// PeerRecord is what we know about one nearby device, keyed by its ID.
// At most one record exists per device; LastSeenMillis never decreases.
type PeerRecord struct {
	DeviceID       string `json:"device_id"`
	LastSeenMillis int64  `json:"last_seen_millis"`
	Sequence       uint16 `json:"sequence"`
	Role           string `json:"role,omitempty"`
	Badge          string `json:"badge,omitempty"`
	RSSI           int    `json:"rssi"`
}

// BeaconProtocol owns periodic presence broadcasts and the peer table.
// Broadcast and eviction give an eventually-consistent view of who is
// nearby without acknowledgements or session state, which is all a lossy
// half-duplex shared channel can support.
type BeaconProtocol struct {
	deviceID string
	role     string
	badge    string

	intervalMillis  int64
	stalenessMillis int64

	sequence        uint16
	lastBroadcastAt int64

	peers map[string]*PeerRecord
}

// NewBeaconProtocol creates the protocol for one device.
// The first Tick broadcasts immediately.
func NewBeaconProtocol(deviceID string, intervalMillis, stalenessMillis int64) *BeaconProtocol {
	return &BeaconProtocol{
		deviceID:        deviceID,
		role:            "unknown",
		badge:           "STD",
		intervalMillis:  intervalMillis,
		stalenessMillis: stalenessMillis,
		lastBroadcastAt: -intervalMillis,
		peers:           make(map[string]*PeerRecord),
	}
}

// SetRole updates the role carried in outgoing beacons (assigned by the server)
func (b *BeaconProtocol) SetRole(role string) {
	if role != "" {
		b.role = role
	}
}

// SetBadge updates the consent badge carried in outgoing beacons
func (b *BeaconProtocol) SetBadge(badge string) {
	if badge != "" {
		b.badge = badge
	}
}

// Tick emits one presence frame when the beacon interval has elapsed,
// nil otherwise. The sequence counter wraps modularly; a wrap is not an
// error, receivers handle it with half-range comparison.
func (b *BeaconProtocol) Tick(now int64) []byte {
	if now-b.lastBroadcastAt < b.intervalMillis {
		return nil
	}
	b.lastBroadcastAt = now
	frame := wire.Presence{
		DeviceID:     b.deviceID,
		Sequence:     b.sequence,
		SentAtMillis: now,
		Role:         b.role,
		Badge:        b.badge,
	}
	b.sequence++ // uint16, wraps by design of the on-air format
	return frame.Marshal()
}

// HandlePacket upserts the peer table from one received packet.
// Returns the updated record and whether the peer is newly seen.
// Malformed frames, our own echoes, and stale or duplicate sequence
// numbers are silently discarded (ok=false).
func (b *BeaconProtocol) HandlePacket(pkt wire.Received, now int64) (rec PeerRecord, isNew bool, ok bool) {
	p, err := wire.UnmarshalPresence(pkt.Data)
	if err != nil {
		return PeerRecord{}, false, false
	}
	if p.DeviceID == b.deviceID {
		return PeerRecord{}, false, false // echo suppression
	}

	existing, seen := b.peers[p.DeviceID]
	if seen && !wire.SequenceNewer(p.Sequence, existing.Sequence) {
		return PeerRecord{}, false, false // stale, duplicate, or out of order
	}

	if !seen {
		existing = &PeerRecord{DeviceID: p.DeviceID}
		b.peers[p.DeviceID] = existing
	}
	existing.LastSeenMillis = now
	existing.Sequence = p.Sequence
	existing.Role = p.Role
	existing.Badge = p.Badge
	existing.RSSI = pkt.RSSI
	return *existing, !seen, true
}

// EvictStale removes peers not heard from within the staleness threshold,
// returning the evicted IDs. Called once per tick before the table is read
// for the snapshot.
func (b *BeaconProtocol) EvictStale(now int64) []string {
	var evicted []string
	for id, rec := range b.peers {
		if now-rec.LastSeenMillis > b.stalenessMillis {
			delete(b.peers, id)
			evicted = append(evicted, id)
		}
	}
	sort.Strings(evicted)
	return evicted
}

// Peers returns a snapshot of the table ordered by device ID
func (b *BeaconProtocol) Peers() []PeerRecord {
	out := make([]PeerRecord, 0, len(b.peers))
	for _, rec := range b.peers {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out
}

// Role returns the role currently carried in outgoing beacons
func (b *BeaconProtocol) Role() string {
	return b.role
}
