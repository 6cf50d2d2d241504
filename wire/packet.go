package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Presence is the beacon packet every tracker broadcasts periodically.
// It is encoded with protowire directly: the frame is tiny and fixed, so
// hand-rolled field encoding keeps the airtime down without generated code.
type Presence struct {
	DeviceID     string
	Sequence     uint16 // modular, wraps at 65536
	SentAtMillis int64  // sender's monotonic clock, informational only
	Role         string // "pred", "prey", "unknown"
	Badge        string // consent badge, e.g. "STD"
}

// Protowire field numbers for the presence frame. Stable on-air format:
// never renumber.
const (
	fieldDeviceID = 1
	fieldSequence = 2
	fieldSentAt   = 3
	fieldRole     = 4
	fieldBadge    = 5
)

// SequenceHalfRange is half the uint16 sequence space, used to tell a
// wrapped counter from a stale packet.
const SequenceHalfRange = 32768

// SequenceNewer reports whether sequence a is newer than b under modular
// wraparound: a plain increase, or a small value following a large one
// more than half the space away (the counter wrapped).
func SequenceNewer(a, b uint16) bool {
	if a > b {
		return true
	}
	return a < b && int(b)-int(a) > SequenceHalfRange
}

// Marshal encodes the presence frame.
func (p *Presence) Marshal() []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldDeviceID, protowire.BytesType)
	buf = protowire.AppendString(buf, p.DeviceID)
	buf = protowire.AppendTag(buf, fieldSequence, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(p.Sequence))
	buf = protowire.AppendTag(buf, fieldSentAt, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(p.SentAtMillis))
	if p.Role != "" {
		buf = protowire.AppendTag(buf, fieldRole, protowire.BytesType)
		buf = protowire.AppendString(buf, p.Role)
	}
	if p.Badge != "" {
		buf = protowire.AppendTag(buf, fieldBadge, protowire.BytesType)
		buf = protowire.AppendString(buf, p.Badge)
	}
	return buf
}

// UnmarshalPresence decodes a presence frame. Unknown fields are skipped
// so older firmware can read frames from newer senders.
func UnmarshalPresence(data []byte) (*Presence, error) {
	p := &Presence{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("malformed presence frame: bad tag")
		}
		data = data[n:]

		switch {
		case num == fieldDeviceID && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, fmt.Errorf("malformed presence frame: device id")
			}
			p.DeviceID = s
			data = data[n:]
		case num == fieldSequence && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("malformed presence frame: sequence")
			}
			p.Sequence = uint16(v)
			data = data[n:]
		case num == fieldSentAt && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("malformed presence frame: sent_at")
			}
			p.SentAtMillis = int64(v)
			data = data[n:]
		case num == fieldRole && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, fmt.Errorf("malformed presence frame: role")
			}
			p.Role = s
			data = data[n:]
		case num == fieldBadge && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, fmt.Errorf("malformed presence frame: badge")
			}
			p.Badge = s
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("malformed presence frame: field %d", num)
			}
			data = data[n:]
		}
	}
	if p.DeviceID == "" {
		return nil, fmt.Errorf("presence frame missing device id")
	}
	return p, nil
}
