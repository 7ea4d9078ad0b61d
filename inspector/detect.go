package inspector

import (
	"encoding/binary"

	"github.com/bluefusion/bluefusion-go/protocol"
	"github.com/bluefusion/bluefusion-go/radio"
)

// detectProtocol applies the ordered detection rules: advertisement class
// wins outright, then a recognized ATT opcode of sufficient length, then
// an L2CAP-over-ATT header, else Unknown.
func detectProtocol(p radio.RawPacket) string {
	if p.Class == radio.ClassAdvertisement {
		return "ADV"
	}
	data := p.Payload
	if len(data) > 0 {
		if minLen, ok := protocol.IsKnownOpcode(data[0]); ok && len(data) >= minLen {
			return "ATT"
		}
	}
	if len(data) >= 4 {
		length := binary.LittleEndian.Uint16(data[0:2])
		cid := binary.LittleEndian.Uint16(data[2:4])
		if cid == 0x0004 && int(length)+4 == len(data) {
			return "L2CAP_ATT"
		}
	}
	return Unknown
}
