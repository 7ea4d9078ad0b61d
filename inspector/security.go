package inspector

import (
	"github.com/bluefusion/bluefusion-go/internal/entropy"
	"github.com/bluefusion/bluefusion-go/protocol"
	"github.com/bluefusion/bluefusion-go/radio"
)

const (
	defaultEncryptedEntropyThreshold = 7.2
	encryptedMinLength               = 16
	signedMinLength                  = 12
	signedTailEntropyFloor           = 6.0
)

// analyzeSecurity reports the non-exclusive security-relevant shape flags
// a payload exhibits. These are heuristics, not proofs: pairing_request
// can equally be an ATT Error Response on the wire, which the inspector
// cannot distinguish without channel metadata — that ambiguity is
// surfaced as a warning by the caller, not resolved here.
func analyzeSecurity(p radio.RawPacket, encryptedEntropyThreshold float64) map[string]bool {
	data := p.Payload
	flags := map[string]bool{
		"pairing_request": isPairingRequestShape(data),
		"encrypted":        isProbablyEncrypted(data, encryptedEntropyThreshold),
		"signed":           isProbablySigned(data),
	}
	return flags
}

func isPairingRequestShape(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x01 && data[1] <= 0x04 && len(data) >= 6 && len(data) <= 7
}

// ambiguousWithATTError reports whether data, already shaped like an SMP
// Pairing Request, also satisfies the ATT Error Response opcode (0x01)
// and its minimum PDU length. Both protocols share opcode byte 0x01, and
// nothing in the payload itself — only L2CAP CID metadata the inspector
// does not have — can tell them apart.
func ambiguousWithATTError(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	minLen, ok := protocol.IsKnownOpcode(data[0])
	return ok && len(data) >= minLen
}

func isProbablyEncrypted(data []byte, threshold float64) bool {
	return len(data) >= encryptedMinLength && entropy.Shannon(data) >= threshold
}

func isProbablySigned(data []byte) bool {
	if len(data) < signedMinLength {
		return false
	}
	tail := data[len(data)-12:]
	return entropy.Shannon(tail) >= signedTailEntropyFloor
}
