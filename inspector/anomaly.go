package inspector

import (
	"fmt"

	"github.com/bluefusion/bluefusion-go/protocol"
	"github.com/bluefusion/bluefusion-go/radio"
)

const (
	maxBLE42Payload = 251
	rssiTooStrong   = -20
	rssiTooWeak     = -100
)

// checkAnomalies reports payload-size, RSSI, and truncated-PDU warnings.
// detectedProtocol is not consulted: the truncated-PDU check looks up the
// first payload byte as an ATT opcode itself, whatever protocol was
// detected.
func checkAnomalies(p radio.RawPacket, detectedProtocol string) []string {
	var warnings []string

	if len(p.Payload) > maxBLE42Payload {
		warnings = append(warnings, "exceeds BLE 4.2 maximum payload")
	}
	if p.RSSI > rssiTooStrong {
		warnings = append(warnings, "Unusual RSSI (too strong)")
	}
	if p.RSSI < rssiTooWeak {
		warnings = append(warnings, "Unusual RSSI (too weak)")
	}
	if len(p.Payload) > 0 {
		if minLen, ok := protocol.IsKnownOpcode(p.Payload[0]); ok && len(p.Payload) < minLen {
			warnings = append(warnings, fmt.Sprintf("truncated ATT PDU (need %d bytes, have %d)", minLen, len(p.Payload)))
		}
	}
	return warnings
}
