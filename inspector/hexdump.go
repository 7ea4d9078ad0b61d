package inspector

import (
	"fmt"
	"strings"
)

// toHexDump renders data as 16-byte rows of "offset: hex  ascii", the
// conventional wireshark/hexdump -C layout.
func toHexDump(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var rows []string
	for offset := 0; offset < len(data); offset += 16 {
		end := offset + 16
		if end > len(data) {
			end = len(data)
		}
		chunk := data[offset:end]

		hexParts := make([]string, len(chunk))
		asciiParts := make([]byte, len(chunk))
		for i, b := range chunk {
			hexParts[i] = fmt.Sprintf("%02x", b)
			if b >= 0x20 && b < 0x7f {
				asciiParts[i] = b
			} else {
				asciiParts[i] = '.'
			}
		}
		rows = append(rows, fmt.Sprintf("%04x: %-47s  %s", offset, strings.Join(hexParts, " "), string(asciiParts)))
	}
	return strings.Join(rows, "\n")
}
