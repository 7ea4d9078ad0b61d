// Package inspector orchestrates the hex pattern analyzer, protocol
// dissectors, and crypto helpers into a single per-packet pipeline:
// protocol detection, dissection, security flagging, anomaly checks, and
// rolling statistics over a bounded packet history.
package inspector

import (
	"time"

	"github.com/bluefusion/bluefusion-go/hexpattern"
	"github.com/bluefusion/bluefusion-go/protocol"
	"github.com/bluefusion/bluefusion-go/radio"
)

// Unknown is the detected-protocol tag used when no detection rule fires.
const Unknown = "Unknown"

// Result is the per-packet product of the inspection pipeline.
type Result struct {
	Timestamp        time.Time
	BaseFields       map[string]interface{}
	DetectedProtocol string
	ParsedFields     []protocol.Field
	ParsedMap        map[string]interface{}
	SecurityFlags    map[string]bool
	Warnings         []string
	HexDump          string
	PatternSummary   hexpattern.Report
}
