package inspector

import (
	"sync"

	"github.com/bluefusion/bluefusion-go/hexpattern"
	"github.com/bluefusion/bluefusion-go/protocol"
	"github.com/bluefusion/bluefusion-go/radio"
)

// DefaultMaxHistory is the history window size used when New is not
// given one explicitly.
const DefaultMaxHistory = 1000

// Sink receives every completed inspection result, for callers (such as
// the metrics package) that want to observe the pipeline without the
// inspector depending on them.
type Sink interface {
	Observe(r *Result)
}

// Inspector runs the per-packet pipeline: base fields, hex dump, protocol
// detection, dissection, pattern analysis, security flags, anomaly
// checks, bounded history, and rolling statistics.
type Inspector struct {
	registry *protocol.Registry
	patterns *hexpattern.Analyzer
	maxHistory int
	encryptedEntropyThreshold float64

	mu    sync.RWMutex
	hist  *history
	stats Statistics

	sinks []Sink
}

// New builds an Inspector with the default protocol registry, pattern
// analyzer, and a history window of maxHistory (DefaultMaxHistory if <= 0).
func New(maxHistory int) *Inspector {
	limits := DefaultLimits()
	if maxHistory > 0 {
		limits.MaxHistory = maxHistory
	}
	return NewWithLimits(limits)
}

// NewWithLimits builds an Inspector honoring every field of limits. Zero
// fields fall back to DefaultLimits.
func NewWithLimits(limits Limits) *Inspector {
	if limits.MaxHistory <= 0 {
		limits.MaxHistory = DefaultMaxHistory
	}
	if limits.EncryptedEntropyThreshold <= 0 {
		limits.EncryptedEntropyThreshold = defaultEncryptedEntropyThreshold
	}
	return &Inspector{
		registry:                  protocol.NewRegistry(),
		patterns:                  hexpattern.NewAnalyzer(),
		maxHistory:                limits.MaxHistory,
		encryptedEntropyThreshold: limits.EncryptedEntropyThreshold,
		hist:                      newHistory(limits.MaxHistory),
		stats:                     newStatistics(),
	}
}

// AddSink registers an observer invoked after every Inspect call.
func (ins *Inspector) AddSink(s Sink) {
	ins.mu.Lock()
	defer ins.mu.Unlock()
	ins.sinks = append(ins.sinks, s)
}

// Inspect runs the full pipeline over p and records the result into the
// bounded history and rolling statistics.
func (ins *Inspector) Inspect(p radio.RawPacket) *Result {
	base := map[string]interface{}{
		"address":     p.Address,
		"rssi":        p.RSSI,
		"source":      p.Source.String(),
		"data_length": len(p.Payload),
		"timestamp":   p.Timestamp,
	}

	result := &Result{
		Timestamp:     p.Timestamp,
		BaseFields:    base,
		HexDump:       toHexDump(p.Payload),
		SecurityFlags: analyzeSecurity(p, ins.encryptedEntropyThreshold),
	}

	if result.SecurityFlags["pairing_request"] && ambiguousWithATTError(p.Payload) {
		result.Warnings = append(result.Warnings,
			"ambiguous: payload shape matches both an SMP Pairing Request and an ATT Error Response; no L2CAP CID available to disambiguate")
	}

	if len(p.Payload) > 0 {
		result.DetectedProtocol = detectProtocol(p)
		if result.DetectedProtocol != Unknown {
			if parsed := ins.registry.Parse(result.DetectedProtocol, p.Payload); parsed != nil {
				result.ParsedFields = parsed.Fields
				result.ParsedMap = parsed.Map
				if parsed.Error != "" {
					result.Warnings = append(result.Warnings, parsed.Error)
				}
			}
		}
		result.PatternSummary = ins.patterns.Analyze(p.Payload)
	}

	result.Warnings = append(result.Warnings, checkAnomalies(p, result.DetectedProtocol)...)

	ins.mu.Lock()
	if ins.hist.len() >= ins.hist.maxLen {
		// The oldest entry is about to be evicted; drop it from the
		// statistics so they cover only the history window.
		old := ins.hist.items[0]
		ins.stats.TotalPackets--
		ins.stats.Protocols[old.DetectedProtocol]--
		for flag, set := range old.SecurityFlags {
			if set {
				ins.stats.Security[flag]--
			}
		}
		ins.stats.TotalWarnings -= len(old.Warnings)
	}
	ins.hist.add(result)
	ins.stats.record(result)
	sinks := append([]Sink{}, ins.sinks...)
	ins.mu.Unlock()

	for _, s := range sinks {
		s.Observe(result)
	}
	return result
}

// History returns a snapshot of the current bounded packet history,
// most-recent last.
func (ins *Inspector) History() []*Result {
	ins.mu.RLock()
	defer ins.mu.RUnlock()
	return ins.hist.snapshot()
}

// HistoryLen reports the current number of entries held in history.
func (ins *Inspector) HistoryLen() int {
	ins.mu.RLock()
	defer ins.mu.RUnlock()
	return ins.hist.len()
}

// Statistics returns a snapshot of the rolling statistics.
func (ins *Inspector) Statistics() Statistics {
	ins.mu.RLock()
	defer ins.mu.RUnlock()
	snapshot := Statistics{
		TotalPackets:  ins.stats.TotalPackets,
		TotalWarnings: ins.stats.TotalWarnings,
		Protocols:     make(map[string]int, len(ins.stats.Protocols)),
		Security:      make(map[string]int, len(ins.stats.Security)),
	}
	for k, v := range ins.stats.Protocols {
		snapshot.Protocols[k] = v
	}
	for k, v := range ins.stats.Security {
		snapshot.Security[k] = v
	}
	return snapshot
}
