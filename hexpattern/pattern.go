// Package hexpattern scans opaque byte payloads for repeating patterns,
// arithmetic sequences, bit-level structure, and likely text encodings —
// the first-pass analysis run over a capture before any protocol-specific
// dissection is attempted.
package hexpattern

import (
	"encoding/hex"
	"sort"

	"github.com/bluefusion/bluefusion-go/internal/entropy"
)

// DefaultMinLength and DefaultMaxLength bound the pattern window lengths
// Analyzer scans when not otherwise configured.
const (
	DefaultMinLength = 2
	DefaultMaxLength = 8
)

// Pattern is a byte sequence that recurs at least twice within the
// scanned data.
type Pattern struct {
	HexPattern string
	Length     int
	Count      int
	Positions  []int
	Frequency  float64
}

// Report is the result of a full Analyze pass.
type Report struct {
	Patterns     []Pattern
	MostFrequent *Pattern
	Coverage     float64
	Entropy      float64
}

// Analyzer scans data for repeating byte windows between MinLength and
// MaxLength bytes long.
type Analyzer struct {
	MinLength int
	MaxLength int
}

// NewAnalyzer returns an Analyzer using the package defaults (2..8 byte
// windows).
func NewAnalyzer() *Analyzer {
	return &Analyzer{MinLength: DefaultMinLength, MaxLength: DefaultMaxLength}
}

// Analyze never fails: empty input produces a zero-value Report with
// Entropy and Coverage both 0.
func (a *Analyzer) Analyze(data []byte) Report {
	if len(data) == 0 {
		return Report{}
	}

	minLen, maxLen := a.bounds()
	patterns := a.collectPatterns(data, minLen, maxLen)
	sortPatterns(patterns)

	var coverage float64
	if n := len(data); n > 0 {
		var sum int
		for _, p := range patterns {
			sum += p.Count * p.Length
		}
		coverage = float64(sum) / float64(n)
		if coverage > 1 {
			coverage = 1
		}
	}

	report := Report{
		Patterns: patterns,
		Coverage: coverage,
		Entropy:  entropy.Shannon(data),
	}
	if len(patterns) > 0 {
		mf := patterns[0]
		report.MostFrequent = &mf
	}
	return report
}

func (a *Analyzer) bounds() (int, int) {
	minLen, maxLen := a.MinLength, a.MaxLength
	if minLen <= 0 {
		minLen = DefaultMinLength
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}
	return minLen, maxLen
}

// collectPatterns records, for each window length in [minLen, maxLen],
// every distinct byte sequence that occurs two or more times. A sequence
// occurring only once is not a "pattern" — it carries no repetition to
// report.
func (a *Analyzer) collectPatterns(data []byte, minLen, maxLen int) []Pattern {
	n := len(data)
	var patterns []Pattern

	for length := minLen; length <= maxLen && length <= n; length++ {
		windowCount := n - length + 1
		positions := map[string][]int{}
		order := make([]string, 0)
		for i := 0; i < windowCount; i++ {
			key := string(data[i : i+length])
			if _, seen := positions[key]; !seen {
				order = append(order, key)
			}
			positions[key] = append(positions[key], i)
		}
		for _, key := range order {
			pos := positions[key]
			if len(pos) < 2 {
				continue
			}
			patterns = append(patterns, Pattern{
				HexPattern: hex.EncodeToString([]byte(key)),
				Length:     length,
				Count:      len(pos),
				Positions:  pos,
				Frequency:  float64(len(pos)) / float64(maxInt(1, windowCount)),
			})
		}
	}
	return patterns
}

// sortPatterns orders by count desc, then length desc, then hex pattern
// ascending — the same order find_most_frequent reads its top element
// from.
func sortPatterns(patterns []Pattern) {
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Count != patterns[j].Count {
			return patterns[i].Count > patterns[j].Count
		}
		if patterns[i].Length != patterns[j].Length {
			return patterns[i].Length > patterns[j].Length
		}
		return patterns[i].HexPattern < patterns[j].HexPattern
	})
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
