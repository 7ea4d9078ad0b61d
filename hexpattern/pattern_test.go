package hexpattern

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestAnalyzeSimpleRepeatingPattern(t *testing.T) {
	data := mustHex(t, "AABBAABBAABB")
	report := NewAnalyzer().Analyze(data)

	require.NotEmpty(t, report.Patterns)
	require.NotNil(t, report.MostFrequent)
	assert.Equal(t, "aabb", report.MostFrequent.HexPattern)
	assert.Equal(t, 3, report.MostFrequent.Count)
	assert.Greater(t, report.Coverage, 0.9)
}

func TestAnalyzeNoPatterns(t *testing.T) {
	data := mustHex(t, "0123456789ABCDEF")
	report := NewAnalyzer().Analyze(data)

	assert.Less(t, len(report.Patterns), 3)
	assert.Less(t, report.Coverage, 0.5)
}

func TestAnalyzeEmptyData(t *testing.T) {
	report := NewAnalyzer().Analyze(nil)

	assert.Empty(t, report.Patterns)
	assert.Nil(t, report.MostFrequent)
	assert.Equal(t, 0.0, report.Coverage)
	assert.Equal(t, 0.0, report.Entropy)
}

func TestAnalyzePatternPositions(t *testing.T) {
	data := mustHex(t, "00CAFE00CAFE00")
	report := NewAnalyzer().Analyze(data)

	var cafe *Pattern
	for i := range report.Patterns {
		if report.Patterns[i].HexPattern == "cafe" {
			cafe = &report.Patterns[i]
		}
	}
	require.NotNil(t, cafe)
	assert.Equal(t, []int{1, 4}, cafe.Positions)
}

func TestAnalyzeOverlappingPatterns(t *testing.T) {
	data := mustHex(t, "112233112233112233")
	report := NewAnalyzer().Analyze(data)

	found := false
	for _, p := range report.Patterns {
		if p.HexPattern == "112233" && p.Count >= 3 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyzePatternFrequency(t *testing.T) {
	data := mustHex(t, "ABABAB00")
	report := NewAnalyzer().Analyze(data)

	// 4 bytes AB AB AB 00: the 2-byte window abab occurs at 0 and 1 out of
	// 4-2+1 = 3 windows
	var abab *Pattern
	for i := range report.Patterns {
		if report.Patterns[i].HexPattern == "abab" {
			abab = &report.Patterns[i]
		}
	}
	require.NotNil(t, abab)
	assert.Equal(t, 2, abab.Count)
	assert.InDelta(t, 2.0/3.0, abab.Frequency, 1e-9)
}

func TestAnalyzeCustomWindowBounds(t *testing.T) {
	data := mustHex(t, "DEADBEEFDEADBEEF")
	report := (&Analyzer{MinLength: 4, MaxLength: 4}).Analyze(data)

	require.NotNil(t, report.MostFrequent)
	assert.Equal(t, "deadbeef", report.MostFrequent.HexPattern)
	assert.Equal(t, 4, report.MostFrequent.Length)
}

func TestEntropyOrdering(t *testing.T) {
	low := NewAnalyzer().Analyze(mustHex(t, "00000000"))
	high := NewAnalyzer().Analyze(mustHex(t, "1A2B3C4D"))

	assert.Less(t, low.Entropy, high.Entropy)
	assert.Less(t, low.Entropy, 0.5)
	assert.Greater(t, high.Entropy, 0.5)
}
