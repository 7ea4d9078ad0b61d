package hexpattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindBitPatternsAlternating(t *testing.T) {
	data := mustHex(t, "AA55AA55")
	patterns := FindBitPatterns(data)
	assert.NotEmpty(t, patterns)
}

func TestFindBitPatternsEmpty(t *testing.T) {
	assert.Empty(t, FindBitPatterns(nil))
}

func TestToBitString(t *testing.T) {
	bits := toBitString([]byte{0xAA})
	assert.Equal(t, "10101010", bits)
}
