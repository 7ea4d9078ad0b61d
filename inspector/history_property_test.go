package inspector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/bluefusion/bluefusion-go/radio"
)

// HistoryLen must never exceed the configured maxHistory, no matter how
// many packets of whatever length are run through Inspect.
func TestHistoryBoundedProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		maxHistory := rapid.IntRange(1, 20).Draw(t, "maxHistory")
		ins := New(maxHistory)

		n := rapid.IntRange(0, 100).Draw(t, "packetCount")
		for i := 0; i < n; i++ {
			payload := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(t, "payload")
			ins.Inspect(radio.RawPacket{Payload: payload, Class: radio.ClassData})

			assert.LessOrEqual(t, ins.HistoryLen(), maxHistory)
		}
	})
}
