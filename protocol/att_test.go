package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestATTReadRequest(t *testing.T) {
	d := ATTDissector{}
	r := d.Parse([]byte{0x0a, 0x03, 0x00})

	assert.Equal(t, "ATT", r.Protocol)
	assert.Equal(t, byte(0x0a), r.Map["opcode"])
	assert.Equal(t, "Read Request", r.Map["opcode_name"])
	assert.Equal(t, "0x0003", r.Map["handle"])
	assert.Empty(t, r.Error)
}

func TestATTReadResponseHello(t *testing.T) {
	d := ATTDissector{}
	r := d.Parse([]byte{0x0b, 'H', 'e', 'l', 'l', 'o'})

	assert.Equal(t, "Read Response", r.Map["opcode_name"])
	assert.Equal(t, "48656c6c6f", r.Map["value"])
	assert.Equal(t, "Hello", r.Map["value_ascii"])
	assert.Equal(t, 5, r.Map["value_length"])
}

func TestATTErrorResponse(t *testing.T) {
	d := ATTDissector{}
	r := d.Parse([]byte{0x01, 0x0a, 0x05, 0x00, 0x02})

	assert.Equal(t, "Error Response", r.Map["opcode_name"])
	assert.Equal(t, byte(0x0a), r.Map["request_opcode"])
	assert.Equal(t, "0x0005", r.Map["handle"])
	assert.Equal(t, byte(0x02), r.Map["error_code"])
	assert.Equal(t, "Read Not Permitted", r.Map["error_name"])
}

func TestATTMTUExchange(t *testing.T) {
	d := ATTDissector{}

	req := d.Parse([]byte{0x02, 0x00, 0x02})
	assert.Equal(t, "Exchange MTU Request", req.Map["opcode_name"])
	assert.Equal(t, 512, req.Map["client_mtu"])

	resp := d.Parse([]byte{0x03, 0x00, 0x01})
	assert.Equal(t, "Exchange MTU Response", resp.Map["opcode_name"])
	assert.Equal(t, 256, resp.Map["server_mtu"])
}

func TestATTNotification(t *testing.T) {
	d := ATTDissector{}
	r := d.Parse([]byte{0x1b, 0x25, 0x00, 0xaa, 0xbb})

	assert.Equal(t, "Handle Value Notification", r.Map["opcode_name"])
	assert.Equal(t, "0x0025", r.Map["handle"])
	assert.Equal(t, "aabb", r.Map["value"])
	assert.Equal(t, 2, r.Map["value_length"])
}

func TestATTParseFieldsOrder(t *testing.T) {
	d := ATTDissector{}
	r := d.Parse([]byte{0x0a, 0x03, 0x00})

	require.Len(t, r.Fields, 2)
	assert.Equal(t, "Opcode", r.Fields[0].Name)
	assert.Equal(t, "Read Request", r.Fields[0].Value)
	assert.Equal(t, "Handle", r.Fields[1].Name)
	assert.Equal(t, "0x0003", r.Fields[1].Value)
}

func TestATTEmptyPacket(t *testing.T) {
	d := ATTDissector{}
	r := d.Parse(nil)
	assert.Equal(t, "empty packet", r.Error)
}

func TestATTTruncatedPacket(t *testing.T) {
	d := ATTDissector{}
	r := d.Parse([]byte{0x0a})

	assert.Equal(t, "truncated", r.Error)
	// the opcode field itself is still decoded best-effort
	assert.Equal(t, "Read Request", r.Map["opcode_name"])
}

func TestATTCanParse(t *testing.T) {
	d := ATTDissector{}
	assert.True(t, d.CanParse([]byte{0x0a}))
	assert.True(t, d.CanParse([]byte{0x12}))
	assert.True(t, d.CanParse([]byte{0x1b}))
	assert.False(t, d.CanParse([]byte{0x00}))
	assert.False(t, d.CanParse([]byte{0xff}))
	assert.False(t, d.CanParse(nil))
}

func TestSafeASCII(t *testing.T) {
	assert.Equal(t, "Hello..World", safeASCII([]byte("Hello\x00\x01World")))
}

func TestOffsetsWithinPayload(t *testing.T) {
	d := ATTDissector{}
	for _, data := range [][]byte{
		{0x0a, 0x03, 0x00},
		{0x01, 0x0a, 0x05, 0x00, 0x02},
		{0x1b, 0x25, 0x00, 0xaa, 0xbb, 0xcc},
	} {
		r := d.Parse(data)
		for _, f := range r.Fields {
			assert.LessOrEqualf(t, f.Offset+f.Length, len(data), "field %s out of bounds", f.Name)
		}
	}
}
