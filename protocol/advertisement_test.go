package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvertisementFlagsAndName(t *testing.T) {
	d := AdvertisementDissector{}
	// {len=2,type=Flags,value=0x06}, {len=5,type=CompleteName,value="Test"}... build manually
	data := []byte{
		0x02, 0x01, 0x06, // flags
		0x05, 0x09, 'T', 'e', 's', 't', // complete local name "Test"
	}
	r := d.Parse(data)
	assert.Equal(t, byte(0x06), r.Map["flags"])
	assert.Equal(t, "Test", r.Map["local_name"])
}

func TestAdvertisementManufacturerData(t *testing.T) {
	d := AdvertisementDissector{}
	data := []byte{0x03, 0xff, 0xaa, 0xbb}
	r := d.Parse(data)
	assert.Equal(t, "aabb", r.Map["manufacturer_data"])
}

func TestAdvertisementTruncatedTLVAbandonsRest(t *testing.T) {
	d := AdvertisementDissector{}
	// First TLV claims length 10 but only 2 bytes follow.
	data := []byte{0x0a, 0x09, 'a', 'b'}
	r := d.Parse(data)
	require.Equal(t, "truncated", r.Error)
	_, hasName := r.Map["local_name"]
	assert.False(t, hasName)
}

func TestAdvertisementUUID16List(t *testing.T) {
	d := AdvertisementDissector{}
	data := []byte{0x05, 0x03, 0x00, 0x18, 0x01, 0x18}
	r := d.Parse(data)
	services, ok := r.Map["services"].([]string)
	require.True(t, ok)
	assert.Equal(t, []string{"0x1800", "0x1801"}, services)
}
