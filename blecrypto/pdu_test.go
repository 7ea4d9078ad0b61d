package blecrypto

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPDU(header byte, ciphertextWithTag []byte) []byte {
	pdu := make([]byte, 3+len(ciphertextWithTag))
	pdu[0] = header
	binary.LittleEndian.PutUint16(pdu[1:3], uint16(len(ciphertextWithTag)))
	copy(pdu[3:], ciphertextWithTag)
	return pdu
}

func TestParsePDU(t *testing.T) {
	body := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02, 0x03, 0x04}
	pdu := buildPDU(0x02, body)

	parsed, ok := ParsePDU(pdu, 4)
	require.True(t, ok)
	assert.Equal(t, byte(0x02), parsed.Header)
	assert.Equal(t, uint16(len(body)), parsed.Length)
	assert.Equal(t, pdu[0:3], parsed.AAD)
	assert.Equal(t, body, parsed.CiphertextWithTag)
}

func TestParsePDUTooShortIsNotError(t *testing.T) {
	_, ok := ParsePDU([]byte{0x01, 0x00}, 4)
	assert.False(t, ok)
}

func TestDecryptPacketRoundTrip(t *testing.T) {
	key := testKey()
	iv := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	plaintext := []byte("gatt notification payload")

	nonce, err := ConstructNonce(iv, 42, false)
	require.NoError(t, err)

	aad := []byte{0x02, byte(len(plaintext)), byte(len(plaintext) >> 8)}
	encrypted, err := CCM{}.Encrypt(key, nonce, plaintext, aad, 4)
	require.NoError(t, err)

	pdu := make([]byte, 0, len(aad)+len(encrypted))
	pdu = append(pdu, aad...)
	pdu = append(pdu, encrypted...)

	decrypted, ok, err := DecryptPacket(key, iv, 42, pdu, false, 4)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, plaintext, decrypted)
}

func TestDecryptPacketTooShortPDU(t *testing.T) {
	_, ok, err := DecryptPacket(testKey(), make([]byte, 8), 0, []byte{0x01, 0x00}, true, 4)
	assert.NoError(t, err)
	assert.False(t, ok)
}
