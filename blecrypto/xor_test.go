package blecrypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXORDecryptRoundTrip(t *testing.T) {
	key := []byte("KEY123")
	plaintext := []byte("the quick brown fox jumps over the lazy dog")

	ciphertext := xorEncrypt(key, plaintext)

	decrypted, err := XOR{}.Decrypt(key, ciphertext, 0, false)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestXORDecryptCounterMode(t *testing.T) {
	key := []byte("abc")
	plaintext := []byte("repeating plaintext blocks here")

	xor := XOR{}
	ciphertext := make([]byte, len(plaintext))
	for i, p := range plaintext {
		k := key[i%len(key)] ^ byte(i&0xff)
		ciphertext[i] = p ^ k
	}

	decrypted, err := xor.Decrypt(key, ciphertext, 0, true)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestXORDecryptRejectsEmptyKey(t *testing.T) {
	_, err := XOR{}.Decrypt(nil, []byte{1, 2, 3}, 0, false)
	assert.ErrorIs(t, err, ErrCryptoInput)
}

func TestXORDecryptRejectsEmptyCiphertext(t *testing.T) {
	_, err := XOR{}.Decrypt([]byte("key"), nil, 0, false)
	assert.ErrorIs(t, err, ErrCryptoInput)
}

func TestXORDecryptPacketStripsHeader(t *testing.T) {
	key := []byte("key")
	payload := []byte("obfuscated field value")
	body := xorEncrypt(key, payload)
	pdu := buildPDU(0x01, body)

	decrypted, err := XOR{}.DecryptPacket(key, pdu, true, nil)
	require.NoError(t, err)
	assert.Equal(t, payload, decrypted)
}

func TestXORDecryptPacketTooShortIsNotError(t *testing.T) {
	decrypted, err := XOR{}.DecryptPacket([]byte("key"), []byte{0x01}, true, nil)
	assert.NoError(t, err)
	assert.Nil(t, decrypted)
}

func TestFindXORKeyExactLength(t *testing.T) {
	key := []byte("SECRET!!")
	plaintext := []byte("known-plaintext-fragment")
	ciphertext := xorEncrypt(key, plaintext)

	recovered := XOR{}.FindXORKey(ciphertext, plaintext[:len(key)], len(key), 0)
	assert.Equal(t, key, recovered)
}

func TestFindXORKeyShorterThanKeyTilesFragment(t *testing.T) {
	key := []byte("ABCDABCD")
	known := []byte("AB")
	ciphertext := xorEncrypt(key, []byte("ABxxxxxx"))

	recovered := XOR{}.FindXORKey(ciphertext, known, len(key), 0)
	// the recovered fragment is xor(ciphertext[:2], known) == key[:2] == "AB",
	// tiled across 8 bytes: "ABABABAB"
	assert.Equal(t, []byte("ABABABAB"), recovered)
}

func TestFindXORKeyAtOffset(t *testing.T) {
	key := []byte("KEY123")
	plaintext := []byte("xxxxxknown-at-this-offsetxxxxx")
	ciphertext := xorEncrypt(key, plaintext)

	known := []byte("known-at-this-offset")
	recovered := XOR{}.FindXORKey(ciphertext, known, len(key), 5)
	// the fragment starts at keystream position 5, i.e. at key[5]: the key
	// rotated left by 5
	assert.Equal(t, []byte("3KEY12"), recovered)
}

func TestAnalyzeXORPatternsRanksTrueKeyLengthHighly(t *testing.T) {
	key := []byte{0x11, 0x22, 0x33}
	plaintext := make([]byte, 90)
	for i := range plaintext {
		plaintext[i] = byte(i % 7)
	}
	ciphertext := xorEncrypt(key, plaintext)

	analysis := XOR{}.AnalyzeXORPatterns(ciphertext, 16)
	require.NotEmpty(t, analysis.LikelyKeyLengths)
	assert.Contains(t, analysis.LikelyKeyLengths[:3], len(key))
	assert.GreaterOrEqual(t, analysis.Entropy, 0.0)
	assert.LessOrEqual(t, analysis.Entropy, 8.0)
}
