package blecrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
)

// allowedTagLengths mirrors the tag lengths the CCM mode in the Bluetooth
// Core Spec (and NIST SP 800-38C) permits.
var allowedTagLengths = map[int]bool{
	4: true, 6: true, 8: true, 10: true, 12: true, 14: true, 16: true,
}

// CCM implements AES-CCM decryption with the 13-byte BLE nonce layout.
//
// The standard library has no CCM mode (it has GCM, which BLE does not
// use), so this builds CCM directly on crypto/aes + crypto/cipher.Block:
// a CBC-MAC over the formatted B0/AAD/payload blocks for authentication,
// and CTR-mode keystream blocks (counter 0 masking the tag, counters 1..N
// masking the payload) for encryption, per SP 800-38C.
type CCM struct{}

// AlgorithmName identifies this decryptor, mirroring the BLEAESCCMDecryptor
// naming in the system this package reimplements.
func (CCM) AlgorithmName() string { return "AES-CCM" }

// Decrypt authenticates and decrypts ciphertextWithTag (ciphertext followed
// by a tagLen-byte MIC) under key/nonce/aad.
//
// ok is false, with a nil error, when the authentication tag does not
// match — that is a normal outcome for crypto analysis over captured
// traffic, not a fatal error. err is non-nil (ErrCryptoInput) only for
// malformed key/nonce/tagLen.
func (CCM) Decrypt(key, nonce, ciphertextWithTag, aad []byte, tagLen int) (plaintext []byte, ok bool, err error) {
	block, q, err := setupCCM(key, nonce, tagLen)
	if err != nil {
		return nil, false, err
	}
	if len(ciphertextWithTag) < tagLen {
		return nil, false, nil
	}

	ciphertext := ciphertextWithTag[:len(ciphertextWithTag)-tagLen]
	receivedMIC := ciphertextWithTag[len(ciphertextWithTag)-tagLen:]

	s0 := ctrBlock(block, nonce, q, 0)
	recoveredTag := xorBytes(receivedMIC, s0[:tagLen])

	plaintext = ctrCrypt(block, nonce, q, ciphertext, 1)
	computedTag := cbcMAC(block, nonce, aad, plaintext, tagLen)

	if subtle.ConstantTimeCompare(computedTag, recoveredTag) != 1 {
		return nil, false, nil
	}
	return plaintext, true, nil
}

// Encrypt produces ciphertext||MIC for plaintext under key/nonce/aad,
// the inverse of Decrypt. It exists so this package's own tests (and any
// caller re-encrypting known session keys) do not need a second CCM
// implementation to build fixtures against.
func (CCM) Encrypt(key, nonce, plaintext, aad []byte, tagLen int) (ciphertextWithTag []byte, err error) {
	block, q, err := setupCCM(key, nonce, tagLen)
	if err != nil {
		return nil, err
	}

	tag := cbcMAC(block, nonce, aad, plaintext, tagLen)
	s0 := ctrBlock(block, nonce, q, 0)
	mic := xorBytes(tag, s0[:tagLen])

	ciphertext := ctrCrypt(block, nonce, q, plaintext, 1)
	return append(ciphertext, mic...), nil
}

func setupCCM(key, nonce []byte, tagLen int) (cipher.Block, int, error) {
	if len(key) != 16 {
		return nil, 0, inputErrorf("key must be 16 bytes, got %d", len(key))
	}
	if len(nonce) != NonceLength {
		return nil, 0, inputErrorf("nonce must be 13 bytes, got %d", len(nonce))
	}
	if !allowedTagLengths[tagLen] {
		return nil, 0, inputErrorf("invalid tag length %d", tagLen)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, 0, inputErrorf("aes key rejected: %v", err)
	}
	return block, 15 - len(nonce), nil
}

// formatB0 builds the initial CBC-MAC block encoding flags, nonce, and
// message length, per SP 800-38C section A.2.1.
func formatB0(nonce []byte, payloadLen, aadLen, tagLen int) []byte {
	q := 15 - len(nonce)
	flags := byte(0)
	if aadLen > 0 {
		flags |= 0x40
	}
	flags |= byte((tagLen-2)/2&0x07) << 3
	flags |= byte(q-1) & 0x07

	b0 := make([]byte, 16)
	b0[0] = flags
	copy(b0[1:1+len(nonce)], nonce)
	for i := 0; i < q; i++ {
		b0[15-i] = byte(payloadLen >> (8 * i))
	}
	return b0
}

// formatAAD encodes associated data length-prefixed and zero-padded to a
// 16-byte boundary, per SP 800-38C section A.2.2.
func formatAAD(aad []byte) []byte {
	if len(aad) == 0 {
		return nil
	}
	n := len(aad)
	var lenField []byte
	switch {
	case n < 0xff00:
		lenField = []byte{byte(n >> 8), byte(n)}
	case uint64(n) <= 0xffffffff:
		lenField = []byte{0xff, 0xfe, byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
	default:
		lenField = []byte{
			0xff, 0xff,
			byte(n >> 56), byte(n >> 48), byte(n >> 40), byte(n >> 32),
			byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n),
		}
	}
	buf := append(append([]byte{}, lenField...), aad...)
	if rem := len(buf) % 16; rem != 0 {
		buf = append(buf, make([]byte, 16-rem)...)
	}
	return buf
}

func padTo16(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	rem := len(data) % 16
	if rem == 0 {
		out := make([]byte, len(data))
		copy(out, data)
		return out
	}
	out := make([]byte, len(data)+16-rem)
	copy(out, data)
	return out
}

// cbcMAC computes the CBC-MAC authentication tag over B0, formatted AAD,
// and the zero-padded payload, returning the first tagLen bytes.
func cbcMAC(block cipher.Block, nonce, aad, payload []byte, tagLen int) []byte {
	mac := make([]byte, 16)
	b0 := formatB0(nonce, len(payload), len(aad), tagLen)
	block.Encrypt(mac, b0)

	blocks := append(formatAAD(aad), padTo16(payload)...)
	var x [16]byte
	for i := 0; i < len(blocks); i += 16 {
		for j := 0; j < 16; j++ {
			x[j] = mac[j] ^ blocks[i+j]
		}
		block.Encrypt(mac, x[:])
	}
	return mac[:tagLen]
}

// ctrBlock returns S_counter = E(key, A_counter), the single CTR keystream
// block for a given counter index.
func ctrBlock(block cipher.Block, nonce []byte, q int, counter uint64) []byte {
	a := make([]byte, 16)
	a[0] = byte(q - 1)
	copy(a[1:1+len(nonce)], nonce)
	for i := 0; i < q; i++ {
		a[15-i] = byte(counter >> (8 * i))
	}
	s := make([]byte, 16)
	block.Encrypt(s, a)
	return s
}

// ctrCrypt XORs data against the CTR keystream starting at counter
// startCounter; used symmetrically for both encryption and decryption.
func ctrCrypt(block cipher.Block, nonce []byte, q int, data []byte, startCounter uint64) []byte {
	out := make([]byte, len(data))
	counter := startCounter
	for offset := 0; offset < len(data); offset += 16 {
		s := ctrBlock(block, nonce, q, counter)
		end := offset + 16
		if end > len(data) {
			end = len(data)
		}
		for j := offset; j < end; j++ {
			out[j] = data[j] ^ s[j-offset]
		}
		counter++
	}
	return out
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}
