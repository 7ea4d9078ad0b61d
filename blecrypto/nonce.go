package blecrypto

// NonceLength is the fixed size of a BLE CCM nonce: an 8-byte IV followed
// by a 5-byte packet counter.
const NonceLength = 13

// MaxPacketCounter is the largest packet counter ConstructNonce accepts:
// the Link Layer counter is 39 bits wide.
const MaxPacketCounter = 1<<39 - 1

// directionBit marks who encrypted the packet: set for master-to-slave,
// clear for slave-to-master. It lives in the high bit of the counter's
// last byte, which the 39-bit counter itself never sets.
const directionBit = 0x80

// ConstructNonce builds the 13-byte CCM nonce BLE link-layer encryption
// uses: iv[8] || counter_le[5], with the top bit of the last counter byte
// carrying packet direction.
//
// iv must be 8 bytes and counter must fit in 39 bits; otherwise
// ErrCryptoInput is returned.
func ConstructNonce(iv []byte, counter uint64, masterToSlave bool) ([]byte, error) {
	if len(iv) != 8 {
		return nil, inputErrorf("IV must be 8 bytes, got %d", len(iv))
	}
	if counter > MaxPacketCounter {
		return nil, inputErrorf("packet counter too large: %d", counter)
	}

	nonce := make([]byte, NonceLength)
	copy(nonce[:8], iv)
	for i := 0; i < 5; i++ {
		nonce[8+i] = byte(counter >> (8 * i))
	}
	if masterToSlave {
		nonce[12] |= directionBit
	} else {
		nonce[12] &^= directionBit
	}
	return nonce, nil
}
