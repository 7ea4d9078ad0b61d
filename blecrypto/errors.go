// Package blecrypto implements the BLE-specific AES-CCM decryption pipeline
// and an XOR obfuscation analyzer, ported from the data-channel encryption
// scheme in the Bluetooth Core Spec Vol 6, Part C, Section 1.
package blecrypto

import (
	"errors"
	"fmt"
)

// ErrCryptoInput reports an invalid key, nonce, or tag length. Unlike an
// authentication failure (a value, not an error — see CCM.Decrypt), this
// is fatal for the call and always propagates.
var ErrCryptoInput = errors.New("blecrypto: invalid input")

func inputErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrCryptoInput)
}
