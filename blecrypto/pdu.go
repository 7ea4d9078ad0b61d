package blecrypto

import "encoding/binary"

// ParsedPDU is an encrypted BLE data-channel PDU split into its AAD
// (header || length) and the ciphertext-plus-MIC it authenticates.
type ParsedPDU struct {
	Header            byte
	Length            uint16
	AAD               []byte
	CiphertextWithTag []byte
}

// ParsePDU splits pdu into header(1) || length_le(2) || ciphertext ||
// MIC(tagLen), per the Bluetooth Link Layer encrypted PDU layout. It
// returns ok=false (not an error) when pdu is too short to even hold an
// empty ciphertext and the MIC — a Truncated condition, not a crypto
// input error.
func ParsePDU(pdu []byte, tagLen int) (ParsedPDU, bool) {
	const minLen = 1 + 2
	if len(pdu) < minLen+tagLen {
		return ParsedPDU{}, false
	}
	length := binary.LittleEndian.Uint16(pdu[1:3])
	return ParsedPDU{
		Header:            pdu[0],
		Length:            length,
		AAD:               pdu[0:3],
		CiphertextWithTag: pdu[3:],
	}, true
}

// DecryptPacket is the convenience path from a raw encrypted PDU to
// plaintext: it parses the PDU, constructs the BLE nonce from iv and
// counter, and runs CCM decryption.
func DecryptPacket(key, iv []byte, counter uint64, pdu []byte, masterToSlave bool, tagLen int) (plaintext []byte, ok bool, err error) {
	parsed, okParse := ParsePDU(pdu, tagLen)
	if !okParse {
		return nil, false, nil
	}
	nonce, err := ConstructNonce(iv, counter, masterToSlave)
	if err != nil {
		return nil, false, err
	}
	return CCM{}.Decrypt(key, nonce, parsed.CiphertextWithTag, parsed.AAD, tagLen)
}

// dataChannelTagLen is the MIC length the BLE Link Layer always uses for
// encrypted data channel PDUs (32-bit MIC, Core Spec Vol 6 Part B 5.1.3).
const dataChannelTagLen = 4

// DecryptDataChannel decrypts a Link Layer encrypted data channel PDU
// given the long term key and both sides' session key diversifiers,
// constructing IV = SKDSlave || SKDMaster and authenticating with no AAD,
// per the Core Spec's SKD/IV convention.
func DecryptDataChannel(ltk, skdMaster, skdSlave []byte, ciphertextWithTag []byte, counter uint64, masterToSlave bool) (plaintext []byte, ok bool, err error) {
	if len(skdMaster) != 4 || len(skdSlave) != 4 {
		return nil, false, inputErrorf("SKD halves must be 4 bytes each, got %d/%d", len(skdMaster), len(skdSlave))
	}
	iv := append(append([]byte{}, skdSlave...), skdMaster...)
	nonce, err := ConstructNonce(iv, counter, masterToSlave)
	if err != nil {
		return nil, false, err
	}
	return CCM{}.Decrypt(ltk, nonce, ciphertextWithTag, nil, dataChannelTagLen)
}
