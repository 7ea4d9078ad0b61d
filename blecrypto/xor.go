package blecrypto

import (
	"sort"

	"github.com/bluefusion/bluefusion-go/internal/entropy"
)

// XOR implements repeating-key and counter-mode XOR obfuscation analysis:
// decryption, known-plaintext key recovery, and pattern-based key length
// scoring. Unlike CCM, XOR "encryption" is not an authenticated cipher —
// there is no tag to check, so every call either succeeds or reports a
// CryptoInput error; there is no silent authentication-failure outcome.
type XOR struct{}

// AlgorithmName identifies this analyzer.
func (XOR) AlgorithmName() string { return "XOR-Obfuscation" }

// Decrypt applies key to ciphertext. With useCounter false, it is plain
// repeating-key XOR: plaintext[i] = ciphertext[i] ^ key[i%len(key)]. With
// useCounter true, each key byte is additionally masked with
// (counterStart+i) mod 256, matching a per-packet counter mixed into the
// obfuscation.
func (XOR) Decrypt(key, ciphertext []byte, counterStart int, useCounter bool) ([]byte, error) {
	if len(key) == 0 {
		return nil, inputErrorf("XOR key cannot be empty")
	}
	if len(ciphertext) == 0 {
		return nil, inputErrorf("ciphertext cannot be empty")
	}
	out := make([]byte, len(ciphertext))
	keyLen := len(key)
	for i, c := range ciphertext {
		k := key[i%keyLen]
		if useCounter {
			k ^= byte((counterStart + i) & 0xff)
		}
		out[i] = c ^ k
	}
	return out, nil
}

// DecryptPacket strips a header(1) || length_le(2) prefix (when
// skipHeader is true) before XOR-decrypting the remainder. A pdu too
// short to contain that prefix yields (nil, nil) — a truncated PDU, not a
// crypto input error. packetCounter, when non-nil, enables counter mode
// starting from its value.
func (x XOR) DecryptPacket(key, pdu []byte, skipHeader bool, packetCounter *int) ([]byte, error) {
	payload := pdu
	if skipHeader {
		if len(pdu) < 3 {
			return nil, nil
		}
		payload = pdu[3:]
	}
	if len(payload) == 0 {
		return nil, nil
	}
	if packetCounter != nil {
		return x.Decrypt(key, payload, *packetCounter, true)
	}
	return x.Decrypt(key, payload, 0, false)
}

// FindXORKey recovers keyLen bytes of key from ciphertext given knownPlaintext
// located at offset. The recovered fragment is ciphertext[offset:offset+len(known)]
// XOR known, which are the true key bytes at keystream positions
// offset..offset+len(known). When that fragment is shorter than keyLen, it
// is tiled (repeated from its start) to fill the remaining length. The
// result begins at keystream position offset, so when offset is not a
// multiple of keyLen it is the key rotated left by offset mod keyLen.
func (XOR) FindXORKey(ciphertext, knownPlaintext []byte, keyLen, offset int) []byte {
	if len(knownPlaintext) == 0 || keyLen <= 0 {
		return nil
	}
	end := offset + len(knownPlaintext)
	if end > len(ciphertext) {
		end = len(ciphertext)
	}
	fragLen := end - offset
	if fragLen <= 0 {
		return nil
	}
	fragment := make([]byte, fragLen)
	for i := 0; i < fragLen; i++ {
		fragment[i] = ciphertext[offset+i] ^ knownPlaintext[i]
	}
	if fragLen >= keyLen {
		return fragment[:keyLen]
	}
	key := make([]byte, keyLen)
	for i := range key {
		key[i] = fragment[i%fragLen]
	}
	return key
}

// PatternAnalysis summarizes structural evidence about a possible
// repeating XOR key, without requiring known plaintext.
type PatternAnalysis struct {
	LikelyKeyLengths []int
	ByteFrequency    map[byte]int
	Entropy          float64
	PatternRepeats   map[int]int
}

// AnalyzeXORPatterns scores candidate key lengths 1..maxKeyLen by counting
// how often ciphertext[i] == ciphertext[i+length] — a repeating XOR key
// tends to repeat runs of identical bytes at multiples of the true key
// length wherever the underlying plaintext itself repeats or pads. Lengths
// are ranked by that count, descending.
func (XOR) AnalyzeXORPatterns(ciphertext []byte, maxKeyLen int) PatternAnalysis {
	freq := map[byte]int{}
	for _, b := range ciphertext {
		freq[b]++
	}

	repeats := map[int]int{}
	for length := 1; length <= maxKeyLen && length < len(ciphertext); length++ {
		count := 0
		for i := 0; i+length < len(ciphertext); i++ {
			if ciphertext[i] == ciphertext[i+length] {
				count++
			}
		}
		repeats[length] = count
	}

	lengths := make([]int, 0, len(repeats))
	for l := range repeats {
		lengths = append(lengths, l)
	}
	sort.Slice(lengths, func(i, j int) bool {
		if repeats[lengths[i]] != repeats[lengths[j]] {
			return repeats[lengths[i]] > repeats[lengths[j]]
		}
		return lengths[i] < lengths[j]
	})

	return PatternAnalysis{
		LikelyKeyLengths: lengths,
		ByteFrequency:    freq,
		Entropy:          entropy.Shannon(ciphertext),
		PatternRepeats:   repeats,
	}
}

// xorEncrypt is the inverse of Decrypt with useCounter=false; kept
// unexported since it only exists to build round-trip test fixtures.
func xorEncrypt(key, plaintext []byte) []byte {
	out := make([]byte, len(plaintext))
	for i, p := range plaintext {
		out[i] = p ^ key[i%len(key)]
	}
	return out
}
