package hexpattern

// Sequence is a maximal monotone arithmetic progression found either over
// raw bytes or over little-endian uint16 pairs.
type Sequence struct {
	Type       string
	StartValue int
	Difference int
	Length     int
	StartIndex int
}

const (
	SequenceArithmetic       = "arithmetic"
	SequenceArithmeticUint16 = "arithmetic_uint16"
)

// FindSequences detects maximal runs of at least 3 bytes (or 3 uint16
// little-endian values, stride 2) advancing by a constant non-zero
// difference.
func FindSequences(data []byte) []Sequence {
	var sequences []Sequence
	sequences = append(sequences, findByteSequences(data)...)
	sequences = append(sequences, findUint16Sequences(data)...)
	return sequences
}

func findByteSequences(data []byte) []Sequence {
	var out []Sequence
	n := len(data)
	i := 0
	for i < n-1 {
		diff := int(data[i+1]) - int(data[i])
		if diff == 0 {
			i++
			continue
		}
		length := 2
		j := i + 1
		for j < n-1 {
			next := int(data[j+1]) - int(data[j])
			if next != diff {
				break
			}
			length++
			j++
		}
		if length >= 3 {
			out = append(out, Sequence{
				Type:       SequenceArithmetic,
				StartValue: int(data[i]),
				Difference: diff,
				Length:     length,
				StartIndex: i,
			})
			i += length
			continue
		}
		i++
	}
	return out
}

func findUint16Sequences(data []byte) []Sequence {
	var out []Sequence
	n := len(data) - (len(data) % 2)
	count := n / 2
	if count < 2 {
		return nil
	}
	values := make([]int, count)
	for i := 0; i < count; i++ {
		values[i] = int(data[2*i]) | int(data[2*i+1])<<8
	}

	i := 0
	for i < count-1 {
		diff := values[i+1] - values[i]
		if diff == 0 {
			i++
			continue
		}
		length := 2
		j := i + 1
		for j < count-1 {
			next := values[j+1] - values[j]
			if next != diff {
				break
			}
			length++
			j++
		}
		if length >= 3 {
			out = append(out, Sequence{
				Type:       SequenceArithmeticUint16,
				StartValue: values[i],
				Difference: diff,
				Length:     length,
				StartIndex: i * 2,
			})
			i += length
			continue
		}
		i++
	}
	return out
}
