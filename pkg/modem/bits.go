package modem

import (
	"fmt"
	"strings"
)

// TextToBits returns the UTF-8 bytes of text, most significant bit first.
func TextToBits(text string) []bool {
	return BytesToBits([]byte(text))
}

// BitsToText is the inverse of TextToBits.
func BitsToText(bits []bool) (string, error) {
	data, err := BitsToBytes(bits)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func BytesToBits(data []byte) []bool {
	bits := make([]bool, 0, len(data)*8)
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bits = append(bits, (b>>i)&1 == 1)
		}
	}
	return bits
}

func BitsToBytes(bits []bool) ([]byte, error) {
	if len(bits)%8 != 0 {
		return nil, fmt.Errorf("%w: %d bits is not a whole number of bytes", ErrMalformedBitstream, len(bits))
	}
	data := make([]byte, len(bits)/8)
	for i, bit := range bits {
		if bit {
			data[i/8] |= 1 << (7 - i%8)
		}
	}
	return data, nil
}

func Uint16ToBits(v uint16) []bool {
	bits := make([]bool, 16)
	for i := range bits {
		bits[i] = (v>>(15-i))&1 == 1
	}
	return bits
}

// BitsToUint16 reads the first 16 bits of bits as a big endian word.
func BitsToUint16(bits []bool) uint16 {
	var v uint16
	for i := 0; i < 16 && i < len(bits); i++ {
		v <<= 1
		if bits[i] {
			v |= 1
		}
	}
	return v
}

// FormatBits renders bits as a string of '0' and '1'.
func FormatBits(bits []bool) string {
	var sb strings.Builder
	sb.Grow(len(bits))
	for _, bit := range bits {
		if bit {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
