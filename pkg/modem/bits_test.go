package modem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextToBits(t *testing.T) {
	assert.Equal(t, "01000001", FormatBits(TextToBits("A")))
	assert.Equal(t, "0100100001001001", FormatBits(TextToBits("HI")))
	assert.Empty(t, TextToBits(""))
}

func TestBitsToTextRoundTrip(t *testing.T) {
	tests := []string{"", "HELLO", "hello, world", "音声モデム", "line\nbreak\x00nul"}
	for _, text := range tests {
		got, err := BitsToText(TextToBits(text))
		require.NoError(t, err)
		assert.Equal(t, text, got)
	}
}

func TestBitsToTextMalformed(t *testing.T) {
	for _, n := range []int{1, 7, 9, 15} {
		_, err := BitsToText(make([]bool, n))
		assert.ErrorIs(t, err, ErrMalformedBitstream, "n=%d", n)
	}
}

func TestUint16Bits(t *testing.T) {
	bits := Uint16ToBits(PreambleWord)
	assert.Equal(t, "1010101011100100", FormatBits(bits))
	assert.Equal(t, uint16(PreambleWord), BitsToUint16(bits))
}
