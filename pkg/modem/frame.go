package modem

import (
	"fmt"
)

// Frame layout on the wire, in bits:
//
//	preamble(16) | length(16, big endian) | payload(8*length) | crc16(16)
//
// The checksum covers the two length bytes followed by the payload bytes.
const (
	PreambleWord = 0xAAE4

	PreambleBits = 16
	LengthBits   = 16
	ChecksumBits = 16
	HeaderBits   = PreambleBits + LengthBits

	// MaxLength is the capacity of the length field.
	MaxLength = 1<<LengthBits - 1
)

var preamble = Uint16ToBits(PreambleWord)

// Preamble returns a copy of the preamble bit pattern.
func Preamble() []bool {
	return append([]bool(nil), preamble...)
}

// FrameBits returns the number of bits of a frame carrying n payload bytes.
func FrameBits(n int) int {
	return HeaderBits + 8*n + ChecksumBits
}

type Frame struct {
	Length   int    // payload length in bytes
	Payload  []bool // 8*Length bits
	Checksum uint16
}

func (f Frame) Bytes() []byte {
	data, _ := BitsToBytes(f.Payload)
	return data
}

func (f Frame) Text() (string, error) {
	return BitsToText(f.Payload)
}

type FrameCodec struct {
	MaxPayload int // largest accepted payload in bytes, 0 means MaxLength
}

func (c FrameCodec) Limit() int {
	if c.MaxPayload <= 0 || c.MaxPayload > MaxLength {
		return MaxLength
	}
	return c.MaxPayload
}

// Encode wraps payload into a frame. The payload must be a whole number of bytes.
func (c FrameCodec) Encode(payload []bool) ([]bool, error) {
	data, err := BitsToBytes(payload)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	if len(data) > c.Limit() {
		return nil, fmt.Errorf("%w: %d bytes, limit is %d", ErrPayloadTooLarge, len(data), c.Limit())
	}

	length := []byte{byte(len(data) >> 8), byte(len(data))}
	checksum := ChecksumCCITT(length, data)

	frame := make([]bool, 0, FrameBits(len(data)))
	frame = append(frame, preamble...)
	frame = append(frame, BytesToBits(length)...)
	frame = append(frame, payload...)
	frame = append(frame, Uint16ToBits(checksum)...)
	return frame, nil
}

// ParseLength reads the length field of a frame whose first HeaderBits bits are in raw.
func (c FrameCodec) ParseLength(raw []bool) (int, error) {
	if len(raw) < HeaderBits {
		return 0, fmt.Errorf("%w: have %d of %d header bits", ErrTruncatedFrame, len(raw), HeaderBits)
	}
	n := int(BitsToUint16(raw[PreambleBits:HeaderBits]))
	if n == 0 || n > c.Limit() {
		return n, fmt.Errorf("%w: length %d out of range", ErrMalformedBitstream, n)
	}
	return n, nil
}

// Decode validates a frame aligned at bit 0 of raw. Bits after the checksum are ignored.
func (c FrameCodec) Decode(raw []bool) (Frame, error) {
	if len(raw) < PreambleBits {
		return Frame{}, fmt.Errorf("%w: have %d of %d preamble bits", ErrTruncatedFrame, len(raw), PreambleBits)
	}
	for i, bit := range preamble {
		if raw[i] != bit {
			return Frame{}, fmt.Errorf("%w: preamble mismatch at bit %d", ErrMalformedBitstream, i)
		}
	}

	n, err := c.ParseLength(raw)
	if err != nil {
		return Frame{}, err
	}
	total := FrameBits(n)
	if len(raw) < total {
		return Frame{}, fmt.Errorf("%w: have %d of %d bits", ErrTruncatedFrame, len(raw), total)
	}

	payload := append([]bool(nil), raw[HeaderBits:HeaderBits+8*n]...)
	header, _ := BitsToBytes(raw[PreambleBits:HeaderBits])
	data, _ := BitsToBytes(payload)
	want := BitsToUint16(raw[HeaderBits+8*n : total])
	if got := ChecksumCCITT(header, data); got != want {
		return Frame{}, fmt.Errorf("%w: computed %04x, received %04x", ErrChecksumMismatch, got, want)
	}

	return Frame{Length: n, Payload: payload, Checksum: want}, nil
}
