package modem

import "errors"

var (
	ErrEmptyPayload       = errors.New("empty payload")
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrMalformedBitstream = errors.New("malformed bitstream")
	ErrTruncatedFrame     = errors.New("truncated frame")
	ErrChecksumMismatch   = errors.New("CRC error")
	ErrTimeout            = errors.New("timeout")
	ErrInvalidConfig      = errors.New("invalid modem config")
)
