package modem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksumCCITT(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  uint16
	}{
		{"empty", nil, 0xFFFF},
		{"check string", []byte("123456789"), 0x29B1},
		{"single A", []byte("A"), 0xB915},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChecksumCCITT(tt.input))
		})
	}
}

func TestCRC16CheckerIncremental(t *testing.T) {
	c := NewCCITTChecker()
	c.Write([]byte("1234"))
	c.Write([]byte("56789"))
	assert.Equal(t, uint16(0x29B1), c.Get())
	assert.Equal(t, ChecksumCCITT([]byte("1234"), []byte("56789")), c.Get())

	c.Reset()
	assert.Equal(t, uint16(0xFFFF), c.Get())
}
