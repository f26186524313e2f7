package modem

// CRC16Checker computes a CRC-16 with the given polynomial, MSB first, no reflection
// and no final xor. Poly 0x1021 with Init 0xFFFF is CRC-16/CCITT-FALSE.
type CRC16Checker struct {
	Poly uint16
	Init uint16
	crc  uint16
}

func NewCCITTChecker() *CRC16Checker {
	c := &CRC16Checker{Poly: 0x1021, Init: 0xFFFF}
	c.Reset()
	return c
}

func (c *CRC16Checker) Reset() {
	c.crc = c.Init
}

func (c *CRC16Checker) Update(b byte) {
	c.crc ^= uint16(b) << 8
	for range 8 {
		if c.crc&0x8000 != 0 {
			c.crc = (c.crc << 1) ^ c.Poly
		} else {
			c.crc <<= 1
		}
	}
}

// Write feeds p into the checksum. It never fails.
func (c *CRC16Checker) Write(p []byte) (int, error) {
	for _, b := range p {
		c.Update(b)
	}
	return len(p), nil
}

func (c *CRC16Checker) Get() uint16 {
	return c.crc
}

// ChecksumCCITT returns the CRC-16/CCITT-FALSE of the concatenation of parts.
func ChecksumCCITT(parts ...[]byte) uint16 {
	c := NewCCITTChecker()
	for _, p := range parts {
		c.Write(p)
	}
	return c.Get()
}
