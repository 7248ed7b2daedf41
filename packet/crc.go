package packet

// CRC parameters (USB 2.0 §8.3.5). Both polynomials are processed LSB first,
// so the shift registers use their bit-reversed forms.
const (
	crc5Init     = 0x1F
	crc5Poly     = 0x14 // x^5 + x^2 + 1, reflected
	crc16Init    = 0xFFFF
	crc16Poly    = 0xA001 // x^16 + x^15 + x^2 + 1, reflected
	crc16Residue = 0xB001
)

// CRC5 returns the inverted CRC5 of the low bits of value, LSB first.
func CRC5(value uint16, bits int) uint8 {
	crc := uint8(crc5Init)
	for i := 0; i < bits; i++ {
		bit := uint8(value>>i) & 1
		if (crc^bit)&1 != 0 {
			crc = crc>>1 ^ crc5Poly
		} else {
			crc >>= 1
		}
	}
	return ^crc & 0x1F
}

// CRC16 returns the inverted CRC16 of data. It is sent low byte first.
func CRC16(data []byte) uint16 {
	return ^crc16Update(crc16Init, data)
}

func crc16Update(crc uint16, data []byte) uint16 {
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ crc16Poly
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// checkCRC16 reports whether data ends with a valid CRC16. Running the
// register over payload and CRC leaves the fixed residue.
func checkCRC16(data []byte) bool {
	return crc16Update(crc16Init, data) == crc16Residue
}
