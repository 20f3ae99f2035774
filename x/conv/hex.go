package conv

const hexd = "0123456789abcdef"

// U16Hex writes n as "0x" followed by 4 lowercase hex digits.
// buf must hold at least 6 bytes; a shorter buf yields an empty slice.
func U16Hex(buf []byte, n uint16) []byte {
	if len(buf) < 6 {
		return buf[:0]
	}
	buf[0], buf[1] = '0', 'x'
	for j := 5; j >= 2; j-- {
		buf[j] = hexd[n&0xF]
		n >>= 4
	}
	return buf[:6]
}

// U8Hex writes n as "0x" followed by 2 lowercase hex digits.
func U8Hex(buf []byte, n uint8) []byte {
	if len(buf) < 4 {
		return buf[:0]
	}
	buf[0], buf[1] = '0', 'x'
	buf[2] = hexd[n>>4]
	buf[3] = hexd[n&0xF]
	return buf[:4]
}
