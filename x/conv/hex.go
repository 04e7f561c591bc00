package conv

const hexd = "0123456789ABCDEF"

// U8Hex writes 2-digit uppercase hex without 0x into buf and returns the used slice.
func U8Hex(buf []byte, b byte) []byte {
	if len(buf) < 2 {
		return buf[:0]
	}
	buf[0] = hexd[b>>4]
	buf[1] = hexd[b&0xF]
	return buf[:2]
}

// Addr renders a bus address or register as "0x2A".
func Addr(b byte) string {
	return string([]byte{'0', 'x', hexd[b>>4], hexd[b&0xF]})
}

// Addr16 is Addr for values that may not fit a byte; those render with four
// digits ("0x0150").
func Addr16(v uint16) string {
	if v <= 0xFF {
		return Addr(byte(v))
	}
	return string([]byte{'0', 'x', hexd[v>>12], hexd[v>>8&0xF], hexd[v>>4&0xF], hexd[v&0xF]})
}

// AppendHex appends p as space separated 2-digit hex bytes.
func AppendHex(dst, p []byte) []byte {
	for i, b := range p {
		if i > 0 {
			dst = append(dst, ' ')
		}
		dst = append(dst, hexd[b>>4], hexd[b&0xF])
	}
	return dst
}
