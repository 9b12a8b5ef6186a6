package hwio

// GetBit8 reports whether bit n of v is set.
func GetBit8(v uint8, n uint) bool {
	return v>>n&0x01 != 0
}

func SetBit8(v *uint8, n uint) {
	*v |= 1 << n
}

func ClearBit8(v *uint8, n uint) {
	*v &^= 1 << n
}

// WriteBit8 sets or clears bit n of v.
func WriteBit8(v *uint8, n uint, on bool) {
	if on {
		SetBit8(v, n)
	} else {
		ClearBit8(v, n)
	}
}

// Field8 extracts the width-bit field of v starting at bit lo.
func Field8(v uint8, lo, width uint) uint8 {
	return v >> lo & (1<<width - 1)
}

func GetBit16(v uint16, n uint) bool {
	return v>>n&0x01 != 0
}

// Hi returns the high byte of v.
func Hi(v uint16) uint8 { return uint8(v >> 8) }

// Lo returns the low byte of v.
func Lo(v uint16) uint8 { return uint8(v) }

// Word builds a 16-bit value from its high and low bytes.
func Word(hi, lo uint8) uint16 { return uint16(hi)<<8 | uint16(lo) }
