package i2c

import "devicecode-i2c/errcode"

// Dir is the R/W bit appended to a 7-bit address.
type Dir uint8

const (
	DirWrite Dir = 0
	DirRead  Dir = 1
)

// NoRegister skips the register phase of Read and Write.
const NoRegister = -1

// MaxAddr is the highest 7-bit address.
const MaxAddr = 0x7F

// Scan range: 0x00-0x07 and 0x78-0x7F are reserved.
const (
	ScanFirst = 0x08
	ScanLast  = 0x77
)

// AddrByte returns the on-wire address byte (addr<<1 | dir).
func AddrByte(addr uint8, dir Dir) byte {
	return addr<<1 | byte(dir&1)
}

// SplitAddrByte is the inverse of AddrByte.
func SplitAddrByte(b byte) (uint8, Dir) {
	return b >> 1, Dir(b & 1)
}

func checkAddr(addr uint8) error {
	if addr > MaxAddr {
		return errcode.InvalidParams
	}
	return nil
}

// checkReg accepts NoRegister (any negative value) or an 8-bit register.
func checkReg(reg int) error {
	if reg > 0xFF {
		return errcode.InvalidParams
	}
	return nil
}
