package i2c

import (
	"devicecode-i2c/errcode"
	"devicecode-i2c/x/conv"
)

// Op is a single step of an I²C command link.
type Op uint8

const (
	OpStart Op = iota // (repeated) START condition
	OpWrite           // clock bytes out
	OpRead            // clock bytes in
	OpStop            // STOP condition
)

func (o Op) String() string {
	switch o {
	case OpStart:
		return "S"
	case OpWrite:
		return "W"
	case OpRead:
		return "R"
	case OpStop:
		return "P"
	}
	return "?"
}

// Command is one queued step.
type Command struct {
	Op Op
	// Data holds the bytes to send (OpWrite) or the destination (OpRead).
	Data []byte
	// Addr marks an OpWrite carrying the address+R/W byte after a START.
	Addr bool
	// AckCheck makes a NACK on any written byte fail the link.
	AckCheck bool
	// LastNACK answers the final byte of an OpRead with NACK instead of ACK.
	LastNACK bool
}

// Link is an ordered list of commands describing one transaction.
// It is built up front and submitted as a unit; nothing touches the bus
// while it is being built.
type Link struct {
	cmds []Command
}

// NewLink returns an empty command link.
func NewLink() *Link { return &Link{cmds: make([]Command, 0, 7)} }

func (l *Link) Start() *Link {
	l.cmds = append(l.cmds, Command{Op: OpStart})
	return l
}

// Address queues the address byte (addr<<1 | R/W) with ACK checking.
func (l *Link) Address(addr uint8, dir Dir) *Link {
	l.cmds = append(l.cmds, Command{
		Op:       OpWrite,
		Data:     []byte{AddrByte(addr, dir)},
		Addr:     true,
		AckCheck: true,
	})
	return l
}

// Byte queues a single data byte.
func (l *Link) Byte(b byte, ackCheck bool) *Link {
	l.cmds = append(l.cmds, Command{Op: OpWrite, Data: []byte{b}, AckCheck: ackCheck})
	return l
}

// Bytes queues p as data bytes. An empty p adds nothing.
func (l *Link) Bytes(p []byte, ackCheck bool) *Link {
	if len(p) == 0 {
		return l
	}
	l.cmds = append(l.cmds, Command{Op: OpWrite, Data: p, AckCheck: ackCheck})
	return l
}

// Recv queues a read into buf.
func (l *Link) Recv(buf []byte, lastNACK bool) *Link {
	l.cmds = append(l.cmds, Command{Op: OpRead, Data: buf, LastNACK: lastNACK})
	return l
}

func (l *Link) Stop() *Link {
	l.cmds = append(l.cmds, Command{Op: OpStop})
	return l
}

// Commands exposes the queued steps.
func (l *Link) Commands() []Command { return l.cmds }

// String renders the link in a compact trace form, e.g. "S A0 22 S A1 R3 P".
func (l *Link) String() string {
	var out []byte
	var hb [2]byte
	var nb [20]byte
	for i, c := range l.cmds {
		if i > 0 {
			out = append(out, ' ')
		}
		switch c.Op {
		case OpWrite:
			for j, b := range c.Data {
				if j > 0 {
					out = append(out, ' ')
				}
				out = append(out, conv.U8Hex(hb[:], b)...)
			}
		case OpRead:
			out = append(out, 'R')
			out = append(out, conv.Itoa(nb[:], int64(len(c.Data)))...)
		default:
			out = append(out, c.Op.String()...)
		}
	}
	return string(out)
}

// ReadLink builds the register read transaction:
//
//	[S addr|W reg] S addr|R data... (last NACK) P
//
// The register phase is omitted when reg is negative.
func ReadLink(addr uint8, reg int, buf []byte) *Link {
	l := NewLink()
	if reg >= 0 {
		l.Start().Address(addr, DirWrite).Byte(uint8(reg), true)
	}
	return l.Start().Address(addr, DirRead).Recv(buf, true).Stop()
}

// WriteLink builds the register write transaction:
//
//	S addr|W [reg] data... P
func WriteLink(addr uint8, reg int, data []byte) *Link {
	l := NewLink().Start().Address(addr, DirWrite)
	if reg >= 0 {
		l.Byte(uint8(reg), true)
	}
	return l.Bytes(data, true).Stop()
}

// Tx flattens the link into the write-then-repeated-start-read shape used by
// drivers.I2C. Links outside that shape report errcode.Unsupported.
func (l *Link) Tx() (addr uint16, w, r []byte, err error) {
	const (
		idle = iota
		started
		writing
		reading
		done
	)
	st := idle
	segs := 0
	for _, c := range l.cmds {
		switch c.Op {
		case OpStart:
			// A new segment may only follow a write segment.
			if st != idle && st != writing {
				return 0, nil, nil, errcode.Unsupported
			}
			st = started
		case OpWrite:
			switch {
			case st == started && c.Addr:
				if len(c.Data) != 1 {
					return 0, nil, nil, errcode.InvalidParams
				}
				a, dir := SplitAddrByte(c.Data[0])
				if segs > 0 && (dir == DirWrite || uint16(a) != addr) {
					return 0, nil, nil, errcode.Unsupported
				}
				addr = uint16(a)
				segs++
				if dir == DirRead {
					st = reading
				} else {
					st = writing
				}
			case st == writing && !c.Addr:
				w = append(w, c.Data...)
			default:
				return 0, nil, nil, errcode.Unsupported
			}
		case OpRead:
			if st != reading || r != nil || !c.LastNACK {
				return 0, nil, nil, errcode.Unsupported
			}
			r = c.Data
		case OpStop:
			if st != writing && st != reading {
				return 0, nil, nil, errcode.Unsupported
			}
			st = done
		}
	}
	if st != done {
		return 0, nil, nil, errcode.Unsupported
	}
	return addr, w, r, nil
}
