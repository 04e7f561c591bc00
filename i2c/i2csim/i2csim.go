// Package i2csim is an in-memory I²C bus with register-file peripherals.
//
// The bus is driven at byte level through i2c.Master and follows the usual
// 24Cxx-style register protocol: after an address byte in write direction the
// first data byte sets the register pointer, further bytes are stored at the
// pointer (auto-increment); reads return bytes from the pointer onwards.
package i2csim

import (
	"sync"
	"sync/atomic"
	"time"

	"devicecode-i2c/errcode"
	"devicecode-i2c/i2c"
	"devicecode-i2c/types"
	"devicecode-i2c/x/conv"

	"tinygo.org/x/drivers"
)

// Device is a 256-register peripheral.
type Device struct {
	mu   sync.Mutex
	regs [256]byte
	ptr  uint8

	// NACKData refuses every data byte after the register pointer.
	NACKData bool
}

func NewDevice() *Device { return &Device{} }

// Poke stores p starting at reg.
func (d *Device) Poke(reg uint8, p ...byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, b := range p {
		d.regs[reg+uint8(i)] = b
	}
}

// Peek returns n registers starting at reg.
func (d *Device) Peek(reg uint8, n int) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]byte, n)
	for i := range out {
		out[i] = d.regs[reg+uint8(i)]
	}
	return out
}

type state uint8

const (
	idle state = iota
	started
	ignoring
	wantReg
	writing
	reading
)

// Bus implements i2c.Master.
type Bus struct {
	mu      sync.Mutex
	devs    map[uint8]*Device
	st      state
	cur     *Device
	lastAck bool
	trace   []string
	faults  []string

	opens, closes int

	// ByteDelay stalls every Send/Recv, e.g. to provoke timeouts.
	ByteDelay time.Duration
	// OpenErr makes the next Open fail.
	OpenErr error
}

var _ i2c.Master = (*Bus)(nil)

func NewBus() *Bus { return &Bus{devs: make(map[uint8]*Device)} }

// Attach places d at the 7-bit address addr.
func (b *Bus) Attach(addr uint8, d *Device) *Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.devs[addr] = d
	return d
}

// Detach removes the device at addr.
func (b *Bus) Detach(addr uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.devs, addr)
}

func (b *Bus) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.st = started
	b.cur = nil
	b.trace = append(b.trace, "S")
	return nil
}

func (b *Bus) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case b.st == idle:
		b.fault("stop on idle bus")
	case b.st == started:
		b.fault("stop right after start")
	case b.st == reading && b.lastAck:
		b.fault("stop after last byte was ACKed")
	}
	b.st = idle
	b.cur = nil
	b.trace = append(b.trace, "P")
	return nil
}

func (b *Bus) Send(v byte) error {
	b.stall()
	b.mu.Lock()
	defer b.mu.Unlock()
	var hb [2]byte
	b.trace = append(b.trace, string(conv.U8Hex(hb[:], v)))

	switch b.st {
	case started:
		addr, dir := i2c.SplitAddrByte(v)
		d, ok := b.devs[addr]
		if !ok {
			b.st = ignoring
			return errcode.NACK
		}
		b.cur = d
		b.lastAck = false
		if dir == i2c.DirRead {
			b.st = reading
		} else {
			b.st = wantReg
		}
		return nil
	case wantReg:
		b.cur.mu.Lock()
		b.cur.ptr = v
		b.cur.mu.Unlock()
		b.st = writing
		return nil
	case writing:
		d := b.cur
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.NACKData {
			return errcode.NACK
		}
		d.regs[d.ptr] = v
		d.ptr++
		return nil
	case reading:
		b.fault("write while addressed for read")
		return errcode.NACK
	}
	b.fault("write on idle bus")
	return errcode.NACK
}

func (b *Bus) Recv(ack bool) (byte, error) {
	b.stall()
	b.mu.Lock()
	defer b.mu.Unlock()
	if ack {
		b.trace = append(b.trace, "R+")
	} else {
		b.trace = append(b.trace, "R-")
	}
	if b.st != reading {
		b.fault("read while not addressed for read")
		return 0xFF, nil // released bus reads high
	}
	d := b.cur
	d.mu.Lock()
	defer d.mu.Unlock()
	v := d.regs[d.ptr]
	d.ptr++
	b.lastAck = ack
	return v, nil
}

func (b *Bus) stall() {
	b.mu.Lock()
	d := b.ByteDelay
	b.mu.Unlock()
	if d > 0 {
		time.Sleep(d)
	}
}

// SetByteDelay changes ByteDelay while the bus is in use.
func (b *Bus) SetByteDelay(d time.Duration) {
	b.mu.Lock()
	b.ByteDelay = d
	b.mu.Unlock()
}

// caller holds lock
func (b *Bus) fault(msg string) { b.faults = append(b.faults, msg) }

// Trace returns the bus events since the last ResetTrace, e.g.
// ["S" "A0" "22" "S" "A1" "R+" "R-" "P"].
func (b *Bus) Trace() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.trace...)
}

func (b *Bus) ResetTrace() {
	b.mu.Lock()
	b.trace = b.trace[:0]
	b.mu.Unlock()
}

// Faults lists protocol violations observed on the bus.
func (b *Bus) Faults() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.faults...)
}

// Opens and Closes count driver installs and removals.
func (b *Bus) Opens() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opens
}

func (b *Bus) Closes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closes
}

// Opener installs this bus as the controller backend.
func (b *Bus) Opener() i2c.Opener {
	return func(types.I2CConfig) (i2c.Driver, error) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if err := b.OpenErr; err != nil {
			b.OpenErr = nil
			return nil, err
		}
		b.opens++
		return &driver{b: b, tx: i2c.MasterBus(b)}, nil
	}
}

type driver struct {
	b      *Bus
	tx     drivers.I2C
	closed atomic.Bool
}

func (d *driver) Tx(addr uint16, w, r []byte) error {
	if d.closed.Load() {
		return errcode.NotInitialized
	}
	return d.tx.Tx(addr, w, r)
}

func (d *driver) Close() error {
	d.closed.Store(true)
	d.b.mu.Lock()
	d.b.closes++
	d.b.mu.Unlock()
	return nil
}
