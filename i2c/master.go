package i2c

import (
	"errors"

	"devicecode-i2c/errcode"

	"tinygo.org/x/drivers"
)

// Master is a byte-level bus controller, e.g. a bit-banged port or a
// simulated bus. Send returns errcode.NACK when the byte is not acknowledged.
type Master interface {
	Start() error
	Stop() error
	Send(b byte) error
	Recv(ack bool) (byte, error)
}

// Run executes the link step by step on m.
//
// A NACK on an address byte is reported as errcode.NoDevice, on a data byte
// as errcode.NACK; bytes queued without AckCheck ignore NACKs. After a failure
// mid-transaction a STOP is still issued so the bus is released.
func (l *Link) Run(m Master) error {
	started := false
	fail := func(err error) error {
		if started {
			_ = m.Stop()
		}
		return err
	}
	for _, c := range l.cmds {
		switch c.Op {
		case OpStart:
			if err := m.Start(); err != nil {
				return fail(err)
			}
			started = true
		case OpWrite:
			for _, b := range c.Data {
				err := m.Send(b)
				if err == nil {
					continue
				}
				if !errors.Is(err, errcode.NACK) {
					return fail(err)
				}
				if !c.AckCheck {
					continue
				}
				if c.Addr {
					return fail(errcode.NoDevice)
				}
				return fail(errcode.NACK)
			}
		case OpRead:
			n := len(c.Data)
			for i := range c.Data {
				ack := !(c.LastNACK && i == n-1)
				b, err := m.Recv(ack)
				if err != nil {
					return fail(err)
				}
				c.Data[i] = b
			}
		case OpStop:
			if err := m.Stop(); err != nil {
				return err
			}
			started = false
		}
	}
	return nil
}

// MasterBus adapts a byte-level Master to drivers.I2C.
func MasterBus(m Master) drivers.I2C { return masterBus{m: m} }

type masterBus struct{ m Master }

var _ drivers.I2C = masterBus{}

// Tx performs an optional write followed by a repeated-start read. With
// both w and r empty it sends an address-only probe.
func (b masterBus) Tx(addr uint16, w, r []byte) error {
	if addr > MaxAddr {
		return errcode.InvalidParams
	}
	return TxLink(uint8(addr), w, r).Run(b.m)
}

// TxLink builds the drivers.I2C transaction shape:
//
//	[S addr|W w...] [S addr|R r... (last NACK)] P
//
// The write segment is kept when r is empty so that an empty Tx probes addr.
func TxLink(addr uint8, w, r []byte) *Link {
	l := NewLink()
	if len(w) > 0 || len(r) == 0 {
		l.Start().Address(addr, DirWrite).Bytes(w, true)
	}
	if len(r) > 0 {
		l.Start().Address(addr, DirRead).Recv(r, true)
	}
	return l.Stop()
}
