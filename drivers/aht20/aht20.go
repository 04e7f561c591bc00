// Package aht20 drives the AHT20 temperature and humidity sensor through any
// drivers.I2C, including the HAL controller.
//
// A measurement is triggered, then polled until the busy bit clears:
//
//	s, err := d.Measure(ctx)
//	t := s.DeciCelsius()
package aht20

import (
	"context"
	"errors"
	"time"

	"devicecode-i2c/errcode"

	"tinygo.org/x/drivers"
)

// I2C address.
const Address = 0x38

const (
	cmdTrigger    = 0xAC
	cmdInitialize = 0xBE
	cmdSoftReset  = 0xBA
	cmdStatus     = 0x71

	statusBusy       = 0x80
	statusCalibrated = 0x08

	fullScale = 1 << 20
)

var (
	ErrNotReady      = errors.New("aht20: not ready")
	ErrNotCalibrated = errors.New("aht20: not calibrated")
	ErrCRC           = errors.New("aht20: crc mismatch")
)

// Sample is one raw 20-bit reading pair.
type Sample struct {
	RawHumidity uint32
	RawTemp     uint32
}

// DeciRelHumidity returns tenths of %RH.
func (s Sample) DeciRelHumidity() int32 {
	return int32(uint64(s.RawHumidity) * 1000 / fullScale)
}

// DeciCelsius returns tenths of °C.
func (s Sample) DeciCelsius() int32 {
	return int32(uint64(s.RawTemp)*2000/fullScale) - 500
}

type Device struct {
	bus     drivers.I2C
	Address uint16

	// Poll is the wait between readiness checks in Measure.
	Poll time.Duration
	// Conversion is the initial wait after a trigger.
	Conversion time.Duration

	buf [7]byte
}

func New(bus drivers.I2C) *Device {
	return &Device{
		bus:        bus,
		Address:    Address,
		Poll:       15 * time.Millisecond,
		Conversion: 80 * time.Millisecond,
	}
}

// Status returns the status byte.
func (d *Device) Status() (byte, error) {
	st := d.buf[:1]
	if err := d.bus.Tx(d.Address, []byte{cmdStatus}, st); err != nil {
		return 0, err
	}
	return st[0], nil
}

// Init loads the calibration unless the sensor reports it as done.
func (d *Device) Init() error {
	st, err := d.Status()
	if err != nil {
		return err
	}
	if st&statusCalibrated != 0 {
		return nil
	}
	if err := d.bus.Tx(d.Address, []byte{cmdInitialize, 0x08, 0x00}, nil); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)
	return nil
}

// Reset soft-resets the sensor. It needs about 20 ms before the next command.
func (d *Device) Reset() error {
	return d.bus.Tx(d.Address, []byte{cmdSoftReset}, nil)
}

func (d *Device) Trigger() error {
	return d.bus.Tx(d.Address, []byte{cmdTrigger, 0x33, 0x00}, nil)
}

// Collect fetches the result of the last trigger. It returns ErrNotReady
// while the conversion is still running and ErrNotCalibrated when the
// sensor lost its calibration (run Init).
func (d *Device) Collect() (Sample, error) {
	b := d.buf[:]
	if err := d.bus.Tx(d.Address, nil, b); err != nil {
		return Sample{}, err
	}
	if b[0]&statusBusy != 0 {
		return Sample{}, ErrNotReady
	}
	if b[0]&statusCalibrated == 0 {
		return Sample{}, ErrNotCalibrated
	}
	if crc8(b[:6]) != b[6] {
		return Sample{}, ErrCRC
	}
	return Sample{
		RawHumidity: uint32(b[1])<<12 | uint32(b[2])<<4 | uint32(b[3])>>4,
		RawTemp:     uint32(b[3]&0x0F)<<16 | uint32(b[4])<<8 | uint32(b[5]),
	}, nil
}

// Measure triggers a conversion and polls until it completes or ctx ends.
func (d *Device) Measure(ctx context.Context) (Sample, error) {
	if err := d.Trigger(); err != nil {
		return Sample{}, err
	}
	wait := d.Conversion
	for {
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return Sample{}, &errcode.E{C: errcode.Timeout, Op: "aht20", Err: ctx.Err()}
		case <-t.C:
		}
		s, err := d.Collect()
		if !errors.Is(err, ErrNotReady) {
			return s, err
		}
		wait = d.Poll
	}
}

// crc8: polynomial 0x31, init 0xFF, no reflection.
func crc8(p []byte) byte {
	c := byte(0xFF)
	for _, b := range p {
		c ^= b
		for i := 0; i < 8; i++ {
			if c&0x80 != 0 {
				c = c<<1 ^ 0x31
			} else {
				c <<= 1
			}
		}
	}
	return c
}
