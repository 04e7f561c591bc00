// Package ds3231 drives the DS3231 real-time clock over the register
// primitives of the I²C HAL.
//
// Time registers hold BCD values; the driver always runs the clock in 24-hour
// mode and treats the century bit as 2000/2100.
package ds3231

import (
	"errors"
	"time"
)

// I2C address.
const Address = 0x68

// Register map (subset).
const (
	regSeconds = 0x00
	regControl = 0x0E
	regStatus  = 0x0F
	regTempMSB = 0x11

	hour12     = 0x40
	hourPM     = 0x20
	century    = 0x80
	statusOSF  = 0x80
	controlEOS = 0x80 // oscillator disabled on battery when set
)

var ErrInvalidTime = errors.New("ds3231: invalid time registers")

// Registers is the slice of the HAL the driver needs.
type Registers interface {
	Read(addr uint8, reg int, buf []byte) error
	Write(addr uint8, reg int, data []byte) error
}

// Device is a DS3231 on a bus.
type Device struct {
	bus     Registers
	Address uint8

	buf [7]byte
}

// New creates a Device. It does not touch the bus.
func New(bus Registers) *Device {
	return &Device{bus: bus, Address: Address}
}

// ReadTime returns the current clock time in UTC.
func (d *Device) ReadTime() (time.Time, error) {
	b := d.buf[:]
	if err := d.bus.Read(d.Address, regSeconds, b); err != nil {
		return time.Time{}, err
	}
	sec := fromBCD(b[0] & 0x7F)
	minute := fromBCD(b[1] & 0x7F)
	hour := decodeHour(b[2])
	day := fromBCD(b[4] & 0x3F)
	month := fromBCD(b[5] & 0x1F)
	year := 2000 + fromBCD(b[6])
	if b[5]&century != 0 {
		year += 100
	}
	if sec > 59 || minute > 59 || hour > 23 || day < 1 || day > 31 || month < 1 || month > 12 {
		return time.Time{}, ErrInvalidTime
	}
	return time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.UTC), nil
}

// SetTime writes t (converted to UTC) and clears the oscillator-stop flag.
func (d *Device) SetTime(t time.Time) error {
	t = t.UTC()
	y := t.Year()
	if y < 2000 || y > 2199 {
		return ErrInvalidTime
	}
	var mc byte
	if y >= 2100 {
		mc = century
		y -= 100
	}
	regs := []byte{
		toBCD(t.Second()),
		toBCD(t.Minute()),
		toBCD(t.Hour()), // 24-hour mode: bit 6 clear
		byte(t.Weekday()) + 1,
		toBCD(t.Day()),
		toBCD(int(t.Month())) | mc,
		toBCD(y - 2000),
	}
	if err := d.bus.Write(d.Address, regSeconds, regs); err != nil {
		return err
	}
	st := d.buf[:1]
	if err := d.bus.Read(d.Address, regStatus, st); err != nil {
		return err
	}
	return d.bus.Write(d.Address, regStatus, []byte{st[0] &^ statusOSF})
}

// OscillatorStopped reports whether the clock lost time since it was last set.
func (d *Device) OscillatorStopped() (bool, error) {
	st := d.buf[:1]
	if err := d.bus.Read(d.Address, regStatus, st); err != nil {
		return false, err
	}
	return st[0]&statusOSF != 0, nil
}

// MilliCelsius returns the die temperature (0.25 °C resolution).
func (d *Device) MilliCelsius() (int32, error) {
	b := d.buf[:2]
	if err := d.bus.Read(d.Address, regTempMSB, b); err != nil {
		return 0, err
	}
	return int32(int8(b[0]))*1000 + int32(b[1]>>6)*250, nil
}

// EnableBatteryOscillator keeps the clock running on backup power.
func (d *Device) EnableBatteryOscillator() error {
	c := d.buf[:1]
	if err := d.bus.Read(d.Address, regControl, c); err != nil {
		return err
	}
	return d.bus.Write(d.Address, regControl, []byte{c[0] &^ controlEOS})
}

func decodeHour(b byte) int {
	if b&hour12 == 0 {
		return fromBCD(b & 0x3F)
	}
	h := fromBCD(b & 0x1F)
	if h == 12 {
		h = 0
	}
	if b&hourPM != 0 {
		h += 12
	}
	return h
}

func fromBCD(b byte) int { return int(b>>4)*10 + int(b&0x0F) }
func toBCD(v int) byte   { return byte(v/10)<<4 | byte(v%10) }
