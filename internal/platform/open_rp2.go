//go:build rp2040 || rp2350

package platform

import (
	"machine"
	"sync/atomic"

	"devicecode-i2c/errcode"
	"devicecode-i2c/types"
)

// Open configures machine.I2C0 or machine.I2C1 as a master on the given pins.
// The RP2 pads enable their pull-ups in PinI2C mode; DisablePullUp is not
// honoured here and boards must rely on external resistors being dominant.
func Open(cfg types.I2CConfig) (Driver, error) {
	cfg = cfg.WithDefaults()
	if !cfg.PinsConfigured() {
		return nil, errcode.Unsupported
	}
	var hw *machine.I2C
	switch cfg.Port {
	case "i2c0":
		hw = machine.I2C0
	case "i2c1":
		hw = machine.I2C1
	default:
		return nil, errcode.UnknownBus
	}
	sda := machine.Pin(cfg.SDA)
	scl := machine.Pin(cfg.SCL)
	sda.Configure(machine.PinConfig{Mode: machine.PinI2C})
	scl.Configure(machine.PinConfig{Mode: machine.PinI2C})
	if err := hw.Configure(machine.I2CConfig{
		SDA:       sda,
		SCL:       scl,
		Frequency: cfg.Frequency,
	}); err != nil {
		return nil, err
	}
	return &rp2Bus{hw: hw}, nil
}

type rp2Bus struct {
	hw     *machine.I2C
	closed atomic.Bool
}

func (b *rp2Bus) Tx(addr uint16, w, r []byte) error {
	if b.closed.Load() {
		return errcode.NotInitialized
	}
	return b.hw.Tx(addr, w, r)
}

// Close detaches the handle. The TinyGo port has no driver teardown; the
// peripheral is reconfigured on the next Open.
func (b *rp2Bus) Close() error {
	b.closed.Store(true)
	return nil
}
