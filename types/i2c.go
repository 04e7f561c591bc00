package types

import (
	"time"

	"devicecode-i2c/x/mathx"
)

// NoPin marks an SDA/SCL line that is not wired on the board.
const NoPin = -1

// Bus defaults.
const (
	DefaultFrequency = 400_000
	DefaultTimeout   = 500 * time.Millisecond

	MinFrequency = 10_000
	MaxFrequency = 1_000_000
)

// I2CConfig describes one I²C master controller.
//
// On MCU builds the controller is selected by Port and wired to SDA/SCL.
// On Linux hosts Device names the i2c-dev node and the pins are informational.
type I2CConfig struct {
	Port          string        `yaml:"port" json:"port"`                         // "i2c0", "i2c1"
	Device        string        `yaml:"device,omitempty" json:"device,omitempty"` // "/dev/i2c-1"
	SDA           int           `yaml:"sda" json:"sda"`
	SCL           int           `yaml:"scl" json:"scl"`
	Frequency     uint32        `yaml:"frequency,omitempty" json:"frequency,omitempty"` // Hz
	DisablePullUp bool          `yaml:"disable_pullup,omitempty" json:"disable_pullup,omitempty"`
	Timeout       time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"` // per transaction
}

// Unwired returns a config with no pins and no device node.
func Unwired() I2CConfig {
	return I2CConfig{Port: "i2c0", SDA: NoPin, SCL: NoPin}
}

// WithDefaults fills zero values and clamps the bus frequency.
func (c I2CConfig) WithDefaults() I2CConfig {
	if c.Port == "" {
		c.Port = "i2c0"
	}
	if c.Frequency == 0 {
		c.Frequency = DefaultFrequency
	}
	c.Frequency = mathx.Clamp(c.Frequency, MinFrequency, MaxFrequency)
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// PinsConfigured reports whether both bus lines are assigned to distinct pins.
func (c I2CConfig) PinsConfigured() bool {
	return c.SDA >= 0 && c.SCL >= 0 && c.SDA != c.SCL
}

// Available is the capability check: a controller can only be brought up
// when it has pins (MCU) or a device node (host).
func (c I2CConfig) Available() bool {
	return c.Device != "" || c.PinsConfigured()
}

// PullUp reports whether internal pull-ups should be enabled.
func (c I2CConfig) PullUp() bool { return !c.DisablePullUp }
