//go:build pico || pico2

package platform

import "devicecode-i2c/types"

// DefaultConfig wires i2c0 to GP4 (SDA) and GP5 (SCL) at 400 kHz.
func DefaultConfig() types.I2CConfig {
	return types.I2CConfig{Port: "i2c0", SDA: 4, SCL: 5}.WithDefaults()
}
