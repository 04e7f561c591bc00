//go:build !(pico || pico2)

package platform

import "devicecode-i2c/types"

// DefaultConfig returns an unwired controller; callers supply pins or a
// device node through configuration.
func DefaultConfig() types.I2CConfig { return types.Unwired().WithDefaults() }
