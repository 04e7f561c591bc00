//go:build !(rp2040 || rp2350) && !(linux && !baremetal)

package platform

import (
	"devicecode-i2c/errcode"
	"devicecode-i2c/types"
)

// Open reports that this target has no I²C controller.
func Open(types.I2CConfig) (Driver, error) { return nil, errcode.Unsupported }
