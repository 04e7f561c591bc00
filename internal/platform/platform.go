// Package platform opens the I²C controller for the build target.
//
// Exactly one Open is compiled in:
//
//	rp2040 || rp2350     machine.I2C0/I2C1 (TinyGo)
//	linux && !baremetal  /dev/i2c-N via the i2c-dev I2C_RDWR ioctl
//	anything else        errcode.Unsupported
package platform

import "tinygo.org/x/drivers"

// Driver is an opened bus controller.
type Driver interface {
	drivers.I2C
	Close() error
}
