//go:build linux && !baremetal

package platform

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"unsafe"

	"devicecode-i2c/errcode"
	"devicecode-i2c/types"

	"golang.org/x/sys/unix"
)

// i2c-dev ioctl interface (linux/i2c-dev.h, linux/i2c.h).
const (
	i2cRdwr = 0x0707
	i2cMRd  = 0x0001

	// Per-message limit enforced by i2c-dev (8192 bytes).
	maxMsgLen = 8192
)

type i2cMsg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   uintptr
}

type rdwrData struct {
	msgs  uintptr
	nmsgs uint32
}

// Open opens the i2c-dev node for cfg. Device wins; otherwise Port "i2cN"
// maps to /dev/i2c-N. Bus speed and pull-ups are fixed by the kernel
// adapter and the device tree.
func Open(cfg types.I2CConfig) (Driver, error) {
	path := cfg.Device
	if path == "" {
		n, ok := strings.CutPrefix(cfg.Port, "i2c")
		if !ok || n == "" {
			return nil, errcode.UnknownBus
		}
		path = "/dev/i2c-" + n
	}
	f, err := os.OpenFile(filepath.Clean(path), os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &errcode.E{C: errcode.UnknownBus, Op: "open", Msg: path, Err: err}
		}
		return nil, err
	}
	return &devBus{f: f}, nil
}

type devBus struct {
	mu sync.Mutex
	f  *os.File
}

// Tx issues a combined write + repeated-start read in one I2C_RDWR call.
func (b *devBus) Tx(addr uint16, w, r []byte) error {
	if len(w) > maxMsgLen || len(r) > maxMsgLen {
		return &errcode.E{C: errcode.InvalidParams, Op: "tx", Msg: "message longer than 8192 bytes"}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.f == nil {
		return errcode.NotInitialized
	}

	msgs := make([]i2cMsg, 0, 2)
	if len(w) > 0 || len(r) == 0 {
		m := i2cMsg{addr: addr, len: uint16(len(w))}
		if len(w) > 0 {
			m.buf = uintptr(unsafe.Pointer(&w[0]))
		}
		msgs = append(msgs, m)
	}
	if len(r) > 0 {
		msgs = append(msgs, i2cMsg{addr: addr, flags: i2cMRd, len: uint16(len(r)), buf: uintptr(unsafe.Pointer(&r[0]))})
	}
	data := rdwrData{msgs: uintptr(unsafe.Pointer(&msgs[0])), nmsgs: uint32(len(msgs))}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, b.f.Fd(), uintptr(i2cRdwr), uintptr(unsafe.Pointer(&data)))
	// The kernel reads these through uintptr fields only.
	runtime.KeepAlive(msgs)
	runtime.KeepAlive(w)
	runtime.KeepAlive(r)
	if errno != 0 {
		return mapErrno(errno)
	}
	return nil
}

func (b *devBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.f == nil {
		return nil
	}
	err := b.f.Close()
	b.f = nil
	return err
}

// mapErrno follows Documentation/i2c/fault-codes.rst.
func mapErrno(errno unix.Errno) error {
	var c errcode.Code
	switch errno {
	case unix.ENXIO:
		c = errcode.NoDevice
	case unix.EREMOTEIO:
		c = errcode.NACK
	case unix.ETIMEDOUT:
		c = errcode.Timeout
	case unix.EAGAIN, unix.EBUSY:
		c = errcode.Busy
	case unix.EINVAL, unix.EOPNOTSUPP:
		c = errcode.Unsupported
	default:
		c = errcode.Error
	}
	return &errcode.E{C: c, Op: "ioctl", Err: errno}
}
