// Package i2c is the I²C master HAL: bring the controller up, run fixed-shape
// register transactions against 7-bit peripherals, and tear it down.
//
// Each Read or Write is built as a command link (start, address+R/W,
// optional register byte, data, stop), handed to the bus worker and either
// completes within the configured timeout (500 ms by default) or fails.
// There is no retry.
package i2c

import (
	"log/slog"
	"sync"

	"devicecode-i2c/errcode"
	"devicecode-i2c/internal/platform"
	"devicecode-i2c/types"
	"devicecode-i2c/x/conv"

	"tinygo.org/x/drivers"
)

// Driver is an opened bus controller.
type Driver = platform.Driver

// Opener brings up the controller described by cfg.
type Opener func(cfg types.I2CConfig) (Driver, error)

// Controller owns one I²C master.
type Controller struct {
	mu   sync.Mutex
	cfg  types.I2CConfig
	open Opener
	log  *slog.Logger

	drv         Driver
	own         *owner
	initialized bool
}

var _ drivers.I2C = (*Controller)(nil)

// Option customises a Controller.
type Option func(*Controller)

// WithLogger sets the diagnostic logger. Default: slog.Default() with component=i2c.
func WithLogger(l *slog.Logger) Option { return func(c *Controller) { c.log = l } }

// WithOpener replaces the platform backend, e.g. with a simulated bus.
func WithOpener(o Opener) Option { return func(c *Controller) { c.open = o } }

// New creates a Controller. It does not touch the hardware.
func New(cfg types.I2CConfig, opts ...Option) *Controller {
	c := &Controller{cfg: cfg.WithDefaults(), open: platform.Open}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller) logger() *slog.Logger {
	if c.log != nil {
		return c.log
	}
	return slog.Default().With("component", "i2c")
}

// Config returns the effective configuration.
func (c *Controller) Config() types.I2CConfig { return c.cfg }

// Initialized reports whether Init succeeded and Deinit has not run since.
func (c *Controller) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// Init installs the master driver. It is a no-op when already initialised.
// Without configured pins (or a host device node) it fails with
// errcode.Unsupported.
func (c *Controller) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}
	log := c.logger()
	if !c.cfg.Available() {
		log.Error("I2C is not available on this device")
		return &errcode.E{C: errcode.Unsupported, Op: "init", Msg: "no I2C pins configured"}
	}
	drv, err := c.open(c.cfg)
	if err != nil {
		log.Error("failed to initialize I2C driver", "port", c.cfg.Port, "err", err)
		return errcode.Wrap("init", err)
	}
	c.drv = drv
	c.own = newOwner(drv)
	c.initialized = true
	log.Info("I2C driver ready",
		"port", c.cfg.Port,
		"sda", c.cfg.SDA,
		"scl", c.cfg.SCL,
		"hz", c.cfg.Frequency,
		"pullup", c.cfg.PullUp(),
	)
	return nil
}

// Deinit removes the driver if installed. It always succeeds.
func (c *Controller) Deinit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		log := c.logger()
		if !c.own.stop(c.cfg.Timeout) {
			log.Warn("I2C worker still busy at teardown")
		}
		if err := c.drv.Close(); err != nil {
			log.Warn("I2C driver close failed", "err", err)
		} else {
			log.Info("I2C driver terminated")
		}
	}
	c.drv, c.own, c.initialized = nil, nil, false
	return nil
}

func (c *Controller) worker() (*owner, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.own, c.initialized
}

// Read reads len(buf) bytes from addr. When reg >= 0 the register byte is
// written first and the data is read after a repeated START.
func (c *Controller) Read(addr uint8, reg int, buf []byte) error {
	err := c.read(addr, reg, buf)
	if err != nil {
		c.fail("read", conv.Addr(addr), reg, err)
		return &errcode.E{C: errcode.Of(err), Op: "read", Msg: conv.Addr(addr), Err: err}
	}
	return nil
}

func (c *Controller) read(addr uint8, reg int, buf []byte) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	if err := checkReg(reg); err != nil {
		return err
	}
	if len(buf) == 0 {
		return errcode.InvalidParams
	}
	own, ok := c.worker()
	if !ok {
		return errcode.NotInitialized
	}
	return own.submit(ReadLink(addr, reg, buf), c.cfg.Timeout)
}

// Write writes data to addr, preceded by the register byte when reg >= 0.
// An empty data slice with NoRegister is an address-only probe.
func (c *Controller) Write(addr uint8, reg int, data []byte) error {
	err := c.write(addr, reg, data)
	if err != nil {
		c.fail("write", conv.Addr(addr), reg, err)
		return &errcode.E{C: errcode.Of(err), Op: "write", Msg: conv.Addr(addr), Err: err}
	}
	return nil
}

func (c *Controller) write(addr uint8, reg int, data []byte) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	if err := checkReg(reg); err != nil {
		return err
	}
	own, ok := c.worker()
	if !ok {
		return errcode.NotInitialized
	}
	return own.submit(WriteLink(addr, reg, data), c.cfg.Timeout)
}

// Tx implements drivers.I2C so TinyGo device drivers can share the bus
// with register access. It runs on the same worker with the same timeout.
func (c *Controller) Tx(addr uint16, w, r []byte) error {
	err := c.tx(addr, w, r)
	if err != nil {
		a := conv.Addr16(addr)
		c.fail("tx", a, NoRegister, err)
		return &errcode.E{C: errcode.Of(err), Op: "tx", Msg: a, Err: err}
	}
	return nil
}

func (c *Controller) tx(addr uint16, w, r []byte) error {
	if addr > MaxAddr {
		return errcode.InvalidParams
	}
	own, ok := c.worker()
	if !ok {
		return errcode.NotInitialized
	}
	return own.submit(TxLink(uint8(addr), w, r), c.cfg.Timeout)
}

// ReadReg reads one register. It returns 0 when the transaction fails.
func (c *Controller) ReadReg(addr, reg uint8) uint8 {
	var v [1]byte
	if c.Read(addr, int(reg), v[:]) != nil {
		return 0
	}
	return v[0]
}

// WriteReg writes one register.
func (c *Controller) WriteReg(addr, reg, value uint8) error {
	return c.Write(addr, int(reg), []byte{value})
}

// Scan probes ScanFirst..ScanLast with address-only writes and returns the
// addresses that acknowledged. Probe failures are not logged.
func (c *Controller) Scan() ([]uint8, error) {
	own, ok := c.worker()
	if !ok {
		return nil, &errcode.E{C: errcode.NotInitialized, Op: "scan"}
	}
	var found []uint8
	for a := uint8(ScanFirst); a <= ScanLast; a++ {
		err := own.submit(WriteLink(a, NoRegister, nil), c.cfg.Timeout)
		switch errcode.Of(err) {
		case errcode.OK:
			found = append(found, a)
		case errcode.NoDevice, errcode.NACK:
		case errcode.NotInitialized:
			return found, &errcode.E{C: errcode.NotInitialized, Op: "scan"}
		default:
			c.logger().Warn("I2C probe failed", "addr", conv.Addr(a), "err", err)
		}
	}
	return found, nil
}

func (c *Controller) fail(op, addr string, reg int, err error) {
	c.logger().Error("I2C "+op+" failed",
		"addr", addr,
		"reg", reg,
		"err", err,
		"init", c.Initialized(),
	)
}
