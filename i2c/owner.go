package i2c

import (
	"time"

	"devicecode-i2c/errcode"

	"tinygo.org/x/drivers"
)

// request posted to the per-bus worker
type txReq struct {
	addr uint16
	w, r []byte
	done chan error // buffered(1); worker replies best-effort
}

// owner hosts the single goroutine allowed to touch the hardware.
type owner struct {
	bus  drivers.I2C
	reqs chan txReq
	quit chan struct{}
	exit chan struct{}
}

func newOwner(bus drivers.I2C) *owner {
	o := &owner{
		bus:  bus,
		reqs: make(chan txReq),
		quit: make(chan struct{}),
		exit: make(chan struct{}),
	}
	go o.loop()
	return o
}

func (o *owner) loop() {
	defer close(o.exit)
	for {
		select {
		case req := <-o.reqs:
			err := o.bus.Tx(req.addr, req.w, req.r)
			// best-effort reply; do not block the worker
			select {
			case req.done <- err:
			default:
			}
		case <-o.quit:
			return
		}
	}
}

// stop asks the worker to exit and waits up to wait for a transfer in flight
// to return. It reports whether the worker has exited.
func (o *owner) stop(wait time.Duration) bool {
	select {
	case <-o.quit:
	default:
		close(o.quit)
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-o.exit:
		return true
	case <-t.C:
		return false
	}
}

// submit flattens l and runs it on the worker within timeout.
//
// The worker reads into a private buffer which is copied out only on success,
// so a transfer that completes after the deadline never writes caller memory.
func (o *owner) submit(l *Link, timeout time.Duration) error {
	addr, w, r, err := l.Tx()
	if err != nil {
		return err
	}
	req := txReq{
		addr: addr,
		w:    append([]byte(nil), w...),
		done: make(chan error, 1),
	}
	if len(r) > 0 {
		req.r = make([]byte, len(r))
	}

	t := time.NewTimer(timeout)
	defer t.Stop()

	// Enqueue
	select {
	case o.reqs <- req:
	case <-o.quit:
		return errcode.NotInitialized
	case <-t.C:
		return errcode.Busy
	}

	// Completion
	select {
	case err := <-req.done:
		if err != nil {
			return err
		}
		copy(r, req.r)
		return nil
	case <-t.C:
		return errcode.Timeout
	}
}
