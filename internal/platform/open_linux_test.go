//go:build linux && !baremetal

package platform

import (
	"errors"
	"path/filepath"
	"testing"

	"devicecode-i2c/errcode"
	"devicecode-i2c/types"

	"golang.org/x/sys/unix"
)

func TestMapErrno(t *testing.T) {
	cases := map[unix.Errno]errcode.Code{
		unix.ENXIO:     errcode.NoDevice,
		unix.EREMOTEIO: errcode.NACK,
		unix.ETIMEDOUT: errcode.Timeout,
		unix.EAGAIN:    errcode.Busy,
		unix.EINVAL:    errcode.Unsupported,
		unix.EIO:       errcode.Error,
	}
	for errno, want := range cases {
		err := mapErrno(errno)
		if got := errcode.Of(err); got != want {
			t.Fatalf("%v: got %q, want %q", errno, got, want)
		}
		if !errors.Is(err, errno) {
			t.Fatalf("%v: errno not reachable via Unwrap", errno)
		}
	}
}

func TestOpenMissingNode(t *testing.T) {
	dev := filepath.Join(t.TempDir(), "i2c-9")
	_, err := Open(types.I2CConfig{Device: dev})
	if errcode.Of(err) != errcode.UnknownBus {
		t.Fatalf("expected unknown_bus, got %v", err)
	}
	if _, err := Open(types.I2CConfig{Port: "spi0"}); err != errcode.UnknownBus {
		t.Fatalf("expected unknown_bus for bad port, got %v", err)
	}
}

func TestClosedBusRejectsTx(t *testing.T) {
	b := &devBus{}
	if err := b.Tx(0x50, []byte{0}, nil); err != errcode.NotInitialized {
		t.Fatalf("expected not_initialized, got %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close on closed bus: %v", err)
	}
}

func TestTxRejectsOversizedMessages(t *testing.T) {
	b := &devBus{}
	cases := map[string][2]int{
		"write 64 KiB": {65536, 0},
		"read 64 KiB":  {0, 65536},
		"write 8193":   {maxMsgLen + 1, 0},
		"read 8193":    {1, maxMsgLen + 1},
	}
	for name, n := range cases {
		err := b.Tx(0x50, make([]byte, n[0]), make([]byte, n[1]))
		if errcode.Of(err) != errcode.InvalidParams {
			t.Fatalf("%s: expected invalid_params, got %v", name, err)
		}
	}
	// At the limit the length check passes and the closed bus answers.
	if err := b.Tx(0x50, make([]byte, maxMsgLen), nil); err != errcode.NotInitialized {
		t.Fatalf("8192-byte write: expected not_initialized, got %v", err)
	}
}
