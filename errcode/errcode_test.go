package errcode

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestCodesAreStableStrings(t *testing.T) {
	cases := map[string]Code{
		"ok":              OK,
		"busy":            Busy,
		"timeout":         Timeout,
		"unsupported":     Unsupported,
		"invalid_params":  InvalidParams,
		"not_initialized": NotInitialized,
		"unknown_bus":     UnknownBus,
		"nack":            NACK,
		"no_device":       NoDevice,
		"error":           Error,
	}
	for want, c := range cases {
		if c.Error() != want {
			t.Fatalf("code %q mismatch: got %q", want, c.Error())
		}
	}
}

func TestOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", &E{C: NoDevice, Op: "read"})
	cases := []struct {
		err  error
		want Code
	}{
		{nil, OK},
		{Timeout, Timeout},
		{&E{C: NACK, Op: "write"}, NACK},
		{wrapped, NoDevice},
		{fmt.Errorf("x: %w", Busy), Busy},
		{context.DeadlineExceeded, Timeout},
		{errors.New("strange"), Error},
	}
	for i, c := range cases {
		if got := Of(c.err); got != c.want {
			t.Fatalf("case %d: Of(%v) = %q, want %q", i, c.err, got, c.want)
		}
	}
}

func TestWrapKeepsCodeAndCause(t *testing.T) {
	if Wrap("read", nil) != nil {
		t.Fatal("Wrap(nil) should be nil")
	}
	err := Wrap("read", NACK)
	if !errors.Is(err, NACK) {
		t.Fatalf("errors.Is(%v, NACK) = false", err)
	}
	if errors.Is(err, Timeout) {
		t.Fatal("wrapped NACK should not match Timeout")
	}
	if got := err.Error(); got != "read: nack" {
		t.Fatalf("unexpected message %q", got)
	}

	cause := errors.New("ioctl: remote I/O error")
	err = &E{C: NoDevice, Op: "write", Msg: "addr 0x50", Err: cause}
	if got := err.Error(); got != "write: no_device: addr 0x50 (ioctl: remote I/O error)" {
		t.Fatalf("unexpected message %q", got)
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause should be reachable through Unwrap")
	}
}
