package errcode

import (
	"context"
	"errors"
)

// Code is a stable, log-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK             Code = "ok"
	Busy           Code = "busy"
	Timeout        Code = "timeout"
	Unsupported    Code = "unsupported"
	InvalidParams  Code = "invalid_params"
	NotInitialized Code = "not_initialized"
	UnknownBus     Code = "unknown_bus"

	// Bus-level outcomes.
	NACK     Code = "nack"      // a data byte was not acknowledged
	NoDevice Code = "no_device" // the address byte was not acknowledged

	Error Code = "error" // generic fallback
)

// E keeps context and a cause next to a Code.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil && e.Err != error(e.C) {
		s += " (" + e.Err.Error() + ")"
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, errcode.X) match a wrapped *E by code.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Wrap attaches op context to err. The code is taken from err.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &E{C: Of(err), Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return MapDriverErr(err)
}

// MapDriverErr maps low-level driver errors to a Code.
// Platform backends translate their own errno values before returning.
func MapDriverErr(err error) Code {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, context.DeadlineExceeded):
		return Timeout
	case errors.Is(err, context.Canceled):
		return Busy
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return Error
}
