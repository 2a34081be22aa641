package errcode

import "expandercode-go/drivers/pca9536"

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK                Code = "ok"
	Busy              Code = "busy"
	Unsupported       Code = "unsupported"
	InvalidParams     Code = "invalid_params"
	InvalidMode       Code = "invalid_mode"
	UnknownCapability Code = "unknown_capability"
	UnknownDevice     Code = "unknown_device"
	UnknownPin        Code = "unknown_pin"
	Timeout           Code = "timeout"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}

// MapDriverErr maps expander driver errors to a Code. Transport faults
// fall through to the generic Error code.
func MapDriverErr(err error) Code {
	switch err {
	case nil:
		return OK
	case pca9536.ErrInvalidMode:
		return InvalidMode
	case pca9536.ErrPinRange:
		return UnknownPin
	default:
		return Error
	}
}
