// Package machineerr defines the error kinds shared by every driver and
// coordination package in machine-api. A Kind is attached to an error with
// Wrap and recovered with KindOf; callers classify failures with errors.Is
// against the Kind sentinels rather than matching on error strings.
package machineerr

import (
	"errors"
	"fmt"
)

// Kind categorizes why an operation against a device or its supporting
// infrastructure failed.
type Kind int

const (
	// NotConfigured means a device identifier resolves to no driver.
	NotConfigured Kind = iota
	// Unauthorized means authentication failed after retry (RTSP, FTPS, MQTT).
	Unauthorized
	// NotFound means a resource path or stream is absent.
	NotFound
	// Protocol means a malformed message or unexpected state transition.
	Protocol
	// Timeout means a bounded wait elapsed with no response.
	Timeout
	// Io means the underlying transport failed (network/serial/filesystem).
	Io
	// Subprocess means an external binary returned non-zero or was missing.
	Subprocess
	// Invariant means an internal assertion was violated; the caller should
	// report it and isolate the affected driver rather than kill the process.
	Invariant
)

func (k Kind) String() string {
	switch k {
	case NotConfigured:
		return "not_configured"
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not_found"
	case Protocol:
		return "protocol"
	case Timeout:
		return "timeout"
	case Io:
		return "io"
	case Subprocess:
		return "subprocess"
	case Invariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// Error lets a bare Kind be used as the target of errors.Is(err,
// machineerr.Timeout); without it Kind is not itself an error.
func (k Kind) Error() string { return k.String() }

// Error pairs a Kind with an underlying cause and a component tag so logs
// can be grepped by component without parsing the message.
type Error struct {
	Kind      Kind
	Component string
	Err       error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Component, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Component, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a Kind equal to e.Kind, so callers can write
// errors.Is(err, machineerr.Timeout).
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// Wrap attaches kind and component to err. Wrap(nil, ...) returns nil.
func Wrap(kind Kind, component string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Component: component, Err: err}
}

// New builds a bare Kind error with no underlying cause.
func New(kind Kind, component, msg string) error {
	return &Error{Kind: kind, Component: component, Err: errors.New(msg)}
}

// KindOf extracts the Kind from err, if any *Error wraps it.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
