// Package kerr provides the structured error taxonomy used across the engine.
package kerr

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an error per the taxonomy in the error handling design:
// wire-level recoverable/fatal, application, I/O, and resource exhaustion.
type Kind string

const (
	// KindWireRecoverable covers malformed input that is handled without
	// tearing down the connection (e.g. an unknown HTTP/2 frame type).
	KindWireRecoverable Kind = "wire_recoverable"
	// KindWireFatal covers protocol violations that require closing the
	// connection (bad preface, bad SETTINGS length, HPACK decode failure).
	KindWireFatal Kind = "wire_fatal"
	// KindApplication covers router/handler failures.
	KindApplication Kind = "application"
	// KindIO covers socket read/write failures.
	KindIO Kind = "io"
	// KindResource covers exhaustion of a bounded resource (slot table full).
	KindResource Kind = "resource"
)

// Error is a structured error carrying enough context for a caller of
// process()/write() to decide whether to close the connection.
type Error struct {
	Kind      Kind
	Op        string
	Message   string
	Cause     error
	Timestamp time.Time
}

func (e *Error) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Kind, e.Op)
	if e.Message != "" {
		s += ": " + e.Message
	}
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// Is matches on Kind, mirroring the teacher's type-based comparison.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func newError(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Cause: cause, Timestamp: time.Now()}
}

// NewFrameError builds a wire-fatal error for frame codec failures
// (oversized frame, truncated header, bad stream id).
func NewFrameError(op, message string, cause error) *Error {
	return newError(KindWireFatal, op, message, cause)
}

// NewRecoverableFrameError builds a wire-recoverable error (unknown frame
// type, stream-level protocol violation resolved with RST_STREAM).
func NewRecoverableFrameError(op, message string) *Error {
	return newError(KindWireRecoverable, op, message, nil)
}

// NewHPACKError builds a wire-fatal error for HPACK decode failures
// (unknown index, truncated literal).
func NewHPACKError(op, message string, cause error) *Error {
	return newError(KindWireFatal, op, message, cause)
}

// NewParseError builds a wire-recoverable error for HTTP/1.1 parse failures;
// callers respond 400 and close rather than tearing the whole reactor down.
func NewParseError(op, message string) *Error {
	return newError(KindWireRecoverable, op, message, nil)
}

// NewApplicationError wraps a handler panic or router failure.
func NewApplicationError(op string, cause error) *Error {
	return newError(KindApplication, op, "handler error", cause)
}

// NewIOError wraps a socket read/write failure.
func NewIOError(op string, cause error) *Error {
	return newError(KindIO, op, "", cause)
}

// NewResourceError reports exhaustion of a bounded resource.
func NewResourceError(op, message string) *Error {
	return newError(KindResource, op, message, nil)
}

// IsFatal reports whether err should cause the caller to close the
// connection, per the propagation policy in the error handling design.
func IsFatal(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == KindWireFatal || e.Kind == KindIO
	}
	return false
}

// KindOf returns the Kind of a structured error, or "" if err isn't one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
