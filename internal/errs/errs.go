// Package errs defines the error kinds used across the repository and a
// constructor that captures the call site, so that a failure surfaced several
// layers up still names the operation that produced it.
package errs

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Kind classifies an error.
type Kind uint8

const (
	// InvalidArgument reports an arity mismatch at construction, a position
	// out of range, or arguments referring to a foreign pool.
	InvalidArgument Kind = iota + 1
	// IO wraps failures of the underlying reader or writer.
	IO
	// MalformedStream reports a missing marker, a truncated variable-length
	// integer, or a stream index out of range.
	MalformedStream
	// Unsupported reports a stream feature the reader does not implement.
	Unsupported
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case IO:
		return "io error"
	case MalformedStream:
		return "malformed stream"
	case Unsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Error carries a kind, a message, an optional cause and the program counters
// of the call site that created it.
type Error struct {
	kind  Kind
	msg   string
	cause error
	stack []uintptr
}

// New constructs an Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg, stack: callers()}
}

// Newf constructs an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...), stack: callers()}
}

// Wrap attaches kind and message to an underlying cause.  A nil cause yields
// nil.
func Wrap(kind Kind, cause error, msg string) error {
	if cause == nil {
		return nil
	}
	return &Error{kind: kind, msg: msg, cause: cause, stack: callers()}
}

func callers() []uintptr {
	pcs := make([]uintptr, 16)
	// Skip runtime.Callers, callers and the constructor frame.
	n := runtime.Callers(3, pcs)
	return pcs[:n]
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

// Kind returns the error's classification.
func (e *Error) Kind() Kind { return e.kind }

// Unwrap exposes the cause for errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Trace renders the captured call sites, one frame per line.
func (e *Error) Trace() string {
	var sb strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&sb, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return sb.String()
}

// IsKind reports whether any error in err's chain is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	for errors.As(err, &e) {
		if e.kind == k {
			return true
		}
		err = e.cause
		if err == nil {
			return false
		}
	}
	return false
}
