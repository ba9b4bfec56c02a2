package bridge

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package matches exactly one of
// these with errors.Is.
var (
	ErrConfiguration          = errors.New("configuration error")
	ErrInvalidDestination     = errors.New("invalid destination")
	ErrInvalidArguments       = errors.New("invalid arguments")
	ErrTransportUnavailable   = errors.New("transport unavailable")
	ErrInboxBusy              = errors.New("inbox busy")
	ErrIO                     = errors.New("i/o error")
	ErrUnrecognizedInvocation = errors.New("unrecognized invocation")
)

// Error ties a failure to its kind and the operation that produced it.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Exit codes reported to the host or transport.
const (
	ExitOK                     = 0
	ExitFailure                = 1
	ExitUnrecognizedInvocation = 2
	ExitConfiguration          = 3
	ExitInvalidInput           = 4
	ExitTransportUnavailable   = 5
	ExitInboxBusy              = 6
	ExitIO                     = 7
)

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUnrecognizedInvocation):
		return ExitUnrecognizedInvocation
	case errors.Is(err, ErrConfiguration):
		return ExitConfiguration
	case errors.Is(err, ErrInvalidDestination), errors.Is(err, ErrInvalidArguments):
		return ExitInvalidInput
	case errors.Is(err, ErrTransportUnavailable):
		return ExitTransportUnavailable
	case errors.Is(err, ErrInboxBusy):
		return ExitInboxBusy
	case errors.Is(err, ErrIO):
		return ExitIO
	default:
		return ExitFailure
	}
}

// ConfigError wraps a config loading failure.
func ConfigError(err error) error {
	return newError(ErrConfiguration, "load config", err)
}
