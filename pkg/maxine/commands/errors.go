package commands

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies dispatch failures.
type ErrorKind int

const (
	// NotImplemented means no handler is registered under the name.
	NotImplemented ErrorKind = iota + 1
	// InvalidOption means a required option was missing or had the wrong kind.
	InvalidOption
	// HandlerError means the handler returned an error.
	HandlerError
	// HandlerFault means the handler panicked or returned neither reply nor error.
	HandlerFault
)

// String returns a short label used in logs.
func (k ErrorKind) String() string {
	switch k {
	case NotImplemented:
		return "not_implemented"
	case InvalidOption:
		return "invalid_option"
	case HandlerError:
		return "handler_error"
	case HandlerFault:
		return "handler_fault"
	default:
		return "unknown"
	}
}

// Sentinel errors matched by DispatchError.Is.
var (
	ErrNotImplemented = errors.New("commands: command not implemented")
	ErrInvalidOption  = errors.New("commands: invalid option")
	ErrHandlerFault   = errors.New("commands: handler fault")

	// ErrDuplicateCommand is returned by Register for an already-used name.
	ErrDuplicateCommand = errors.New("commands: duplicate command")

	// ErrRegistryFrozen is returned by Register once dispatching has begun.
	ErrRegistryFrozen = errors.New("commands: registry is frozen")

	// ErrAlreadyReplied is returned when a second reply is attempted.
	ErrAlreadyReplied = errors.New("commands: reply already sent")

	errMissingOption = errors.New("required option is missing")
	errNoReply       = errors.New("handler returned no reply")
)

// DispatchError describes why a dispatched command did not succeed.
type DispatchError struct {
	Kind    ErrorKind
	Command string
	Option  string
	Err     error
}

func (e *DispatchError) Error() string {
	switch e.Kind {
	case NotImplemented:
		return fmt.Sprintf("commands: %q is not implemented", e.Command)
	case InvalidOption:
		return fmt.Sprintf("commands: %q: invalid option %q: %v", e.Command, e.Option, e.Err)
	default:
		return fmt.Sprintf("commands: %q: %s: %v", e.Command, e.Kind, e.Err)
	}
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Is matches the kind sentinels.
func (e *DispatchError) Is(target error) bool {
	switch target {
	case ErrNotImplemented:
		return e.Kind == NotImplemented
	case ErrInvalidOption:
		return e.Kind == InvalidOption
	case ErrHandlerFault:
		return e.Kind == HandlerFault
	}
	return false
}

// UserError carries a message that is safe to show to the caller verbatim.
// Handlers return it for expected collaborator failures ("Error downloading
// video: ..."); every other error is replaced with a generic message.
type UserError struct {
	Message string
	Err     error
}

// Errorf builds a UserError. A %w verb keeps the cause for errors.Is/As.
func Errorf(format string, args ...any) error {
	wrapped := fmt.Errorf(format, args...)
	return &UserError{Message: wrapped.Error(), Err: errors.Unwrap(wrapped)}
}

func (e *UserError) Error() string { return e.Message }

func (e *UserError) Unwrap() error { return e.Err }

const (
	msgNotImplemented = "This command is not implemented."
	msgGenericFailure = "Something went wrong while running this command. Please try again later."
	msgTimeout        = "That took too long. Please try again later."
)

// errorReply renders a dispatch failure as a user-facing reply.
func errorReply(err *DispatchError) *Reply {
	var text string
	switch err.Kind {
	case NotImplemented:
		text = msgNotImplemented
	case InvalidOption:
		if errors.Is(err.Err, errMissingOption) {
			text = fmt.Sprintf("Missing required option `%s`.", err.Option)
		} else {
			text = fmt.Sprintf("Invalid value for option `%s`: %v.", err.Option, err.Err)
		}
	case HandlerError:
		var ue *UserError
		switch {
		case errors.As(err.Err, &ue):
			text = ue.Message
		case errors.Is(err.Err, context.DeadlineExceeded):
			text = msgTimeout
		default:
			text = msgGenericFailure
		}
	default:
		text = msgGenericFailure
	}
	return &Reply{Content: text, Ephemeral: true}
}
