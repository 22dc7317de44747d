package iochan

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dzonerzy/go-iochan/lineedit"
)

// ErrorKind categorizes failures. Kinds drive errors.Is matching and the
// exit-code mapping in ExitCodes.
type ErrorKind string

const (
	KindChannelClosed         ErrorKind = "channel_closed"
	KindEndOfInput            ErrorKind = "end_of_input"
	KindInterrupted           ErrorKind = "interrupted"
	KindUnknownChannel        ErrorKind = "unknown_channel"
	KindChannelStackUnderflow ErrorKind = "channel_stack_underflow"
	KindInvalidRedirection    ErrorKind = "invalid_redirection"
	KindValidationExhausted   ErrorKind = "validation_exhausted"
)

// Sentinels for errors.Is. Any *Error with the same Kind matches.
var (
	ErrChannelClosed         = &Error{Kind: KindChannelClosed, Message: "channel closed"}
	ErrEndOfInput            = &Error{Kind: KindEndOfInput, Message: "end of input"}
	ErrInterrupted           = &Error{Kind: KindInterrupted, Message: "interrupted"}
	ErrUnknownChannel        = &Error{Kind: KindUnknownChannel, Message: "unknown channel"}
	ErrChannelStackUnderflow = &Error{Kind: KindChannelStackUnderflow, Message: "channel stack underflow"}
	ErrInvalidRedirection    = &Error{Kind: KindInvalidRedirection, Message: "invalid redirection"}
	ErrValidationExhausted   = &Error{Kind: KindValidationExhausted, Message: "validation attempts exhausted"}
)

// Error is the error type returned by every operation in this package.
type Error struct {
	Kind        ErrorKind
	Op          string
	Channel     string
	Message     string
	Suggestions []string
	Cause       error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Channel != "" {
		fmt.Fprintf(&b, "channel %q: ", e.Channel)
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	if len(e.Suggestions) > 0 {
		b.WriteString(" (did you mean ")
		for i, s := range e.Suggestions {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%q", s)
		}
		b.WriteString("?)")
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind ErrorKind, op, channel, message string) *Error {
	return &Error{Kind: kind, Op: op, Channel: channel, Message: message}
}

func (e *Error) withCause(err error) *Error {
	e.Cause = err
	return e
}

func (e *Error) withSuggestions(s []string) *Error {
	e.Suggestions = s
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsProgrammerError reports errors caused by mismatched code rather than
// run-time conditions: unknown channels and broken scope nesting.
func IsProgrammerError(err error) bool {
	switch KindOf(err) {
	case KindUnknownChannel, KindChannelStackUnderflow:
		return true
	}
	return false
}

// translateReadError maps adapter errors onto this package's kinds.
func translateReadError(op, channel string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, lineedit.ErrInterrupted):
		return newError(KindInterrupted, op, channel, "read interrupted").withCause(err)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return newError(KindEndOfInput, op, channel, "end of input").withCause(err)
	case errors.Is(err, ErrInterrupted), errors.Is(err, ErrEndOfInput), errors.Is(err, ErrChannelClosed):
		return err
	}
	return newError(KindChannelClosed, op, channel, "read failed").withCause(err)
}
