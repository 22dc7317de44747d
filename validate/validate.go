// Package validate provides composable parsers for interactive answers.
//
// A Func turns the raw text typed by the user into a typed value or an
// error. Middleware wrap a Func the same way HTTP middleware wrap a handler,
// so cross-cutting behavior (trimming, panic recovery, logging) stays out of
// the individual parsers.
package validate

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"
)

// Func parses and validates one raw answer.
type Func[T any] func(input string) (T, error)

// Middleware wraps a Func.
type Middleware[T any] func(next Func[T]) Func[T]

// Chain is an ordered list of middleware.
type Chain[T any] []Middleware[T]

// NewChain creates a chain preserving the given order.
func NewChain[T any](middleware ...Middleware[T]) Chain[T] {
	return Chain[T](middleware)
}

// Apply wraps f so that the first middleware in the chain runs first.
func (c Chain[T]) Apply(f Func[T]) Func[T] {
	for i := len(c) - 1; i >= 0; i-- {
		f = c[i](f)
	}
	return f
}

// Use returns a new chain with the provided middleware appended.
func (c Chain[T]) Use(middleware ...Middleware[T]) Chain[T] {
	out := make(Chain[T], 0, len(c)+len(middleware))
	out = append(out, c...)
	return append(out, middleware...)
}

// ValidationError describes a rejected answer. Message is what the user sees.
type ValidationError struct {
	Rule    string
	Value   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil && e.Message == "" {
		return e.Cause.Error()
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// Errorf builds a ValidationError with a formatted message.
func Errorf(rule, value, format string, args ...any) *ValidationError {
	return &ValidationError{Rule: rule, Value: value, Message: fmt.Sprintf(format, args...)}
}

// RecoveryError is returned when a parser panics.
type RecoveryError struct {
	Panic any
	Input string
	Stack []byte
}

func (e *RecoveryError) Error() string {
	return fmt.Sprintf("validator panicked on %q: %v", e.Input, e.Panic)
}

type recoveryConfig struct {
	stack     bool
	stackSize int
}

// RecoveryOption configures Recovery.
type RecoveryOption func(*recoveryConfig)

// WithStackTrace captures the goroutine stack into RecoveryError.Stack.
func WithStackTrace(enabled bool) RecoveryOption {
	return func(c *recoveryConfig) { c.stack = enabled }
}

// Recovery converts a panicking parser into a RecoveryError so a buggy
// validator costs the user one attempt instead of the process.
func Recovery[T any](options ...RecoveryOption) Middleware[T] {
	cfg := recoveryConfig{stackSize: 4096}
	for _, o := range options {
		o(&cfg)
	}
	return func(next Func[T]) Func[T] {
		return func(input string) (v T, err error) {
			defer func() {
				if r := recover(); r != nil {
					rerr := &RecoveryError{Panic: r, Input: input}
					if cfg.stack {
						buf := make([]byte, cfg.stackSize)
						rerr.Stack = buf[:runtime.Stack(buf, false)]
					}
					var zero T
					v, err = zero, rerr
				}
			}()
			return next(input)
		}
	}
}

// Logger logs every validation at debug level, and rejections at info.
func Logger[T any](logger *slog.Logger) Middleware[T] {
	return func(next Func[T]) Func[T] {
		if logger == nil {
			return next
		}
		return func(input string) (T, error) {
			start := time.Now()
			v, err := next(input)
			attrs := []any{
				slog.Int("input_len", len(input)),
				slog.Duration("took", time.Since(start)),
			}
			if err != nil {
				logger.Info("answer rejected", append(attrs, slog.String("error", err.Error()))...)
			} else {
				logger.Debug("answer accepted", attrs...)
			}
			return v, err
		}
	}
}

// TrimSpace strips surrounding whitespace before parsing.
func TrimSpace[T any]() Middleware[T] {
	return func(next Func[T]) Func[T] {
		return func(input string) (T, error) { return next(strings.TrimSpace(input)) }
	}
}

// Lower lowercases the input before parsing.
func Lower[T any]() Middleware[T] {
	return func(next Func[T]) Func[T] {
		return func(input string) (T, error) { return next(strings.ToLower(input)) }
	}
}

// Default substitutes def when the input is empty.
func Default[T any](def string) Middleware[T] {
	return func(next Func[T]) Func[T] {
		return func(input string) (T, error) {
			if input == "" {
				input = def
			}
			return next(input)
		}
	}
}
