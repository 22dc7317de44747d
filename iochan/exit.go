package iochan

import "errors"

// ExitError requests a specific exit code from inside an action.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "exit"
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCodeDefaults holds the codes used when no kind mapping matches.
type ExitCodeDefaults struct {
	Success      int // default: 0
	GeneralError int // default: 1
	Interrupted  int // default: 130 (128+SIGINT)
}

// ExitCodes maps errors from this package to process exit statuses.
type ExitCodes struct {
	byKind   map[ErrorKind]int
	defaults ExitCodeDefaults
}

// NewExitCodes returns the standard mapping:
// interrupted 130, end of input 0, validation exhausted 3,
// invalid redirection and programmer errors 70, channel closed 74.
func NewExitCodes() *ExitCodes {
	m := &ExitCodes{
		byKind:   make(map[ErrorKind]int),
		defaults: ExitCodeDefaults{Success: 0, GeneralError: 1, Interrupted: 130},
	}
	m.byKind[KindInterrupted] = m.defaults.Interrupted
	m.byKind[KindEndOfInput] = m.defaults.Success
	m.byKind[KindValidationExhausted] = 3
	m.byKind[KindInvalidRedirection] = 70 // EX_SOFTWARE
	m.byKind[KindUnknownChannel] = 70
	m.byKind[KindChannelStackUnderflow] = 70
	m.byKind[KindChannelClosed] = 74 // EX_IOERR
	return m
}

// Define overrides the code for one error kind.
func (m *ExitCodes) Define(kind ErrorKind, code int) *ExitCodes {
	m.byKind[kind] = code
	return m
}

// Default replaces the fallback codes.
func (m *ExitCodes) Default(d ExitCodeDefaults) *ExitCodes {
	m.defaults = d
	return m
}

// Resolve converts err to an exit code.
// Precedence: ExitError, then error kind, then defaults.
func (m *ExitCodes) Resolve(err error) int {
	if err == nil {
		return m.defaults.Success
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if code, ok := m.byKind[KindOf(err)]; ok {
		return code
	}
	return m.defaults.GeneralError
}

var standardExitCodes = NewExitCodes()

// ExitCode resolves err with the standard mapping.
func ExitCode(err error) int { return standardExitCodes.Resolve(err) }
