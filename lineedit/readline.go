package lineedit

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/chzyer/readline"
)

// Config configures Select and the readline backend.
type Config struct {
	// Enabled allows the readline backend when the input is a terminal.
	Enabled      bool
	In           io.Reader
	Out          io.Writer
	Err          io.Writer
	HistoryFile  string
	HistoryLimit int
}

// PasswordReader is implemented by adapters that can read without echo.
type PasswordReader interface {
	ReadPassword(ctx context.Context, prompt string) (string, error)
}

// ReadlineAdapter delegates to github.com/chzyer/readline for history
// navigation and tab completion.
//
// The readline instance starts reading its input as soon as it exists, so
// it is created on the first read rather than at construction. If it
// cannot be created then, the adapter degrades to plain line reads.
type ReadlineAdapter struct {
	cfg       Config
	completer *Completer
	p         pump

	mu       sync.Mutex
	rl       *readline.Instance
	fallback *NullAdapter
	prompt   string
	closed   bool
}

// NewReadlineAdapter returns an adapter bound to cfg's streams. Nil streams
// default to the process stdio.
func NewReadlineAdapter(cfg Config) *ReadlineAdapter {
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Err == nil {
		cfg.Err = os.Stderr
	}
	a := &ReadlineAdapter{cfg: cfg, completer: NewCompleter()}
	a.p.read = a.readRaw
	return a
}

// instance returns the readline instance, creating it on first use. A nil
// result means the backend is unavailable. Caller holds mu.
func (a *ReadlineAdapter) instance() *readline.Instance {
	if a.rl != nil || a.fallback != nil {
		return a.rl
	}
	rl, err := readline.NewEx(&readline.Config{
		HistoryFile:            a.cfg.HistoryFile,
		HistoryLimit:           a.cfg.HistoryLimit,
		DisableAutoSaveHistory: true,
		AutoComplete:           a.completer,
		InterruptPrompt:        "^C",
		EOFPrompt:              "",
		Stdin:                  readline.NewCancelableStdin(a.cfg.In),
		Stdout:                 a.cfg.Out,
		Stderr:                 a.cfg.Err,
	})
	if err != nil {
		a.fallback = NewNullAdapter(a.cfg.In, a.cfg.Out)
		return nil
	}
	a.rl = rl
	return rl
}

func (a *ReadlineAdapter) readRaw() (string, error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return "", io.EOF
	}
	rl := a.instance()
	prompt := a.prompt
	if rl == nil {
		fb := a.fallback
		a.mu.Unlock()
		if err := writePrompt(a.cfg.Out, prompt); err != nil {
			return "", err
		}
		return fb.readRaw()
	}
	rl.SetPrompt(prompt)
	a.mu.Unlock()

	line, err := rl.Readline()
	switch {
	case errors.Is(err, readline.ErrInterrupt):
		return "", ErrInterrupted
	case errors.Is(err, io.EOF):
		return "", io.EOF
	case err != nil:
		return "", err
	}
	return trimNewline(line), nil
}

func (a *ReadlineAdapter) ReadLine(ctx context.Context, prompt string) (string, error) {
	a.mu.Lock()
	a.prompt = prompt
	a.mu.Unlock()
	return a.p.next(ctx)
}

// ReadPassword reads a line with echo disabled.
func (a *ReadlineAdapter) ReadPassword(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Join(ErrInterrupted, err)
	}
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return "", io.EOF
	}
	rl := a.instance()
	fb := a.fallback
	a.mu.Unlock()

	if rl == nil {
		if err := writePrompt(a.cfg.Out, prompt); err != nil {
			return "", err
		}
		return fb.readRaw()
	}
	b, err := rl.ReadPassword(prompt)
	switch {
	case errors.Is(err, readline.ErrInterrupt):
		return "", ErrInterrupted
	case err != nil:
		return "", err
	}
	return string(b), nil
}

// AppendHistory records a non-empty line in memory and in the history file.
func (a *ReadlineAdapter) AppendHistory(line string) {
	if line == "" {
		return
	}
	a.mu.Lock()
	rl := a.rl
	a.mu.Unlock()
	if rl != nil {
		_ = rl.SaveHistory(line)
	}
}

func (a *ReadlineAdapter) SetCompletions(options []string) { a.completer.SetOptions(options) }

// Completer exposes the installed completer, e.g. to set a single option.
func (a *ReadlineAdapter) Completer() *Completer { return a.completer }

func (a *ReadlineAdapter) Enhanced() bool { return true }

func (a *ReadlineAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	if a.rl != nil {
		return a.rl.Close()
	}
	return nil
}
