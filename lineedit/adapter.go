// Package lineedit abstracts interactive line input. Channels depend only on
// the Adapter interface; a readline-backed implementation is used when the
// input is a terminal and a plain reader otherwise.
package lineedit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrInterrupted is returned when the user or the caller's context cancels a
// read. It is distinct from io.EOF, which means the source is exhausted.
var ErrInterrupted = errors.New("lineedit: interrupted")

// Adapter reads one line at a time, optionally with history and completion.
type Adapter interface {
	// ReadLine shows prompt and returns the entered line without its
	// trailing newline.
	ReadLine(ctx context.Context, prompt string) (string, error)
	AppendHistory(line string)
	// SetCompletions installs candidates for the next reads; nil clears them.
	SetCompletions(options []string)
	// Enhanced reports whether the adapter draws the prompt itself.
	Enhanced() bool
	Close() error
}

type readResult struct {
	line string
	err  error
}

// pump runs a blocking read function and lets callers abandon it through a
// context. An abandoned read keeps running and its line is handed to the
// next caller, so input is never dropped.
type pump struct {
	read func() (string, error)

	mu      sync.Mutex
	pending chan readResult
}

func (p *pump) next(ctx context.Context) (string, error) {
	p.mu.Lock()
	ch := p.pending
	if ch == nil && ctx.Done() == nil {
		p.mu.Unlock()
		return p.read()
	}
	if ch == nil {
		ch = make(chan readResult, 1)
		p.pending = ch
		go func() {
			line, err := p.read()
			ch <- readResult{line: line, err: err}
		}()
	}
	p.mu.Unlock()

	select {
	case r := <-ch:
		p.mu.Lock()
		if p.pending == ch {
			p.pending = nil
		}
		p.mu.Unlock()
		return r.line, r.err
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", ErrInterrupted, context.Cause(ctx))
	}
}

func trimNewline(s string) string {
	return strings.TrimSuffix(strings.TrimSuffix(s, "\n"), "\r")
}

// writePrompt is used by adapters that do not draw the prompt themselves.
func writePrompt(w io.Writer, prompt string) error {
	if w == nil || prompt == "" {
		return nil
	}
	_, err := io.WriteString(w, prompt)
	return err
}
