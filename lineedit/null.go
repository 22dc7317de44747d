package lineedit

import (
	"bufio"
	"context"
	"io"
)

// NullAdapter reads raw lines with no history or completion.
type NullAdapter struct {
	in  *bufio.Reader
	out io.Writer
	p   pump
}

// NewNullAdapter reads from in and writes prompts to out (which may be nil).
func NewNullAdapter(in io.Reader, out io.Writer) *NullAdapter {
	a := &NullAdapter{out: out}
	if in != nil {
		a.in = bufio.NewReader(in)
	}
	a.p.read = a.readRaw
	return a
}

func (a *NullAdapter) readRaw() (string, error) {
	if a.in == nil {
		return "", io.EOF
	}
	line, err := a.in.ReadString('\n')
	if err == io.EOF && line != "" {
		// last line without a terminator
		return trimNewline(line), nil
	}
	if err != nil {
		return "", err
	}
	return trimNewline(line), nil
}

func (a *NullAdapter) ReadLine(ctx context.Context, prompt string) (string, error) {
	if err := writePrompt(a.out, prompt); err != nil {
		return "", err
	}
	return a.p.next(ctx)
}

func (a *NullAdapter) AppendHistory(string)   {}
func (a *NullAdapter) SetCompletions([]string) {}
func (a *NullAdapter) Enhanced() bool          { return false }
func (a *NullAdapter) Close() error            { return nil }
