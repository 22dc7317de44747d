package iochan

import (
	"context"
	"errors"
	"io"
	"sync"
)

// Writer is an io.Writer over a channel name. The name is resolved on
// every Write, so active redirections apply. Use it to hand registry
// channels to code that only knows io.Writer.
type Writer struct {
	reg  *Registry
	name string
	role Role
}

// NewWriter returns a Writer styling text as role. A nil reg means
// Default() at write time.
func NewWriter(reg *Registry, name string, role Role) *Writer {
	return &Writer{reg: reg, name: name, role: role}
}

func (w *Writer) Write(p []byte) (int, error) {
	reg := w.reg
	if reg == nil {
		reg = Default()
	}
	ch, err := reg.Get(w.name)
	if err != nil {
		return 0, err
	}
	if err := ch.Write(string(p), w.role); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Reader is an io.Reader over a channel name. It reads whole lines and
// returns them with a trailing newline; end of input reads as io.EOF.
type Reader struct {
	reg  *Registry
	name string
	ctx  context.Context

	mu  sync.Mutex
	buf []byte
}

// NewReader returns a Reader for name. A nil reg means Default() at read
// time.
func NewReader(reg *Registry, name string) *Reader {
	return &Reader{reg: reg, name: name, ctx: context.Background()}
}

// WithContext returns a copy of r whose reads are cancelled with ctx.
func (r *Reader) WithContext(ctx context.Context) *Reader {
	return &Reader{reg: r.reg, name: r.name, ctx: ctx}
}

func (r *Reader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.buf) == 0 {
		reg := r.reg
		if reg == nil {
			reg = Default()
		}
		ch, err := reg.Get(r.name)
		if err != nil {
			return 0, err
		}
		line, err := ch.Read(r.ctx, "")
		if errors.Is(err, ErrEndOfInput) {
			return 0, io.EOF
		}
		if err != nil {
			return 0, err
		}
		r.buf = append(r.buf[:0], line...)
		r.buf = append(r.buf, '\n')
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}
