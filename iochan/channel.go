package iochan

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/term"

	"github.com/dzonerzy/go-iochan/lineedit"
	"github.com/dzonerzy/go-iochan/style"
)

// Direction says which operations a channel supports.
type Direction int

const (
	DirOutput Direction = 1 << iota
	DirInput
	DirBoth = DirOutput | DirInput
)

func (d Direction) String() string {
	switch d {
	case DirOutput:
		return "output"
	case DirInput:
		return "input"
	case DirBoth:
		return "both"
	}
	return "none"
}

func (d Direction) canWrite() bool { return d&DirOutput != 0 }
func (d Direction) canRead() bool  { return d&DirInput != 0 }

// ContentRenderer turns rich text (markdown) into terminal output of the
// given width. Width 0 means unknown.
type ContentRenderer interface {
	Render(text string, width int) (string, error)
}

// Channel is a named I/O endpoint. All I/O on one channel is serialized.
type Channel struct {
	*channelState
	held bool // true for the view passed to Exclusive
}

type channelState struct {
	name    string
	dir     Direction
	w       io.Writer
	r       io.Reader
	promptW io.Writer
	closer  io.Closer
	capture *bytes.Buffer

	fmt       style.Formatter
	adapter   lineedit.Adapter
	delegates []Log
	renderer  ContentRenderer
	cols      int
	rows      int

	mu      sync.Mutex
	enabled atomic.Bool
	closed  atomic.Bool
}

// Option configures a channel at construction.
type Option func(*channelConfig)

type channelConfig struct {
	dir          Direction
	w            io.Writer
	r            io.Reader
	promptW      io.Writer
	closer       io.Closer
	color        style.ColorMode
	spec         style.Spec
	formatter    style.Formatter
	adapter      lineedit.Adapter
	lineEditing  bool
	historyFile  string
	historyLimit int
	delegates    []Log
	renderer     ContentRenderer
	cols, rows   int
}

// WithWriter sets the sink.
func WithWriter(w io.Writer) Option { return func(c *channelConfig) { c.w = w } }

// WithReader sets the source.
func WithReader(r io.Reader) Option { return func(c *channelConfig) { c.r = r } }

// WithInputLines scripts the source with the given lines.
func WithInputLines(lines ...string) Option {
	return func(c *channelConfig) {
		var b strings.Builder
		for _, l := range lines {
			b.WriteString(l)
			b.WriteByte('\n')
		}
		c.r = strings.NewReader(b.String())
	}
}

// WithDirection overrides the direction inferred from writer and reader.
func WithDirection(d Direction) Option { return func(c *channelConfig) { c.dir = d } }

// WithPromptWriter sets where an input-only channel shows its prompts.
func WithPromptWriter(w io.Writer) Option { return func(c *channelConfig) { c.promptW = w } }

// WithCloser registers a resource released by Close.
func WithCloser(cl io.Closer) Option { return func(c *channelConfig) { c.closer = cl } }

// WithColor selects the color mode used by the capability probe.
func WithColor(mode style.ColorMode) Option { return func(c *channelConfig) { c.color = mode } }

// WithStyleSpec replaces the role table used when styling is supported.
func WithStyleSpec(spec style.Spec) Option { return func(c *channelConfig) { c.spec = spec } }

// WithFormatter skips the probe and uses f.
func WithFormatter(f style.Formatter) Option { return func(c *channelConfig) { c.formatter = f } }

// WithAdapter skips adapter selection and uses a.
func WithAdapter(a lineedit.Adapter) Option { return func(c *channelConfig) { c.adapter = a } }

// WithLineEditing enables or disables the readline backend for terminals.
func WithLineEditing(enabled bool) Option { return func(c *channelConfig) { c.lineEditing = enabled } }

// WithHistory sets the readline history file and size.
func WithHistory(file string, limit int) Option {
	return func(c *channelConfig) { c.historyFile, c.historyLimit = file, limit }
}

// WithDelegates mirrors all output into logs.
func WithDelegates(logs ...Log) Option {
	return func(c *channelConfig) { c.delegates = append(c.delegates, logs...) }
}

// WithRenderer sets the renderer used by Markdown.
func WithRenderer(r ContentRenderer) Option { return func(c *channelConfig) { c.renderer = r } }

// WithSize fixes the window size reported by Size.
func WithSize(cols, rows int) Option { return func(c *channelConfig) { c.cols, c.rows = cols, rows } }

// New builds a channel from options. The direction defaults to whatever the
// writer and reader allow.
func New(name string, opts ...Option) *Channel {
	cfg := channelConfig{}
	for _, o := range opts {
		o(&cfg)
	}
	return build(name, cfg, nil)
}

func build(name string, cfg channelConfig, capture *bytes.Buffer) *Channel {
	if cfg.dir == 0 {
		if cfg.w != nil {
			cfg.dir |= DirOutput
		}
		if cfg.r != nil {
			cfg.dir |= DirInput
		}
	}

	s := &channelState{
		name:      name,
		dir:       cfg.dir,
		w:         cfg.w,
		r:         cfg.r,
		promptW:   cfg.promptW,
		closer:    cfg.closer,
		capture:   capture,
		delegates: cfg.delegates,
		renderer:  cfg.renderer,
		cols:      cfg.cols,
		rows:      cfg.rows,
	}
	if s.promptW == nil && s.dir.canWrite() {
		s.promptW = s.w
	}

	s.fmt = cfg.formatter
	if s.fmt == nil {
		probeTarget := s.w
		if probeTarget == nil {
			probeTarget = s.promptW
		}
		if probeTarget == nil {
			probeTarget = io.Discard
		}
		spec := cfg.spec
		if spec == nil {
			spec = style.DefaultSpec()
		}
		s.fmt = style.New(style.Probe(probeTarget, cfg.color), spec)
	}

	s.adapter = cfg.adapter
	if s.adapter == nil && s.dir.canRead() {
		s.adapter = lineedit.Select(lineedit.Config{
			Enabled:      cfg.lineEditing,
			In:           s.r,
			Out:          s.promptW,
			HistoryFile:  cfg.historyFile,
			HistoryLimit: cfg.historyLimit,
		})
	}

	s.enabled.Store(true)
	return &Channel{channelState: s}
}

// NewConsole builds a channel over process streams with line editing
// enabled for terminal input.
func NewConsole(name string, w io.Writer, r io.Reader, opts ...Option) *Channel {
	cfg := channelConfig{w: w, r: r, lineEditing: true}
	for _, o := range opts {
		o(&cfg)
	}
	return build(name, cfg, nil)
}

// Stdout returns a console channel named "stdout".
func Stdout(opts ...Option) *Channel { return NewConsole("stdout", os.Stdout, nil, opts...) }

// Stderr returns a console channel named "stderr".
func Stderr(opts ...Option) *Channel { return NewConsole("stderr", os.Stderr, nil, opts...) }

// Stdin returns a console channel named "stdin" that shows prompts on
// standard output.
func Stdin(opts ...Option) *Channel {
	return NewConsole("stdin", nil, os.Stdin, append([]Option{WithPromptWriter(os.Stdout)}, opts...)...)
}

// NewCapture builds a channel that accumulates output in memory. It reads
// from WithInputLines/WithReader when given, else reports end of input.
// Styling is off unless WithColor(style.ColorAlways) is passed.
func NewCapture(name string, opts ...Option) *Channel {
	buf := &bytes.Buffer{}
	cfg := channelConfig{dir: DirBoth, color: style.ColorNever}
	for _, o := range opts {
		o(&cfg)
	}
	cfg.w = buf
	if cfg.r == nil {
		cfg.r = strings.NewReader("")
	}
	return build(name, cfg, buf)
}

// NewNull builds a channel that discards output and has no input.
func NewNull(name string, opts ...Option) *Channel {
	cfg := channelConfig{dir: DirBoth, color: style.ColorNever}
	for _, o := range opts {
		o(&cfg)
	}
	cfg.w = io.Discard
	cfg.r = strings.NewReader("")
	return build(name, cfg, nil)
}

func (c *Channel) lock() {
	if !c.held {
		c.mu.Lock()
	}
}

func (c *Channel) unlock() {
	if !c.held {
		c.mu.Unlock()
	}
}

// Name returns the channel name.
func (c *Channel) Name() string { return c.name }

// Direction returns the supported operations.
func (c *Channel) Direction() Direction { return c.dir }

// Formatter returns the formatter chosen at construction.
func (c *Channel) Formatter() style.Formatter { return c.fmt }

// Adapter returns the line-editing adapter, nil for output-only channels.
func (c *Channel) Adapter() lineedit.Adapter { return c.adapter }

// Interactive reports whether reads go through an enhanced line editor.
func (c *Channel) Interactive() bool { return c.adapter != nil && c.adapter.Enhanced() }

// Size returns the window size of the sink. ok is false when the width is
// unknown.
func (c *Channel) Size() (cols, rows int, ok bool) {
	if c.cols > 0 {
		return c.cols, c.rows, true
	}
	target := c.w
	if target == nil {
		target = c.promptW
	}
	cols, rows = style.Size(target)
	return cols, rows, cols > 0
}

func (c *Channel) Enabled() bool { return c.enabled.Load() }
func (c *Channel) Disable()      { c.enabled.Store(false) }
func (c *Channel) Enable()       { c.enabled.Store(true) }
func (c *Channel) Closed() bool  { return c.closed.Load() }

// Close releases the adapter and any registered resource. It is
// idempotent.
func (c *Channel) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.lock()
	defer c.unlock()

	var first error
	if c.adapter != nil {
		first = c.adapter.Close()
	}
	if c.closer != nil {
		if err := c.closer.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Captured returns everything written to a capture channel.
func (c *Channel) Captured() string {
	if c.capture == nil {
		return ""
	}
	c.lock()
	defer c.unlock()
	return c.capture.String()
}

// Reset clears a capture channel's buffer.
func (c *Channel) Reset() {
	if c.capture == nil {
		return
	}
	c.lock()
	defer c.unlock()
	c.capture.Reset()
}

func (c *Channel) checkWrite(op string) (skip bool, err error) {
	if c.closed.Load() {
		return true, newError(KindChannelClosed, op, c.name, "channel closed")
	}
	if !c.dir.canWrite() {
		return true, newError(KindChannelClosed, op, c.name, "channel is not writable")
	}
	return !c.enabled.Load(), nil
}

func (c *Channel) checkRead(op string) error {
	if c.closed.Load() {
		return newError(KindChannelClosed, op, c.name, "channel closed")
	}
	if !c.enabled.Load() {
		return newError(KindChannelClosed, op, c.name, "channel disabled")
	}
	if !c.dir.canRead() || c.adapter == nil {
		return newError(KindChannelClosed, op, c.name, "channel is not readable")
	}
	return nil
}

// Write sends text styled for role. No newline is added.
func (c *Channel) Write(text string, role Role) error {
	skip, err := c.checkWrite("write")
	if skip {
		return err
	}
	c.lock()
	defer c.unlock()
	return c.emit(NewMsg().End("").Add(role, text))
}

// Output writes a multi-part message.
func (c *Channel) Output(msg *Msg) error {
	skip, err := c.checkWrite("output")
	if skip {
		return err
	}
	c.lock()
	defer c.unlock()
	return c.emit(msg)
}

// emit renders msg through the formatter and mirrors it. Caller holds the lock.
func (c *Channel) emit(msg *Msg) error {
	if _, err := io.WriteString(c.w, msg.Render(c.fmt.Apply)); err != nil {
		return newError(KindChannelClosed, "write", c.name, "write failed").withCause(err)
	}
	c.mirror(msg)
	return nil
}

func (c *Channel) mirror(msg *Msg) {
	for _, d := range c.delegates {
		d.Output(msg)
	}
}

func (c *Channel) Print(format string, args ...any) error   { return c.line(RolePlain, format, args) }
func (c *Channel) Info(format string, args ...any) error    { return c.line(RoleInfo, format, args) }
func (c *Channel) Status(format string, args ...any) error  { return c.line(RoleStatus, format, args) }
func (c *Channel) Success(format string, args ...any) error { return c.line(RoleSuccess, format, args) }
func (c *Channel) Warn(format string, args ...any) error    { return c.line(RoleWarning, format, args) }
func (c *Channel) Error(format string, args ...any) error   { return c.line(RoleError, format, args) }
func (c *Channel) Accent(format string, args ...any) error  { return c.line(RoleAccent, format, args) }
func (c *Channel) Bright(format string, args ...any) error  { return c.line(RoleBright, format, args) }
func (c *Channel) Muted(format string, args ...any) error   { return c.line(RoleMuted, format, args) }
func (c *Channel) Happy(format string, args ...any) error   { return c.line(RoleHappy, format, args) }
func (c *Channel) Sad(format string, args ...any) error     { return c.line(RoleSad, format, args) }
func (c *Channel) Meh(format string, args ...any) error     { return c.line(RoleMeh, format, args) }

func (c *Channel) line(role Role, format string, args []any) error {
	return c.Output(NewMsg().Addf(role, format, args...))
}

// Read returns one line from the source without its line terminator.
func (c *Channel) Read(ctx context.Context, prompt string) (string, error) {
	return c.ReadWithCompletion(ctx, prompt, nil)
}

// ReadWithCompletion is Read with tab-completion candidates for this read
// only.
func (c *Channel) ReadWithCompletion(ctx context.Context, prompt string, choices []string) (string, error) {
	if err := c.checkRead("read"); err != nil {
		return "", err
	}
	c.lock()
	defer c.unlock()
	return c.read(ctx, prompt, choices, false)
}

// read performs one read. Caller holds the lock. With masked set,
// delegates see asterisks instead of the answer.
func (c *Channel) read(ctx context.Context, prompt string, choices []string, masked bool) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if prompt != "" {
		c.mirror(NewMsg().End(" ").Add(RolePrompt, prompt))
	}
	if err := ctx.Err(); err != nil {
		c.mirror(NewMsg())
		return "", newError(KindInterrupted, "read", c.name, "read interrupted").withCause(err)
	}

	if choices != nil {
		c.adapter.SetCompletions(choices)
		defer c.adapter.SetCompletions(nil)
	}

	var (
		line string
		err  error
	)
	if c.Interactive() {
		shown := ""
		if prompt != "" {
			shown = c.fmt.Apply(prompt, RolePrompt) + " "
		}
		line, err = c.adapter.ReadLine(ctx, shown)
	} else {
		if prompt != "" && c.promptW != nil {
			if _, werr := io.WriteString(c.promptW, c.fmt.Apply(prompt, RolePrompt)+" "); werr != nil {
				return "", newError(KindChannelClosed, "read", c.name, "prompt write failed").withCause(werr)
			}
		}
		line, err = c.adapter.ReadLine(ctx, "")
	}

	if err != nil {
		c.mirror(NewMsg())
		return "", translateReadError("read", c.name, err)
	}
	if c.Interactive() {
		c.adapter.AppendHistory(line)
	}
	if masked {
		c.mirror(NewMsg().Add(RoleAnswer, "********"))
	} else {
		c.mirror(NewMsg().Add(RoleAnswer, line))
	}
	return line, nil
}

// ReadPassword reads a line without echo when the source is a terminal.
// Delegates see a masked answer.
func (c *Channel) ReadPassword(ctx context.Context, prompt string) (string, error) {
	if err := c.checkRead("password"); err != nil {
		return "", err
	}
	c.lock()
	defer c.unlock()

	if pr, ok := c.adapter.(lineedit.PasswordReader); ok && c.Interactive() {
		if prompt != "" {
			c.mirror(NewMsg().End(" ").Add(RolePrompt, prompt))
		}
		shown := ""
		if prompt != "" {
			shown = c.fmt.Apply(prompt, RolePrompt) + " "
		}
		secret, err := pr.ReadPassword(ctx, shown)
		if err != nil {
			c.mirror(NewMsg())
			return "", translateReadError("password", c.name, err)
		}
		c.mirror(NewMsg().Add(RoleAnswer, "********"))
		return secret, nil
	}

	f, ok := c.r.(interface{ Fd() uintptr })
	if !ok || !style.IsTerminal(f.Fd()) {
		return c.read(ctx, prompt, nil, true)
	}

	if prompt != "" {
		c.mirror(NewMsg().End(" ").Add(RolePrompt, prompt))
		if c.promptW != nil {
			_, _ = io.WriteString(c.promptW, c.fmt.Apply(prompt, RolePrompt)+" ")
		}
	}
	if err := ctx.Err(); err != nil {
		return "", newError(KindInterrupted, "password", c.name, "read interrupted").withCause(err)
	}
	b, err := term.ReadPassword(int(f.Fd()))
	if c.promptW != nil {
		_, _ = io.WriteString(c.promptW, "\n")
	}
	if err != nil {
		c.mirror(NewMsg())
		return "", translateReadError("password", c.name, err)
	}
	c.mirror(NewMsg().Add(RoleAnswer, "********"))
	return string(b), nil
}

// Exclusive holds the channel's I/O lock while fn runs. fn receives a view
// of the channel that does not lock again; calling methods on the original
// channel from inside fn deadlocks.
func (c *Channel) Exclusive(fn func(*Channel) error) error {
	if c.held {
		return fn(c)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(&Channel{channelState: c.channelState, held: true})
}
