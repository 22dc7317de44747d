package style

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ColorMode selects how a channel decides whether to emit styling.
type ColorMode int

const (
	// ColorAuto styles output only for terminals that are not TERM=dumb.
	ColorAuto ColorMode = iota
	// ColorAlways styles output regardless of the sink.
	ColorAlways
	// ColorNever disables styling.
	ColorNever
)

func (m ColorMode) String() string {
	switch m {
	case ColorAlways:
		return "always"
	case ColorNever:
		return "never"
	default:
		return "auto"
	}
}

// ParseColorMode accepts auto/always/never and the usual boolean spellings.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ColorAuto, nil
	case "always", "force", "on", "true", "yes", "1":
		return ColorAlways, nil
	case "never", "off", "false", "no", "0":
		return ColorNever, nil
	}
	return ColorAuto, &ParseError{Kind: "color mode", Value: s}
}

// UnmarshalText lets config decoders read a ColorMode from a string.
func (m *ColorMode) UnmarshalText(b []byte) error {
	v, err := ParseColorMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Capability is the result of probing a sink once. It is cached by the
// channel for its whole lifetime.
type Capability struct {
	Color    bool
	Profile  termenv.Profile
	Terminal bool
	Width    int
	Height   int
}

// Level maps the profile to 0=none, 1=16, 2=256, 3=truecolor.
func (c Capability) Level() int {
	if !c.Color {
		return 0
	}
	switch c.Profile {
	case termenv.TrueColor:
		return 3
	case termenv.ANSI256:
		return 2
	case termenv.ANSI:
		return 1
	default:
		return 0
	}
}

// fder is satisfied by *os.File and most terminal wrappers.
type fder interface {
	Fd() uintptr
}

// IsTerminal reports whether fd is a terminal, including Cygwin/MSYS ptys.
func IsTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// IsTerminalWriter reports whether v exposes a terminal file descriptor.
func IsTerminalWriter(v any) bool {
	f, ok := v.(fder)
	return ok && IsTerminal(f.Fd())
}

// Probe inspects w and the environment.
func Probe(w io.Writer, mode ColorMode) Capability {
	c := Capability{Profile: termenv.Ascii}

	c.Terminal = IsTerminalWriter(w)
	c.Width, c.Height = Size(w)

	switch {
	case mode == ColorNever || os.Getenv("NO_COLOR") != "":
		c.Color = false
	case mode == ColorAlways || os.Getenv("FORCE_COLOR") != "":
		c.Color = true
	default:
		c.Color = c.Terminal && os.Getenv("TERM") != "dumb"
	}
	if !c.Color {
		return c
	}

	out := termenv.NewOutput(w, termenv.WithTTY(true))
	if c.Terminal {
		if _, err := termenv.EnableVirtualTerminalProcessing(out); err != nil {
			// Legacy Windows console without VT support.
			c.Color = false
			return c
		}
	}
	c.Profile = out.ColorProfile()
	if c.Profile == termenv.Ascii {
		c.Profile = termenv.ANSI
	}
	return c
}

// Size returns the window size of w's terminal, falling back to COLUMNS
// and LINES. Unknown dimensions are 0.
func Size(w any) (cols, rows int) {
	if f, ok := w.(fder); ok && IsTerminal(f.Fd()) {
		if c, r, err := term.GetSize(int(f.Fd())); err == nil {
			cols, rows = c, r
		}
	}
	if cols <= 0 || rows <= 0 {
		ew, eh := sizeFromEnv()
		if cols <= 0 {
			cols = ew
		}
		if rows <= 0 {
			rows = eh
		}
	}
	return cols, rows
}

func sizeFromEnv() (int, int) {
	var w, h int
	if v, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && v > 0 {
		w = v
	}
	if v, err := strconv.Atoi(os.Getenv("LINES")); err == nil && v > 0 {
		h = v
	}
	return w, h
}
